// Package secret resolves credentials referenced from configuration.
//
// Configuration values go through two steps:
//   - strict environment expansion of ${VAR} (see ExpandEnvStrict)
//   - replacement of secret references by a Provider (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:RESTOPS_JWT_SECRET
//   - Inline use:  Bearer secretref:file:api-token
//
// EnvProvider and FileProvider cover the environment and mounted secret
// files (Kubernetes, Docker secrets).
package secret
