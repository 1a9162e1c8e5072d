// Package config loads the restops server configuration from YAML.
//
// Loading follows four steps: strict ${VAR} expansion of the raw document,
// decoding, defaults and validation, then resolution of secretref: values
// for credentials. Durations accept day and week units ("1d", "2w") and
// sizes accept human units ("1MiB", "512KB").
//
// A minimal file:
//
//	server:
//	  addr: ":8080"
//	cache:
//	  backend: file
//	  dir: /var/cache/restops
//	  default_ttl: 1h
package config
