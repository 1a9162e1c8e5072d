// Package health reports whether a restops server and its dependencies are
// working.
//
// A Checker reports a Status: Healthy, Degraded, or Unhealthy. CacheChecker
// probes a response cache with a set/get/delete round trip, MemoryChecker
// watches heap usage and DiskChecker watches free space under a file cache. An Aggregator runs several checkers concurrently under
// one deadline.
//
// # HTTP Endpoints
//
//	agg := health.NewAggregator()
//	agg.Register("cache", health.NewCacheChecker(fileCache, health.CacheCheckerConfig{}))
//	health.RegisterHandlers(mux, agg)
//
// This mounts /healthz (liveness), /readyz (readiness) and /health (JSON
// detail for every check).
package health
