package health

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jonwraymond/restops/cache"
)

// CacheCheckerConfig configures CacheChecker.
type CacheCheckerConfig struct {
	// Name defaults to "cache".
	Name string

	// SlowThreshold marks the cache degraded when the probe round trip
	// takes longer. Default: 250ms.
	SlowThreshold time.Duration

	// ProbeTTL bounds how long a probe entry can outlive a failed delete.
	// Default: 1 minute.
	ProbeTTL time.Duration
}

// entryLister is implemented by caches that can enumerate their entries.
type entryLister interface {
	Entries(ctx context.Context) ([]cache.EntryInfo, error)
}

// CacheChecker probes a response cache by writing, reading back and
// deleting a throwaway entry.
type CacheChecker struct {
	config CacheCheckerConfig
	cache  cache.Cache
}

// NewCacheChecker creates a checker for c.
func NewCacheChecker(c cache.Cache, config CacheCheckerConfig) *CacheChecker {
	if config.Name == "" {
		config.Name = "cache"
	}
	if config.SlowThreshold <= 0 {
		config.SlowThreshold = 250 * time.Millisecond
	}
	if config.ProbeTTL <= 0 {
		config.ProbeTTL = time.Minute
	}
	return &CacheChecker{config: config, cache: c}
}

func (c *CacheChecker) Name() string {
	return c.config.Name
}

// Check runs the probe. A failed write, a missing or different read-back,
// or a failed delete is unhealthy; a slow round trip is degraded.
func (c *CacheChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	start := time.Now()
	key := fmt.Sprintf("health-probe-%d", start.UnixNano())
	want := []byte(start.Format(time.RFC3339Nano))

	if err := c.cache.Set(ctx, key, want, c.config.ProbeTTL); err != nil {
		return Unhealthy("cache write failed", fmt.Errorf("%w: %w", ErrCheckFailed, err))
	}
	got, ok := c.cache.Get(ctx, key)
	if !ok || !bytes.Equal(got, want) {
		_ = c.cache.Delete(ctx, key)
		return Unhealthy("cache read-back mismatch", ErrCheckFailed)
	}
	if err := c.cache.Delete(ctx, key); err != nil {
		return Unhealthy("cache delete failed", fmt.Errorf("%w: %w", ErrCheckFailed, err))
	}
	elapsed := time.Since(start)

	details := map[string]any{"round_trip": elapsed.String()}
	if l, ok := c.cache.(entryLister); ok {
		if entries, err := l.Entries(ctx); err == nil {
			var size int64
			expired := 0
			for _, e := range entries {
				size += e.Size
				if e.Expired {
					expired++
				}
			}
			details["entries"] = len(entries)
			details["expired"] = expired
			details["size"] = humanize.IBytes(uint64(size))
		}
	}

	if elapsed > c.config.SlowThreshold {
		return Degraded(fmt.Sprintf("cache slow: %s round trip", elapsed)).WithDetails(details)
	}
	return Healthy("cache round trip ok").WithDetails(details)
}

// Ensure CacheChecker implements Checker
var _ Checker = (*CacheChecker)(nil)
