package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/restops/cache"
)

// brokenCache wraps a real cache and injects failures.
type brokenCache struct {
	cache.Cache
	setErr    error
	deleteErr error
	corrupt   bool
}

func (b *brokenCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if b.setErr != nil {
		return b.setErr
	}
	return b.Cache.Set(ctx, key, value, ttl)
}

func (b *brokenCache) Get(ctx context.Context, key string) ([]byte, bool) {
	v, ok := b.Cache.Get(ctx, key)
	if b.corrupt && ok {
		return []byte("garbage"), true
	}
	return v, ok
}

func (b *brokenCache) Delete(ctx context.Context, key string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	return b.Cache.Delete(ctx, key)
}

func TestCacheChecker_Healthy(t *testing.T) {
	c := cache.NewMemoryCache()
	checker := NewCacheChecker(c, CacheCheckerConfig{})

	if checker.Name() != "cache" {
		t.Errorf("Name() = %q", checker.Name())
	}
	r := checker.Check(context.Background())
	if r.Status != StatusHealthy {
		t.Fatalf("Check() = %+v", r)
	}
	if _, ok := r.Details["round_trip"]; !ok {
		t.Errorf("details = %v", r.Details)
	}
}

func TestCacheChecker_LeavesNoProbeBehind(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(context.Background(), "posts", []byte("hello"), time.Hour); err != nil {
		t.Fatal(err)
	}

	r := NewCacheChecker(c, CacheCheckerConfig{Name: "file-cache"}).Check(context.Background())
	if r.Status != StatusHealthy {
		t.Fatalf("Check() = %+v", r)
	}
	if r.Details["entries"] != 1 || r.Details["size"] != "5 B" || r.Details["expired"] != 0 {
		t.Errorf("details = %v", r.Details)
	}

	entries, err := c.Entries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Key != "posts" {
		t.Errorf("entries after probe = %+v", entries)
	}
}

func TestCacheChecker_Failures(t *testing.T) {
	disk := errors.New("disk full")
	tests := []struct {
		name  string
		cache *brokenCache
		msg   string
	}{
		{"write fails", &brokenCache{setErr: disk}, "cache write failed"},
		{"read-back differs", &brokenCache{corrupt: true}, "cache read-back mismatch"},
		{"delete fails", &brokenCache{deleteErr: disk}, "cache delete failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cache.Cache = cache.NewMemoryCache()
			r := NewCacheChecker(tt.cache, CacheCheckerConfig{}).Check(context.Background())
			if r.Status != StatusUnhealthy || r.Message != tt.msg {
				t.Fatalf("Check() = %+v, want unhealthy %q", r, tt.msg)
			}
			if !errors.Is(r.Error, ErrCheckFailed) {
				t.Errorf("Error = %v, want ErrCheckFailed", r.Error)
			}
		})
	}
}

func TestCacheChecker_Slow(t *testing.T) {
	r := NewCacheChecker(cache.NewMemoryCache(), CacheCheckerConfig{SlowThreshold: time.Nanosecond}).Check(context.Background())
	if r.Status != StatusDegraded {
		t.Fatalf("Check() = %+v, want degraded", r)
	}
}

func TestCacheChecker_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewCacheChecker(cache.NewMemoryCache(), CacheCheckerConfig{}).Check(ctx)
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, context.Canceled) {
		t.Fatalf("Check() = %+v", r)
	}
}
