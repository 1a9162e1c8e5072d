package middleware

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/jonwraymond/restops/endpoint"
)

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	// Rate is the number of requests allowed per second.
	// Default: 100
	Rate float64 `yaml:"rate"`

	// Burst is the bucket size.
	// Default: 10
	Burst int `yaml:"burst"`

	// MaxWait, when positive, makes a limited request wait up to this long
	// for a token instead of failing at once.
	MaxWait time.Duration `yaml:"-"`

	// KeyFunc partitions the limit, e.g. per client address. Nil shares
	// one bucket across all requests.
	KeyFunc func(*endpoint.Request) string `yaml:"-"`
}

// RateLimiter is a token bucket.
type RateLimiter struct {
	rate  float64
	burst float64
	now   func() time.Time

	mu          sync.Mutex
	tokens      float64
	lastRefresh time.Time
}

// NewRateLimiter creates a full bucket refilling at rate tokens per second.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return newRateLimiter(rate, burst, time.Now)
}

func newRateLimiter(rate float64, burst int, now func() time.Time) *RateLimiter {
	if rate <= 0 {
		rate = 100
	}
	if burst <= 0 {
		burst = 10
	}
	return &RateLimiter{
		rate:        rate,
		burst:       float64(burst),
		now:         now,
		tokens:      float64(burst),
		lastRefresh: now(),
	}
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// Wait takes a token, waiting up to maxWait for one to accumulate.
func (rl *RateLimiter) Wait(ctx context.Context, maxWait time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rl.Allow() {
		return nil
	}

	rl.mu.Lock()
	wait := time.Duration((1 - rl.tokens) / rl.rate * float64(time.Second))
	rl.mu.Unlock()
	if wait > maxWait {
		return ErrRateLimited
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		if rl.Allow() {
			return nil
		}
		return ErrRateLimited
	}
}

// Tokens returns the tokens currently available.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

func (rl *RateLimiter) refillLocked() {
	now := rl.now()
	rl.tokens = min(rl.burst, rl.tokens+now.Sub(rl.lastRefresh).Seconds()*rl.rate)
	rl.lastRefresh = now
}

// RateLimit rejects requests over the configured rate with 429
// rest_rate_limited. Rejected requests never reach the cache or handler.
func RateLimit(cfg RateLimitConfig) endpoint.Middleware {
	return rateLimit(cfg, time.Now)
}

func rateLimit(cfg RateLimitConfig, now func() time.Time) endpoint.Middleware {
	var (
		mu      sync.Mutex
		buckets = make(map[string]*RateLimiter)
	)
	bucket := func(key string) *RateLimiter {
		mu.Lock()
		defer mu.Unlock()
		b, ok := buckets[key]
		if !ok {
			b = newRateLimiter(cfg.Rate, cfg.Burst, now)
			buckets[key] = b
		}
		return b
	}

	return func(req *endpoint.Request, next endpoint.Next) (*endpoint.Response, error) {
		key := ""
		if cfg.KeyFunc != nil {
			key = cfg.KeyFunc(req)
		}
		b := bucket(key)

		if cfg.MaxWait > 0 {
			if err := b.Wait(req.Context(), cfg.MaxWait); err != nil {
				return nil, rateLimited()
			}
		} else if !b.Allow() {
			return nil, rateLimited()
		}
		return next(req)
	}
}

// ClientIP keys a rate limit by the caller's address.
func ClientIP(req *endpoint.Request) string {
	addr := req.HTTP().RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
