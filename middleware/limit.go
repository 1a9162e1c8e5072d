package middleware

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/restops/endpoint"
)

// Limiter caps how many requests run the rest of the pipeline at once.
type Limiter struct {
	sem     chan struct{}
	maxWait time.Duration

	active   atomic.Int64
	rejected atomic.Int64
}

// NewLimiter allows n concurrent requests. A request that finds no free
// slot waits up to maxWait, or fails at once when maxWait is zero.
func NewLimiter(n int, maxWait time.Duration) *Limiter {
	if n <= 0 {
		n = 10
	}
	return &Limiter{sem: make(chan struct{}, n), maxWait: maxWait}
}

// Active returns the number of requests holding a slot.
func (l *Limiter) Active() int64 { return l.active.Load() }

// Rejected returns how many requests were turned away.
func (l *Limiter) Rejected() int64 { return l.rejected.Load() }

// Middleware rejects requests over the limit with 503 rest_overloaded.
func (l *Limiter) Middleware() endpoint.Middleware {
	return func(req *endpoint.Request, next endpoint.Next) (*endpoint.Response, error) {
		if !l.acquire(req) {
			l.rejected.Add(1)
			return nil, rejected(http.StatusServiceUnavailable, CodeOverloaded, "server is busy", ErrOverloaded)
		}
		l.active.Add(1)
		defer func() {
			l.active.Add(-1)
			<-l.sem
		}()
		return next(req)
	}
}

func (l *Limiter) acquire(req *endpoint.Request) bool {
	select {
	case l.sem <- struct{}{}:
		return true
	default:
	}
	if l.maxWait <= 0 {
		return false
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()
	select {
	case l.sem <- struct{}{}:
		return true
	case <-timer.C:
		return false
	case <-req.Context().Done():
		return false
	}
}

// ConcurrencyLimit is shorthand for NewLimiter(n, maxWait).Middleware().
func ConcurrencyLimit(n int, maxWait time.Duration) endpoint.Middleware {
	return NewLimiter(n, maxWait).Middleware()
}
