package ratelimit

import (
	"net/http"
	"sync"
	"time"

	pkghttp "FinAdvisor/pkg/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter keeps one token bucket per client key.
type Limiter struct {
	mu       sync.Mutex
	m        map[string]*entry
	capacity int
	refill   rate.Limit
	idleTTL  time.Duration
	now      func() time.Time
}

// New creates a limiter allowing bursts of capacity and refillPerSec
// sustained requests per client.
func New(capacity int, refillPerSec float64) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	return &Limiter{
		m:        make(map[string]*entry),
		capacity: capacity,
		refill:   rate.Limit(refillPerSec),
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	e, ok := l.m[key]
	if !ok {
		l.evictIdle(now)
		e = &entry{lim: rate.NewLimiter(l.refill, l.capacity)}
		l.m[key] = e
	}
	e.seen = now
	l.mu.Unlock()
	return e.lim.AllowN(now, 1)
}

// evictIdle drops buckets not touched within idleTTL. Callers hold mu.
func (l *Limiter) evictIdle(now time.Time) {
	for k, e := range l.m {
		if now.Sub(e.seen) > l.idleTTL {
			delete(l.m, k)
		}
	}
}

// Middleware rejects requests over the per-client budget with 429.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return pkghttp.DataResponse(c, http.StatusTooManyRequests, []*pkghttp.AppError{
					pkghttp.NewAppError("ERR_RATE_LIMITED", "", "too many requests, retry later", http.StatusTooManyRequests),
				})
			}
			return next(c)
		}
	}
}
