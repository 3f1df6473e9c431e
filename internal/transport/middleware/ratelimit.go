package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/alphawing/brokerage/internal"
	"github.com/alphawing/brokerage/internal/transport"
	"golang.org/x/time/rate"
)

const (
	limiterTTL = 5 * time.Minute
	sweepEvery = time.Minute
)

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// IPRateLimiter keeps one token bucket per client IP as resolved by
// ClientIPResolver. Idle buckets are swept lazily while requests arrive.
type IPRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
	base      *transport.BaseHandler
}

func NewIPRateLimiter(perSecond float64, burst int, base *transport.BaseHandler) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
		base:     base,
	}
}

func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > sweepEvery {
		for k, v := range l.visitors {
			if now.Sub(v.seen) > limiterTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.seen = now
	return v.lim.AllowN(now, 1)
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(transport.ClientIP(r)) {
			w.Header().Set("Retry-After", "1")
			l.base.WriteAppError(w, r, internal.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
