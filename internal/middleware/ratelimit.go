package middleware

import (
	"net/http"
	"sync"
	"time"

	"ms-fidelity/internal/logger"

	"golang.org/x/time/rate"
)

type RateLimit struct {
	RequestsPerMinute float64
	Burst             int
}

type rateEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per (route group, client IP).
type RateLimiter struct {
	// Proxies decides which forwarding headers are believed. Nil keys
	// buckets on the peer address.
	Proxies *ProxyTrust

	log      *logger.Logger
	limits   map[string]RateLimit
	mu       sync.Mutex
	visitors map[string]*rateEntry
	clockNow func() time.Time
}

func NewRateLimiter(limits map[string]RateLimit, log *logger.Logger) *RateLimiter {
	return &RateLimiter{
		log:      log,
		limits:   limits,
		visitors: make(map[string]*rateEntry),
		clockNow: time.Now,
	}
}

// Middleware limits the routes it wraps under the named limit. Unknown
// names pass everything through.
func (r *RateLimiter) Middleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			limit, ok := r.limits[key]
			if !ok {
				next.ServeHTTP(w, req)
				return
			}
			ip := r.Proxies.ClientIP(req)
			if !r.obtainLimiter(key+"|"+ip, limit).Allow() {
				r.log.LogSecurity("rate_limited", key+" "+ip)
				w.Header().Set("Retry-After", "60")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func (r *RateLimiter) obtainLimiter(id string, cfg RateLimit) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clockNow()
	if entry, ok := r.visitors[id]; ok {
		entry.lastSeen = now
		return entry.limiter
	}
	perSecond := cfg.RequestsPerMinute / 60.0
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	r.visitors[id] = &rateEntry{limiter: limiter, lastSeen: now}
	return limiter
}

// Sweep forgets clients idle for longer than idle.
func (r *RateLimiter) Sweep(idle time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clockNow().Add(-idle)
	for id, entry := range r.visitors {
		if entry.lastSeen.Before(cutoff) {
			delete(r.visitors, id)
		}
	}
}
