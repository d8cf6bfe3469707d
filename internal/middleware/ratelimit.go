package middleware

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per tenant+IP.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	perSec  rate.Limit
	burst   int
}

func NewRateLimiter(perSec float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		buckets: make(map[string]*rate.Limiter),
		perSec:  rate.Limit(perSec),
		burst:   burst,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	lim, ok := rl.buckets[key]
	if !ok {
		lim = rate.NewLimiter(rl.perSec, rl.burst)
		rl.buckets[key] = lim
	}
	rl.mu.Unlock()
	return lim.Allow()
}

// RateLimit rejects callers that exceed perSec sustained requests.
func RateLimit(perSec float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(perSec, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip rate limit for health check
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			tenant := chi.URLParam(r, "tenant")
			if !limiter.allow(tenant + ":" + r.RemoteAddr) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
