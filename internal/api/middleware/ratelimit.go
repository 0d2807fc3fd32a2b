package middleware

import (
	"net"
	"net/http"

	"github.com/geoscribe/report-backend/internal/config"
	"github.com/patrickmn/go-cache"
)

// RateLimit enforces a fixed-window per-client request budget. Counters
// live in an expiring in-memory cache keyed by client IP; when the
// window lapses the cache entry expires and the budget resets.
func RateLimit(cfg config.RateLimitConfig) func(next http.Handler) http.Handler {
	counters := cache.New(cfg.Window, 2*cfg.Window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)

			count, err := counters.IncrementInt(key, 1)
			if err != nil {
				counters.Set(key, 1, cache.DefaultExpiration)
				count = 1
			}

			if count > cfg.RequestsPerMinute {
				w.Header().Set("Retry-After", cfg.Window.String())
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
