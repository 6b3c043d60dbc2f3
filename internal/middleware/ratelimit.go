package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginRateLimit caps login attempts per client IP using a Redis counter with
// a one-minute window. A nil client disables the limit, and cache errors
// fail open so an unavailable Redis never blocks logins.
func LoginRateLimit(cache *redis.Client, maxPerMin int) func(http.Handler) http.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cache == nil {
				next.ServeHTTP(w, r)
				return
			}
			key := "rl:login:" + clientIP(r)
			count, err := cache.Incr(r.Context(), key).Result()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				cache.Expire(r.Context(), key, time.Minute)
			}
			if count > int64(maxPerMin) {
				http.Error(w, "too many login attempts, try again later", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
