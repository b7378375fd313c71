package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
)

// RateLimitConfig configures the rate limiting middleware
type RateLimitConfig struct {
	// Requests per minute for general API endpoints
	RequestsPerMinute int
	// Requests per minute for AI generation endpoints
	AIRequestsPerMinute int
	// Burst size multiplier (burst = rate * multiplier)
	BurstMultiplier int
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute:   60, // 1 per second average
		AIRequestsPerMinute: 10, // LLM calls are slow and paid
		BurstMultiplier:     3,
	}
}

// RateLimitMiddleware creates rate limiting middleware keyed by client IP.
func RateLimitMiddleware(config RateLimitConfig) func(http.Handler) http.Handler {
	limiter := ratelimit.New(&ratelimit.Config{
		Rate:     config.RequestsPerMinute,
		Burst:    config.RequestsPerMinute * config.BurstMultiplier,
		Interval: time.Minute,
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := getClientIP(r)

			if !limiter.Allow(r.Context(), key) {
				slog.Warn("rate limit exceeded",
					"ip", key,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"code":"RATE_LIMITED","message":"too many requests, please try again later"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AIRateLimitMiddleware creates stricter rate limiting for generation
// endpoints, which fan out to a paid LLM API.
func AIRateLimitMiddleware(config RateLimitConfig) func(http.HandlerFunc) http.HandlerFunc {
	limiter := ratelimit.New(&ratelimit.Config{
		Rate:     config.AIRequestsPerMinute,
		Burst:    config.AIRequestsPerMinute * config.BurstMultiplier,
		Interval: time.Minute,
	})

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := getClientIP(r)

			if !limiter.Allow(r.Context(), key) {
				slog.Warn("AI rate limit exceeded",
					"ip", key,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"code":"RATE_LIMITED","message":"too many generation requests, please wait before trying again"}}`))
				return
			}

			next(w, r)
		}
	}
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (for proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take first IP in chain
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	return r.RemoteAddr
}
