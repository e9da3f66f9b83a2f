package api

import (
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"bookingdesk/pkg/session"
)

// limiterStore hands out one token bucket per caller.
type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[key] = l
	}
	return l
}

// RateLimit caps mutating calls per session user (falling back to the remote address). It
// must run after SessionAuth. perMinute <= 0 disables it.
func RateLimit(perMinute, burst int, logger *zap.Logger) func(http.Handler) http.Handler {
	if burst <= 0 {
		burst = 1
	}
	store := &limiterStore{
		limiters: map[string]*rate.Limiter{},
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
	}
	return func(next http.Handler) http.Handler {
		if perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if s := session.FromContext(r.Context()); s != nil && s.UserID != "" {
				key = "user:" + s.UserID
			}
			if !store.get(key).Allow() {
				if logger != nil {
					logger.Warn("rate limit exceeded", zap.String("caller", key), zap.String("path", r.URL.Path))
				}
				WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, try again shortly")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
