package handler

import (
	"net/http"

	"golang.org/x/time/rate"

	appI18n "github.com/pavelanni/examgen/internal/i18n"
)

// rateLimiter is a single token bucket shared by all callers of the public
// content-processing endpoint.
type rateLimiter struct {
	limiter *rate.Limiter
}

func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions && !l.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": appI18n.T(r.Context(), "ErrRateLimited")})
			return
		}
		next.ServeHTTP(w, r)
	})
}
