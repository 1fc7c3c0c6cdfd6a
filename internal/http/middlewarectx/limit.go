package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/daon-labs/user-subscription-backend/internal/http/response"
)

// RateLimitMiddleware throttles an endpoint with its own token bucket.
// Used on the verification-code endpoint to keep SMS volume bounded.
func RateLimitMiddleware(log *slog.Logger, rps rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rps, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Error("too many requests")
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Err("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
