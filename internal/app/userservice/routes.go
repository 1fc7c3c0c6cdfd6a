package userservice

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/auth/emailcheck"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/auth/login"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/auth/logout"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/auth/refresh"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/auth/register"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/oauth/googlecallback"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/oauth/googlelogin"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/oauth/googleurl"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/phone/confirmcode"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/phone/requestcode"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/subscription/cancel"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/subscription/create"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/subscription/history"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/subscription/pause"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/subscription/read"
	"github.com/daon-labs/user-subscription-backend/internal/http/handlers/subscription/restart"
	"github.com/daon-labs/user-subscription-backend/internal/http/middlewarectx"

	authservice "github.com/daon-labs/user-subscription-backend/internal/services/auth"
	subscriptionservice "github.com/daon-labs/user-subscription-backend/internal/services/subscription"
	verificationservice "github.com/daon-labs/user-subscription-backend/internal/services/verification"
)

// RegisterRoutes wires every endpoint of the service onto the router.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	authService *authservice.Service,
	verificationService *verificationservice.Service,
	subscriptionService *subscriptionservice.Service,
) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	// Open endpoints
	r.Post("/register", register.New(logger, authService).ServeHTTP)
	r.Post("/email/check", emailcheck.New(logger, authService).ServeHTTP)
	r.Post("/login", login.New(logger, authService).ServeHTTP)
	r.Post("/token/refresh", refresh.New(logger, authService).ServeHTTP)

	r.Get("/oauth/google", googleurl.New(logger, authService).ServeHTTP)
	r.Post("/oauth/google", googlelogin.New(logger, authService).ServeHTTP)
	r.Get("/oauth/google/callback", googlecallback.New(logger).ServeHTTP)

	// SMS volume stays bounded even when a client misbehaves.
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, rate.Limit(1), 3))
		r.Post("/phone/verify/request", requestcode.New(logger, verificationService).ServeHTTP)
	})
	r.Post("/phone/verify/confirm", confirmcode.New(logger, verificationService).ServeHTTP)

	// Authenticated endpoints
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(authService, logger))
		r.Post("/logout", logout.New(logger, authService).ServeHTTP)
		r.Post("/subscriptions", create.New(logger, subscriptionService).ServeHTTP)
		r.Get("/subscriptions", read.New(logger, subscriptionService).ServeHTTP)
		r.Post("/subscriptions/cancel", cancel.New(logger, subscriptionService).ServeHTTP)
		r.Post("/subscriptions/pause", pause.New(logger, subscriptionService).ServeHTTP)
		r.Post("/subscriptions/restart", restart.New(logger, subscriptionService).ServeHTTP)
		r.Get("/subscriptions/history", history.New(logger, subscriptionService).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
