// Package googleurl handles GET /oauth/google: it hands the client the
// provider consent-screen URL.
package googleurl

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

// Service builds the provider authorization URL.
type Service interface {
	GoogleAuthURL() string
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.oauth.googleurl"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	log.Info("auth url requested")

	render.JSON(w, r, map[string]any{
		"auth_url": h.service.GoogleAuthURL(),
	})
}
