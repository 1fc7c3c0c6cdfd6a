// Package googlecallback handles GET /oauth/google/callback: it echoes
// the authorization code back to the client that completes the flow.
package googlecallback

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daon-labs/user-subscription-backend/internal/http/response"
)

type Handler struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.oauth.googlecallback"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	code := r.URL.Query().Get("code")
	if code == "" {
		log.Error("authorization code missing")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Msg("인증 코드가 없습니다."))
		return
	}

	render.JSON(w, r, map[string]any{"code": code})
}
