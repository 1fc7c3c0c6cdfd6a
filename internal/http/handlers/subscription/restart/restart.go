// Package restart handles POST /subscriptions/restart.
package restart

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daon-labs/user-subscription-backend/internal/http/middlewarectx"
	"github.com/daon-labs/user-subscription-backend/internal/http/response"
	"github.com/daon-labs/user-subscription-backend/internal/lib/sl"
	"github.com/daon-labs/user-subscription-backend/internal/services/subscription"
)

// Service restarts paused subscriptions.
type Service interface {
	Restart(ctx context.Context, useruid string) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.restart"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	useruid, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || useruid == "" {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Err("user identification missing"))
		return
	}

	if err := h.service.Restart(r.Context(), useruid); err != nil {
		log.Error("failed to restart subscription", sl.Err(err))
		switch {
		case errors.Is(err, subscription.ErrNotPaused), errors.Is(err, subscription.ErrAlreadyCancelled):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Err("재시작할 수 없는 구독입니다."))
		case errors.Is(err, subscription.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Err("구독 정보가 없습니다."))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Err("internal error"))
		}
		return
	}

	render.JSON(w, r, response.Msg("구독이 재시작되었습니다."))
}
