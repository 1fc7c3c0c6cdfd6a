// Package cancel handles POST /subscriptions/cancel: cancellation with a
// reason tag and an optional free-text elaboration.
package cancel

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/daon-labs/user-subscription-backend/internal/http/middlewarectx"
	"github.com/daon-labs/user-subscription-backend/internal/http/response"
	"github.com/daon-labs/user-subscription-backend/internal/lib/sl"
	"github.com/daon-labs/user-subscription-backend/internal/services/subscription"
)

type Request struct {
	Reason      string  `json:"reason" validate:"required"`
	OtherReason *string `json:"other_reason,omitempty"`
}

// Service cancels subscriptions.
type Service interface {
	Cancel(ctx context.Context, useruid, reason string, otherReason *string) error
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Err("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.Cancel(r.Context(), useruid, req.Reason, req.OtherReason); err != nil {
		log.Error("failed to cancel subscription", sl.Err(err))
		switch {
		case errors.Is(err, subscription.ErrInvalidReason):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Err("잘못된 취소 사유입니다."))
		case errors.Is(err, subscription.ErrAlreadyCancelled):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Err("이미 취소된 구독입니다."))
		case errors.Is(err, subscription.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Err("구독 정보가 없습니다."))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Err("internal error"))
		}
		return
	}

	render.JSON(w, r, response.Msg("구독이 취소되었습니다."))
}
