// Package confirmcode handles POST /phone/verify/confirm: it checks the
// submitted code against the cached one and marks the phone verified.
package confirmcode

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/daon-labs/user-subscription-backend/internal/http/response"
	"github.com/daon-labs/user-subscription-backend/internal/lib/sl"
	"github.com/daon-labs/user-subscription-backend/internal/services/verification"
)

type Request struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

// Service confirms a verification code.
type Service interface {
	ConfirmCode(ctx context.Context, phone, code string) error
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
	const op = "handlers.phone.confirmcode"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	if err := h.service.ConfirmCode(r.Context(), req.Phone, req.Code); err != nil {
		log.Error("failed to confirm verification code", sl.Err(err))
		switch {
		case errors.Is(err, verification.ErrCodeExpired):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Err("인증번호가 만료되었습니다."))
		case errors.Is(err, verification.ErrCodeMismatch):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Err("잘못된 인증번호입니다."))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Err("internal error"))
		}
		return
	}

	render.JSON(w, r, response.Msg("인증이 완료되었습니다."))
}
