// Package requestcode handles POST /phone/verify/request: it sends a
// six-digit verification code to the given phone over SMS.
package requestcode

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

// Request carries the phone in the local 010-xxxx-xxxx format.
type Request struct {
	Phone string `json:"phone" validate:"required"`
}

// Service requests a verification code for the phone.
type Service interface {
	RequestCode(ctx context.Context, phone string) error
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
	const op = "handlers.phone.requestcode"

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

	if err := h.service.RequestCode(r.Context(), req.Phone); err != nil {
		log.Error("failed to request verification code", sl.Err(err))
		switch {
		case errors.Is(err, verification.ErrInvalidPhone):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Err("invalid phone number"))
		case errors.Is(err, verification.ErrDeliveryFailed):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Err("SMS 발송 실패: "+err.Error()))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Err("internal error"))
		}
		return
	}

	render.JSON(w, r, response.Msg("인증번호가 발송되었습니다."))
}
