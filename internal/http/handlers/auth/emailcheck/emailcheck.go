// Package emailcheck handles POST /email/check: availability lookup
// before registration.
package emailcheck

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/daon-labs/user-subscription-backend/internal/http/response"
	"github.com/daon-labs/user-subscription-backend/internal/lib/sl"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Service answers email availability.
type Service interface {
	EmailAvailable(ctx context.Context, email string) (bool, error)
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
	const op = "handlers.auth.emailcheck"

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

	available, err := h.service.EmailAvailable(r.Context(), req.Email)
	if err != nil {
		log.Error("failed to check email availability", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Err("internal error"))
		return
	}

	if !available {
		render.JSON(w, r, response.Available(false, "이미 가입된 이메일입니다."))
		return
	}
	render.JSON(w, r, response.Available(true, "가입 가능한 이메일입니다."))
}
