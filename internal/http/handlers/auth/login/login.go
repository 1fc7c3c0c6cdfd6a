// Package login handles POST /login: password check, token pair
// issuance and session caching.
package login

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
	"github.com/daon-labs/user-subscription-backend/internal/lib/jwt"
	"github.com/daon-labs/user-subscription-backend/internal/lib/sl"
	"github.com/daon-labs/user-subscription-backend/internal/services/auth"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service authenticates a local account and issues a token pair.
type Service interface {
	Login(ctx context.Context, email, password string) (*jwt.TokenPair, error)
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
	const op = "handlers.auth.login"

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

	pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Error("login failed", sl.Err(err))
		if errors.Is(err, auth.ErrInvalidCredentials) {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Err("이메일 또는 비밀번호가 올바르지 않습니다."))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Err("internal error"))
		return
	}

	render.JSON(w, r, map[string]any{
		"message":       "로그인이 완료되었습니다.",
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}
