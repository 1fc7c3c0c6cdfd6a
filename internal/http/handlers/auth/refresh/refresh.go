// Package refresh handles POST /token/refresh: it rotates the token
// pair for a valid, non-blacklisted refresh token and rewrites the
// session cache entry.
package refresh

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
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Service rotates token pairs.
type Service interface {
	Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error)
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
	const op = "handlers.auth.refresh"

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

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		log.Error("token refresh failed", sl.Err(err))
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenBlacklisted) {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Err("invalid or expired token"))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Err("internal error"))
		return
	}

	render.JSON(w, r, map[string]any{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}
