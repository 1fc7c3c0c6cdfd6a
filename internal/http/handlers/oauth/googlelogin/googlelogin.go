// Package googlelogin handles POST /oauth/google: authorization-code
// exchange, find-or-create of the account and token issuance. Every
// failure on the path collapses to one generic notice with the detail
// attached.
package googlelogin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/daon-labs/user-subscription-backend/internal/http/response"
	"github.com/daon-labs/user-subscription-backend/internal/lib/jwt"
	"github.com/daon-labs/user-subscription-backend/internal/lib/sl"
)

type Request struct {
	Code string `json:"code" validate:"required"`
}

// Service performs the OAuth login flow.
type Service interface {
	GoogleLogin(ctx context.Context, code string) (*jwt.TokenPair, error)
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
	const op = "handlers.oauth.googlelogin"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Fail("구글 로그인에 실패했습니다.", err))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Fail("구글 로그인에 실패했습니다.", err))
		return
	}

	pair, err := h.service.GoogleLogin(r.Context(), req.Code)
	if err != nil {
		log.Error("google login failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Fail("구글 로그인에 실패했습니다.", err))
		return
	}

	render.JSON(w, r, map[string]any{
		"message":       "구글 로그인이 완료되었습니다.",
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}
