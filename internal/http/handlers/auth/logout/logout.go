// Package logout handles POST /logout: it drops the session cache
// entry, blacklists the refresh token and clears the refresh cookie.
// Any failure collapses to one generic notice with the detail attached.
package logout

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/daon-labs/user-subscription-backend/internal/http/middlewarectx"
	"github.com/daon-labs/user-subscription-backend/internal/http/response"
	"github.com/daon-labs/user-subscription-backend/internal/lib/sl"
)

type Request struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Service invalidates a session.
type Service interface {
	Logout(ctx context.Context, useruid, refreshToken string) error
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
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// The cookie is cleared on failure too, matching the success path.
	clearRefreshCookie(w)

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
		render.JSON(w, r, response.Fail("로그아웃에 실패했습니다.", err))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Fail("로그아웃에 실패했습니다.", err))
		return
	}

	if err := h.service.Logout(r.Context(), useruid, req.RefreshToken); err != nil {
		log.Error("logout failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Fail("로그아웃에 실패했습니다.", err))
		return
	}

	render.JSON(w, r, response.Msg("로그아웃이 완료되었습니다."))
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
}
