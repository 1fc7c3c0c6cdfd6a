// Package register handles POST /register: account creation with consent
// to the latest terms and a verified phone.
package register

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
	"github.com/daon-labs/user-subscription-backend/internal/services/auth"
)

// Request carries the registration input. Terms and privacy consent are
// mandatory; the marketing flag is optional.
type Request struct {
	Email              string `json:"email" validate:"required,email"`
	Password           string `json:"password" validate:"required,min=8"`
	Name               string `json:"name" validate:"required"`
	Phone              string `json:"phone" validate:"required"`
	TermsAgreement     bool   `json:"terms_agreement"`
	PrivacyAgreement   bool   `json:"privacy_agreement"`
	MarketingAgreement bool   `json:"marketing_agreement"`
}

// Service registers local accounts.
type Service interface {
	Register(ctx context.Context, params auth.RegisterParams) (string, error)
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
	const op = "handlers.auth.register"

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

	if !req.TermsAgreement || !req.PrivacyAgreement {
		log.Error("mandatory consent missing")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Err("필수 약관에 동의해야 합니다."))
		return
	}

	_, err := h.service.Register(r.Context(), auth.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Phone:     req.Phone,
		Marketing: req.MarketingAgreement,
	})
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		switch {
		case errors.Is(err, auth.ErrVerificationRequired):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Err("전화번호 인증이 필요합니다."))
		case errors.Is(err, auth.ErrEmailTaken):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Err("이미 가입된 이메일입니다."))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Err("internal error"))
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{
		"message": "회원가입이 완료되었습니다.",
		"email":   req.Email,
		"name":    req.Name,
	})
}
