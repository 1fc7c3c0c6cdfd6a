// Package create handles POST /subscriptions: it opens a subscription
// for the authenticated user, billed monthly from now.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daon-labs/user-subscription-backend/internal/http/middlewarectx"
	"github.com/daon-labs/user-subscription-backend/internal/http/response"
	"github.com/daon-labs/user-subscription-backend/internal/lib/sl"
	"github.com/daon-labs/user-subscription-backend/internal/models"
)

type Request struct {
	AutoRenew bool `json:"auto_renew"`
}

// Service opens subscriptions.
type Service interface {
	Create(ctx context.Context, useruid string, autoRenew bool) (*models.Subscription, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.create"

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

	sub, err := h.service.Create(r.Context(), useruid, req.AutoRenew)
	if err != nil {
		log.Error("failed to create subscription", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Err("internal error"))
		return
	}

	log.Info("subscription created", slog.Int64("subscription_id", sub.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{
		"message":        "구독이 시작되었습니다.",
		"id":             sub.ID,
		"start_date":     sub.StartDate,
		"next_bill_date": sub.NextBillDate,
		"auto_renew":     sub.AutoRenew,
	})
}
