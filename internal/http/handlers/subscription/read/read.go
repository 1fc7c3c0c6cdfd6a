// Package read handles GET /subscriptions: the authenticated user's
// current subscription.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daon-labs/user-subscription-backend/internal/http/middlewarectx"
	"github.com/daon-labs/user-subscription-backend/internal/http/response"
	"github.com/daon-labs/user-subscription-backend/internal/lib/sl"
	"github.com/daon-labs/user-subscription-backend/internal/models"
	"github.com/daon-labs/user-subscription-backend/internal/services/subscription"
)

// Response mirrors the subscription record. RemainingBillSeconds is set
// only while the subscription is paused.
type Response struct {
	ID                   int64      `json:"id"`
	StartDate            time.Time  `json:"start_date"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	NextBillDate         *time.Time `json:"next_bill_date,omitempty"`
	RemainingBillSeconds *int64     `json:"remaining_bill_seconds,omitempty"`
	AutoRenew            bool       `json:"auto_renew"`
	CancelledReason      string     `json:"cancelled_reason,omitempty"`
	OtherReason          *string    `json:"other_reason,omitempty"`
}

// Service reads subscriptions.
type Service interface {
	Get(ctx context.Context, useruid string) (*models.Subscription, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.read"

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

	sub, err := h.service.Get(r.Context(), useruid)
	if err != nil {
		log.Error("failed to read subscription", sl.Err(err))
		if errors.Is(err, subscription.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Err("구독 정보가 없습니다."))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Err("internal error"))
		return
	}

	resp := Response{
		ID:              sub.ID,
		StartDate:       sub.StartDate,
		EndDate:         sub.EndDate,
		NextBillDate:    sub.NextBillDate,
		AutoRenew:       sub.AutoRenew,
		CancelledReason: sub.CancelledReason,
		OtherReason:     sub.OtherReason,
	}
	if sub.RemainingBill != nil {
		secs := int64(sub.RemainingBill.Seconds())
		resp.RemainingBillSeconds = &secs
	}
	render.JSON(w, r, resp)
}
