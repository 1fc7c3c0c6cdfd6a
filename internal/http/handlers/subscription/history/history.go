// Package history handles GET /subscriptions/history: the append-only
// status-change events of the authenticated user, newest first.
package history

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daon-labs/user-subscription-backend/internal/http/middlewarectx"
	"github.com/daon-labs/user-subscription-backend/internal/http/response"
	"github.com/daon-labs/user-subscription-backend/internal/lib/sl"
	"github.com/daon-labs/user-subscription-backend/internal/models"
)

// Event is one rendered history row.
type Event struct {
	ID             int64     `json:"id"`
	SubscriptionID int64     `json:"subscription_id"`
	ChangeDate     time.Time `json:"change_date"`
	Status         string    `json:"status"`
}

// Service lists history events.
type Service interface {
	History(ctx context.Context, useruid string) ([]*models.SubscriptionHistory, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.history"

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

	events, err := h.service.History(r.Context(), useruid)
	if err != nil {
		log.Error("failed to list subscription history", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Err("internal error"))
		return
	}

	out := make([]Event, 0, len(events))
	for _, e := range events {
		out = append(out, Event{
			ID:             e.ID,
			SubscriptionID: e.SubscriptionID,
			ChangeDate:     e.ChangeDate,
			Status:         e.Status,
		})
	}
	render.JSON(w, r, out)
}
