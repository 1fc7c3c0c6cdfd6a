// Package subscription implements the subscription ledger: the lifecycle
// operations and the append-only history of status changes.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/daon-labs/user-subscription-backend/internal/lib/sl"
	"github.com/daon-labs/user-subscription-backend/internal/models"
	"github.com/daon-labs/user-subscription-backend/internal/storage"
)

// Sentinel errors surfaced to the handlers.
var (
	ErrNotFound         = errors.New("subscription not found")
	ErrInvalidReason    = errors.New("invalid cancellation reason")
	ErrAlreadyCancelled = errors.New("subscription already cancelled")
	ErrNotActive        = errors.New("subscription not active")
	ErrNotPaused        = errors.New("subscription not paused")
)

// RoutingKeyStatus is the routing key of status-change events.
const RoutingKeyStatus = "subscription.status"

// Repository is the ledger-store contract.
type Repository interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	GetSubscriptionByUser(ctx context.Context, useruid string) (*models.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
	CreateSubscriptionHistory(ctx context.Context, h models.SubscriptionHistory) error
	ListSubscriptionHistory(ctx context.Context, useruid string) ([]*models.SubscriptionHistory, error)
	ListSubscriptionsDue(ctx context.Context, now time.Time) ([]string, error)
	GetUserByUID(ctx context.Context, useruid string) (*models.User, error)
}

// EventPublisher publishes status-change events for the notification sender.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// Service implements the ledger operations.
type Service struct {
	repo      Repository
	publisher EventPublisher
	log       *slog.Logger
}

// New builds a subscription service.
func New(repo Repository, publisher EventPublisher, log *slog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, log: log}
}

// Create opens a new subscription billed monthly from now.
func (s *Service) Create(ctx context.Context, useruid string, autoRenew bool) (*models.Subscription, error) {
	const op = "subscription.Create"

	nextBill := time.Now().UTC().AddDate(0, 1, 0)
	sub, err := s.repo.CreateSubscription(ctx, models.Subscription{
		UserUID:      useruid,
		NextBillDate: &nextBill,
		AutoRenew:    autoRenew,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// Get returns the user's current subscription.
func (s *Service) Get(ctx context.Context, useruid string) (*models.Subscription, error) {
	const op = "subscription.Get"

	sub, err := s.repo.GetSubscriptionByUser(ctx, useruid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, wrapNotFound(err))
	}
	return sub, nil
}

// Cancel ends the subscription with the given reason. The reason must be
// one of the accepted tags; otherReason is the optional free-text
// elaboration for the "other" tag.
func (s *Service) Cancel(ctx context.Context, useruid, reason string, otherReason *string) error {
	const op = "subscription.Cancel"

	if !models.IsCancelReason(reason) {
		return fmt.Errorf("%s: %w", op, ErrInvalidReason)
	}

	sub, err := s.repo.GetSubscriptionByUser(ctx, useruid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, wrapNotFound(err))
	}
	if sub.EndDate != nil {
		return fmt.Errorf("%s: %w", op, ErrAlreadyCancelled)
	}

	now := time.Now().UTC()
	sub.EndDate = &now
	sub.NextBillDate = nil
	sub.RemainingBill = nil
	sub.AutoRenew = false
	sub.CancelledReason = reason
	sub.OtherReason = otherReason

	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.recordChange(ctx, sub, models.StatusCancel, now)
}

// Pause suspends billing: the time left until the next bill is kept so
// Restart can re-schedule it.
func (s *Service) Pause(ctx context.Context, useruid string) error {
	const op = "subscription.Pause"

	sub, err := s.repo.GetSubscriptionByUser(ctx, useruid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, wrapNotFound(err))
	}
	if sub.EndDate != nil {
		return fmt.Errorf("%s: %w", op, ErrAlreadyCancelled)
	}
	if sub.NextBillDate == nil {
		return fmt.Errorf("%s: %w", op, ErrNotActive)
	}

	now := time.Now().UTC()
	remaining := sub.NextBillDate.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	sub.NextBillDate = nil
	sub.RemainingBill = &remaining

	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.recordChange(ctx, sub, models.StatusPause, now)
}

// Restart resumes a paused subscription, scheduling the next bill after
// the remaining duration captured at pause time.
func (s *Service) Restart(ctx context.Context, useruid string) error {
	const op = "subscription.Restart"

	sub, err := s.repo.GetSubscriptionByUser(ctx, useruid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, wrapNotFound(err))
	}
	if sub.EndDate != nil {
		return fmt.Errorf("%s: %w", op, ErrAlreadyCancelled)
	}
	if sub.RemainingBill == nil {
		return fmt.Errorf("%s: %w", op, ErrNotPaused)
	}

	now := time.Now().UTC()
	nextBill := now.Add(*sub.RemainingBill)
	sub.NextBillDate = &nextBill
	sub.RemainingBill = nil

	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.recordChange(ctx, sub, models.StatusRestart, now)
}

// Renew advances the next bill date by one month.
func (s *Service) Renew(ctx context.Context, useruid string) error {
	const op = "subscription.Renew"

	sub, err := s.repo.GetSubscriptionByUser(ctx, useruid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, wrapNotFound(err))
	}
	if sub.EndDate != nil {
		return fmt.Errorf("%s: %w", op, ErrAlreadyCancelled)
	}
	if sub.NextBillDate == nil {
		return fmt.Errorf("%s: %w", op, ErrNotActive)
	}

	now := time.Now().UTC()
	nextBill := sub.NextBillDate.AddDate(0, 1, 0)
	sub.NextBillDate = &nextBill

	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.recordChange(ctx, sub, models.StatusRenewal, now)
}

// RunRenewals renews due subscriptions once per interval until ctx is
// cancelled. A failed renewal is logged and skipped.
func (s *Service) RunRenewals(ctx context.Context, interval time.Duration) {
	s.renewDue(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.renewDue(ctx)
		}
	}
}

func (s *Service) renewDue(ctx context.Context) {
	uids, err := s.repo.ListSubscriptionsDue(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error("failed to list due subscriptions", sl.Err(err))
		return
	}
	if len(uids) == 0 {
		return
	}
	s.log.Info("renewing due subscriptions", "count", len(uids))
	for _, uid := range uids {
		if err := s.Renew(ctx, uid); err != nil {
			s.log.Error("failed to renew subscription", "user_uid", uid, sl.Err(err))
		}
	}
}

// History returns the user's status-change events, newest first.
func (s *Service) History(ctx context.Context, useruid string) ([]*models.SubscriptionHistory, error) {
	const op = "subscription.History"

	events, err := s.repo.ListSubscriptionHistory(ctx, useruid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// recordChange appends the history event and publishes the notification.
// Publishing is best effort: a broker failure is logged, not returned.
func (s *Service) recordChange(ctx context.Context, sub *models.Subscription, status string, changeDate time.Time) error {
	const op = "subscription.recordChange"

	if err := s.repo.CreateSubscriptionHistory(ctx, models.SubscriptionHistory{
		UserUID:        sub.UserUID,
		SubscriptionID: sub.ID,
		ChangeDate:     changeDate,
		Status:         status,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.repo.GetUserByUID(ctx, sub.UserUID)
	if err != nil {
		s.log.Error("failed to load user for notification", sl.Err(err))
		return nil
	}
	event := models.SubscriptionEvent{
		UserUID:        sub.UserUID,
		Email:          user.Email,
		Name:           user.Name,
		SubscriptionID: sub.ID,
		Status:         status,
		ChangeDate:     changeDate,
	}
	if err := s.publisher.Publish(RoutingKeyStatus, event); err != nil {
		s.log.Error("failed to publish subscription event", sl.Err(err))
	}
	return nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, storage.ErrSubscriptionNotFound) {
		return ErrNotFound
	}
	return err
}
