package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/daon-labs/user-subscription-backend/internal/models"
)

// CreateSubscription inserts a subscription and returns it with the
// database-assigned id and start date.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"

	query := `INSERT INTO subscriptions (user_uid, next_bill_date, auto_renew, cancelled_reason)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, start_date;`
	if err := s.Db.QueryRow(ctx, query,
		sub.UserUID, sub.NextBillDate, sub.AutoRenew, sub.CancelledReason).
		Scan(&sub.ID, &sub.StartDate); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// GetSubscriptionByUser returns the user's most recent subscription or
// ErrSubscriptionNotFound.
func (s *Storage) GetSubscriptionByUser(ctx context.Context, useruid string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByUser"

	query := `SELECT id, user_uid, start_date, end_date, next_bill_date,
			      remaining_bill_seconds, auto_renew, cancelled_reason, other_reason
			  FROM subscriptions
			  WHERE user_uid = $1
			  ORDER BY start_date DESC
			  LIMIT 1`
	sub := &models.Subscription{}
	var remainingSeconds *int64
	if err := s.Db.QueryRow(ctx, query, useruid).Scan(&sub.ID, &sub.UserUID,
		&sub.StartDate, &sub.EndDate, &sub.NextBillDate, &remainingSeconds,
		&sub.AutoRenew, &sub.CancelledReason, &sub.OtherReason); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if remainingSeconds != nil {
		d := time.Duration(*remainingSeconds) * time.Second
		sub.RemainingBill = &d
	}
	return sub, nil
}

// UpdateSubscription persists the mutable fields of a subscription.
func (s *Storage) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.UpdateSubscription"

	var remainingSeconds *int64
	if sub.RemainingBill != nil {
		v := int64(sub.RemainingBill.Seconds())
		remainingSeconds = &v
	}
	query := `UPDATE subscriptions
			  SET end_date = $1, next_bill_date = $2, remaining_bill_seconds = $3,
			      auto_renew = $4, cancelled_reason = $5, other_reason = $6
			  WHERE id = $7`
	commandTag, err := s.Db.Exec(ctx, query, sub.EndDate, sub.NextBillDate,
		remainingSeconds, sub.AutoRenew, sub.CancelledReason, sub.OtherReason, sub.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if commandTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
	}
	return nil
}

// ListSubscriptionsDue returns the uids of users whose auto-renewing
// subscription has a next bill date at or before now.
func (s *Storage) ListSubscriptionsDue(ctx context.Context, now time.Time) ([]string, error) {
	const op = "storage.ListSubscriptionsDue"

	query := `SELECT user_uid
			  FROM subscriptions
			  WHERE end_date IS NULL
			    AND auto_renew = TRUE
			    AND next_bill_date IS NOT NULL
			    AND next_bill_date <= $1`
	rows, err := s.Db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		uids = append(uids, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return uids, nil
}

// CreateSubscriptionHistory appends one status-change event.
func (s *Storage) CreateSubscriptionHistory(ctx context.Context, h models.SubscriptionHistory) error {
	const op = "storage.CreateSubscriptionHistory"

	query := `INSERT INTO subscription_histories (user_uid, subscription_id, change_date, status)
			  VALUES ($1, $2, $3, $4)`
	if _, err := s.Db.Exec(ctx, query,
		h.UserUID, h.SubscriptionID, h.ChangeDate, h.Status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListSubscriptionHistory returns the user's status-change events,
// newest first.
func (s *Storage) ListSubscriptionHistory(ctx context.Context, useruid string) ([]*models.SubscriptionHistory, error) {
	const op = "storage.ListSubscriptionHistory"

	query := `SELECT id, user_uid, subscription_id, change_date, status
			  FROM subscription_histories
			  WHERE user_uid = $1
			  ORDER BY change_date DESC`
	rows, err := s.Db.Query(ctx, query, useruid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.SubscriptionHistory
	for rows.Next() {
		var h models.SubscriptionHistory
		if err := rows.Scan(&h.ID, &h.UserUID, &h.SubscriptionID, &h.ChangeDate, &h.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
