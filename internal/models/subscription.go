package models

import "time"

// Cancellation reasons a subscriber can pick when cancelling.
const (
	ReasonExpensive         = "expensive"
	ReasonQuality           = "quality"
	ReasonSlowCommunication = "slow_communication"
	ReasonHireFullTime      = "hire_full_time"
	ReasonBudgetCut         = "budget_cut"
	ReasonOther             = "other"
)

// CancelReasons lists the accepted cancellation reason tags.
var CancelReasons = []string{
	ReasonExpensive,
	ReasonQuality,
	ReasonSlowCommunication,
	ReasonHireFullTime,
	ReasonBudgetCut,
	ReasonOther,
}

// IsCancelReason reports whether reason is one of the accepted tags.
func IsCancelReason(reason string) bool {
	for _, r := range CancelReasons {
		if r == reason {
			return true
		}
	}
	return false
}

// Status tags of a SubscriptionHistory event.
const (
	StatusRenewal = "renewal"
	StatusCancel  = "cancel"
	StatusPause   = "pause"
	StatusRestart = "restart"
)

// Subscription is one user's subscription record. While paused,
// NextBillDate is cleared and the time left until the next bill is kept
// in RemainingBill so Restart can re-schedule it.
type Subscription struct {
	ID              int64
	UserUID         string
	StartDate       time.Time
	EndDate         *time.Time
	NextBillDate    *time.Time
	RemainingBill   *time.Duration
	AutoRenew       bool
	CancelledReason string
	OtherReason     *string
}

// SubscriptionHistory is one append-only status-change event.
type SubscriptionHistory struct {
	ID             int64
	UserUID        string
	SubscriptionID int64
	ChangeDate     time.Time
	Status         string
}

// SubscriptionEvent is the message published to the notification exchange
// on every status change.
type SubscriptionEvent struct {
	UserUID        string    `json:"user_uid"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	SubscriptionID int64     `json:"subscription_id"`
	Status         string    `json:"status"`
	ChangeDate     time.Time `json:"change_date"`
}
