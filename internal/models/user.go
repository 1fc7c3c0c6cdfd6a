// Package models contains the domain structures shared by the services
// and the storage layer.
package models

import "time"

// Auth provider tags for User.Provider.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User is a registered account. PasswordHash and Phone are nil for
// OAuth-only accounts.
type User struct {
	UID          string
	Email        string
	PasswordHash *string
	Name         string
	Phone        *string
	Provider     string
	ImgURL       *string
	CreatedAt    time.Time
}

// Agreement records the user's consent to a terms version. Created once,
// atomically with the user, and never updated.
type Agreement struct {
	ID        int64
	UserUID   string
	TermsURL  string
	AgreedAt  time.Time
	Marketing bool
}

// Terms is one published version of the legal terms document.
type Terms struct {
	ID        int64
	CreatedAt time.Time
}

// SessionEntry is the cached token pair for a user, keyed by
// "user_token:<uid>" with a TTL equal to the refresh-token lifetime.
type SessionEntry struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
