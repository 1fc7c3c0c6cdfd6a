// Package verification implements the phone verification flow: issuing a
// one-time code over SMS and confirming it against the verification cache.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/daon-labs/user-subscription-backend/internal/lib/phone"
	"github.com/daon-labs/user-subscription-backend/internal/lib/sl"
)

// Cache keys are built from the RAW local-format phone number; the E.164
// form is only used for the SMS dispatch.
const (
	codeKeyPrefix     = "phone_verification:"
	verifiedKeyPrefix = "phone_verified:"

	codeTTL     = 300 * time.Second
	verifiedTTL = 86400 * time.Second
)

// Sentinel errors of the verification flow.
var (
	ErrInvalidPhone   = errors.New("invalid phone number")
	ErrCodeExpired    = errors.New("verification code expired")
	ErrCodeMismatch   = errors.New("verification code mismatch")
	ErrDeliveryFailed = errors.New("sms delivery failed")
)

var smsSendTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "verification_sms_send_total",
	Help: "Verification SMS dispatch attempts by result.",
}, []string{"result"})

// TTLStore is the key-value cache the flow runs against.
type TTLStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, expiration time.Duration) error
}

// SMSSender dispatches a text message to an E.164 number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Service implements RequestCode and ConfirmCode.
type Service struct {
	cache TTLStore
	sms   SMSSender
	log   *slog.Logger
}

// New builds a verification service.
func New(cache TTLStore, sms SMSSender, log *slog.Logger) *Service {
	return &Service{cache: cache, sms: sms, log: log}
}

// RequestCode generates a 6-digit code for the phone, caches it for five
// minutes and dispatches it over SMS. The cache write happens before the
// dispatch: a failed delivery leaves the code valid and is reported as
// ErrDeliveryFailed.
func (s *Service) RequestCode(ctx context.Context, rawPhone string) error {
	const op = "verification.RequestCode"

	formatted, err := phone.ToE164(rawPhone)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidPhone)
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(ctx, codeKeyPrefix+rawPhone, code, codeTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sms.SendSMS(ctx, formatted, "인증번호: "+code); err != nil {
		smsSendTotal.WithLabelValues("failure").Inc()
		s.log.Error("failed to send verification sms", slog.String("phone", rawPhone), sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, ErrDeliveryFailed, err)
	}
	smsSendTotal.WithLabelValues("success").Inc()

	s.log.Info("verification code sent", slog.String("phone", rawPhone))
	return nil
}

// ConfirmCode compares the supplied code with the cached one. Exact string
// equality only. On a match the phone gets a "verified" marker for 24
// hours; the code entry itself is left in place until its own TTL lapses.
func (s *Service) ConfirmCode(ctx context.Context, rawPhone, code string) error {
	const op = "verification.ConfirmCode"

	stored, found, err := s.cache.Get(ctx, codeKeyPrefix+rawPhone)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return fmt.Errorf("%s: %w", op, ErrCodeExpired)
	}
	if code != stored {
		return fmt.Errorf("%s: %w", op, ErrCodeMismatch)
	}

	if err := s.cache.Set(ctx, verifiedKeyPrefix+rawPhone, "true", verifiedTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("phone verified", slog.String("phone", rawPhone))
	return nil
}

// IsVerified reports whether the phone carries a live verified marker.
func (s *Service) IsVerified(ctx context.Context, rawPhone string) (bool, error) {
	const op = "verification.IsVerified"

	val, found, err := s.cache.Get(ctx, verifiedKeyPrefix+rawPhone)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return found && val == "true", nil
}

// generateCode draws six decimal digits uniformly, leading zeros allowed.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
