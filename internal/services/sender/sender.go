// Package sender turns subscription status events into notification
// emails for the affected user.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/daon-labs/user-subscription-backend/internal/lib/sl"
	"github.com/daon-labs/user-subscription-backend/internal/lib/smtp"
	"github.com/daon-labs/user-subscription-backend/internal/models"
)

// SenderService consumes status events from the broker and mails the user.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService creates a SenderService over the given mail transport.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendSubscriptionStatusChange handles one message from the status queue.
func (s *SenderService) SendSubscriptionStatusChange(body []byte) error {
	var event models.SubscriptionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject, bodyText, err := composeStatusEmail(event)
	if err != nil {
		s.log.Error("failed to compose email", sl.Err(err))
		return err
	}

	return s.sendEmail([]string{event.Email}, subject, bodyText)
}

func composeStatusEmail(event models.SubscriptionEvent) (subject, bodyText string, err error) {
	name := event.Name
	if name == "" {
		name = "회원"
	}
	when := event.ChangeDate.Format("2006-01-02")

	switch event.Status {
	case models.StatusRenewal:
		subject = "구독이 갱신되었습니다"
		bodyText = fmt.Sprintf("%s님, 구독이 %s에 갱신되었습니다. 계속 이용해 주셔서 감사합니다.", name, when)
	case models.StatusCancel:
		subject = "구독이 취소되었습니다"
		bodyText = fmt.Sprintf("%s님, 구독이 %s에 취소되었습니다. 언제든 다시 찾아 주세요.", name, when)
	case models.StatusPause:
		subject = "구독이 일시정지되었습니다"
		bodyText = fmt.Sprintf("%s님, 구독이 %s에 일시정지되었습니다. 남은 기간은 재시작 시 이어집니다.", name, when)
	case models.StatusRestart:
		subject = "구독이 재시작되었습니다"
		bodyText = fmt.Sprintf("%s님, 구독이 %s에 재시작되었습니다.", name, when)
	default:
		return "", "", fmt.Errorf("unknown subscription status: %q", event.Status)
	}
	return subject, bodyText, nil
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
