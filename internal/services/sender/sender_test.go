package sender

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/daon-labs/user-subscription-backend/internal/lib/smtp"
	"github.com/daon-labs/user-subscription-backend/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	return m.Called().String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	return m.Called(from).Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	return m.Called(to).Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	return m.Called().Error(0)
}

func (m *MockSMTPClient) Quit() error {
	return m.Called().Error(0)
}

type captureWriter struct {
	data []byte
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	return len(p), nil
}

func (w *captureWriter) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func eventBody(t *testing.T, status string) []byte {
	t.Helper()
	body, err := json.Marshal(models.SubscriptionEvent{
		UserUID:        "uid-1",
		Email:          "user@example.com",
		Name:           "홍길동",
		SubscriptionID: 7,
		Status:         status,
		ChangeDate:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return body
}

func TestSendSubscriptionStatusChange_Cancel(t *testing.T) {
	transport := new(MockTransport)
	client := new(MockSMTPClient)
	writer := &captureWriter{}

	transport.On("GetSMTPUser").Return("noreply@example.com")
	transport.On("Connect").Return(client, nil).Once()
	client.On("Mail", "noreply@example.com").Return(nil).Once()
	client.On("Rcpt", "user@example.com").Return(nil).Once()
	client.On("Data").Return(writer, nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()

	svc := NewSenderService(discardLogger(), transport)
	err := svc.SendSubscriptionStatusChange(eventBody(t, models.StatusCancel))
	require.NoError(t, err)

	msg := string(writer.data)
	assert.Contains(t, msg, "Subject: 구독이 취소되었습니다")
	assert.Contains(t, msg, "홍길동님")
	assert.Contains(t, msg, "2026-03-01")
	assert.True(t, strings.HasPrefix(msg, "From: noreply@example.com"))

	transport.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestSendSubscriptionStatusChange_UnknownStatus(t *testing.T) {
	transport := new(MockTransport)

	svc := NewSenderService(discardLogger(), transport)
	err := svc.SendSubscriptionStatusChange(eventBody(t, "unknown"))
	assert.Error(t, err)
	transport.AssertNotCalled(t, "Connect")
}

func TestSendSubscriptionStatusChange_InvalidJSON(t *testing.T) {
	transport := new(MockTransport)

	svc := NewSenderService(discardLogger(), transport)
	err := svc.SendSubscriptionStatusChange([]byte("{not json"))
	assert.Error(t, err)
}

func TestSendSubscriptionStatusChange_ConnectError(t *testing.T) {
	transport := new(MockTransport)
	transport.On("GetSMTPUser").Return("noreply@example.com")
	transport.On("Connect").Return(nil, errors.New("dial refused")).Once()

	svc := NewSenderService(discardLogger(), transport)
	err := svc.SendSubscriptionStatusChange(eventBody(t, models.StatusRenewal))
	assert.Error(t, err)
	transport.AssertExpectations(t)
}
