package emailcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) EmailAvailable(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestEmailCheckHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name          string
		requestBody   any
		mockSetup     func(m *ServiceMock)
		wantStatus    int
		wantAvailable *bool
		wantMessage   string
	}{
		{
			name:        "email available",
			requestBody: Request{Email: "new@example.com"},
			mockSetup: func(m *ServiceMock) {
				m.On("EmailAvailable", mock.Anything, "new@example.com").Return(true, nil).Once()
			},
			wantStatus:    http.StatusOK,
			wantAvailable: boolPtr(true),
			wantMessage:   "가입 가능한 이메일입니다.",
		},
		{
			name:        "email taken",
			requestBody: Request{Email: "taken@example.com"},
			mockSetup: func(m *ServiceMock) {
				m.On("EmailAvailable", mock.Anything, "taken@example.com").Return(false, nil).Once()
			},
			wantStatus:    http.StatusOK,
			wantAvailable: boolPtr(false),
			wantMessage:   "이미 가입된 이메일입니다.",
		},
		{
			name:        "not an email",
			requestBody: Request{Email: "not-an-email"},
			mockSetup:   func(m *ServiceMock) {},
			wantStatus:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			tt.mockSetup(serviceMock)

			handler := New(newNoopLogger(), serviceMock)

			body, err := json.Marshal(tt.requestBody)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/email/check", bytes.NewReader(body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)

			var resp struct {
				Available *bool  `json:"available"`
				Message   string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			if tt.wantAvailable != nil {
				require.NotNil(t, resp.Available)
				assert.Equal(t, *tt.wantAvailable, *resp.Available)
				assert.Equal(t, tt.wantMessage, resp.Message)
			}
			serviceMock.AssertExpectations(t)
		})
	}
}

func boolPtr(b bool) *bool { return &b }
