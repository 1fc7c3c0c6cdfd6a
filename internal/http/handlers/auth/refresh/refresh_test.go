package refresh

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

	"github.com/daon-labs/user-subscription-backend/internal/lib/jwt"
	"github.com/daon-labs/user-subscription-backend/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	pair, _ := args.Get(0).(*jwt.TokenPair)
	return pair, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRefreshHandler_ServeHTTP(t *testing.T) {
	pair := &jwt.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}

	tests := []struct {
		name        string
		requestBody any
		mockSetup   func(m *ServiceMock)
		wantStatus  int
		wantBody    map[string]string
	}{
		{
			name:        "rotates the pair",
			requestBody: Request{RefreshToken: "refresh-1"},
			mockSetup: func(m *ServiceMock) {
				m.On("Refresh", mock.Anything, "refresh-1").Return(pair, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody: map[string]string{
				"access_token":  "access-2",
				"refresh_token": "refresh-2",
			},
		},
		{
			name:        "blacklisted token",
			requestBody: Request{RefreshToken: "refresh-1"},
			mockSetup: func(m *ServiceMock) {
				m.On("Refresh", mock.Anything, "refresh-1").
					Return(nil, auth.ErrTokenBlacklisted).Once()
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   map[string]string{"error": "invalid or expired token"},
		},
		{
			name:        "invalid token",
			requestBody: Request{RefreshToken: "garbage"},
			mockSetup: func(m *ServiceMock) {
				m.On("Refresh", mock.Anything, "garbage").
					Return(nil, auth.ErrInvalidToken).Once()
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   map[string]string{"error": "invalid or expired token"},
		},
		{
			name:        "missing token",
			requestBody: Request{},
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

			req := httptest.NewRequest(http.MethodPost, "/token/refresh", bytes.NewReader(body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			for k, v := range tt.wantBody {
				assert.Equal(t, v, resp[k])
			}
			serviceMock.AssertExpectations(t)
		})
	}
}
