package requestcode

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

	"github.com/daon-labs/user-subscription-backend/internal/services/verification"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) RequestCode(ctx context.Context, phone string) error {
	return m.Called(ctx, phone).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRequestCodeHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name        string
		requestBody any
		mockSetup   func(m *ServiceMock)
		wantStatus  int
		wantMessage string
		wantError   string
	}{
		{
			name:        "code sent",
			requestBody: Request{Phone: "010-1234-5678"},
			mockSetup: func(m *ServiceMock) {
				m.On("RequestCode", mock.Anything, "010-1234-5678").Return(nil).Once()
			},
			wantStatus:  http.StatusOK,
			wantMessage: "인증번호가 발송되었습니다.",
		},
		{
			name:        "invalid json body",
			requestBody: "not a json",
			mockSetup:   func(m *ServiceMock) {},
			wantStatus:  http.StatusBadRequest,
			wantError:   "invalid request body",
		},
		{
			name:        "missing phone",
			requestBody: Request{},
			mockSetup:   func(m *ServiceMock) {},
			wantStatus:  http.StatusBadRequest,
			wantError:   "field Phone is a required field",
		},
		{
			name:        "invalid phone",
			requestBody: Request{Phone: "12345"},
			mockSetup: func(m *ServiceMock) {
				m.On("RequestCode", mock.Anything, "12345").
					Return(verification.ErrInvalidPhone).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid phone number",
		},
		{
			name:        "sms delivery failed",
			requestBody: Request{Phone: "010-1234-5678"},
			mockSetup: func(m *ServiceMock) {
				m.On("RequestCode", mock.Anything, "010-1234-5678").
					Return(verification.ErrDeliveryFailed).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "SMS 발송 실패: " + verification.ErrDeliveryFailed.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			tt.mockSetup(serviceMock)

			handler := New(newNoopLogger(), serviceMock)

			var body []byte
			switch v := tt.requestBody.(type) {
			case string:
				body = []byte(v)
			default:
				var err error
				body, err = json.Marshal(v)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/phone/verify/request", bytes.NewReader(body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, resp["message"])
			}
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp["error"])
			}
			serviceMock.AssertExpectations(t)
		})
	}
}
