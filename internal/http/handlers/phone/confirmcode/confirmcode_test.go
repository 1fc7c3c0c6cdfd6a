package confirmcode

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

func (m *ServiceMock) ConfirmCode(ctx context.Context, phone, code string) error {
	return m.Called(ctx, phone, code).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestConfirmCodeHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name        string
		requestBody any
		mockSetup   func(m *ServiceMock)
		wantStatus  int
		wantMessage string
		wantError   string
	}{
		{
			name:        "code confirmed",
			requestBody: Request{Phone: "010-1234-5678", Code: "042031"},
			mockSetup: func(m *ServiceMock) {
				m.On("ConfirmCode", mock.Anything, "010-1234-5678", "042031").Return(nil).Once()
			},
			wantStatus:  http.StatusOK,
			wantMessage: "인증이 완료되었습니다.",
		},
		{
			name:        "code expired",
			requestBody: Request{Phone: "010-1234-5678", Code: "042031"},
			mockSetup: func(m *ServiceMock) {
				m.On("ConfirmCode", mock.Anything, "010-1234-5678", "042031").
					Return(verification.ErrCodeExpired).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "인증번호가 만료되었습니다.",
		},
		{
			name:        "code mismatch",
			requestBody: Request{Phone: "010-1234-5678", Code: "000000"},
			mockSetup: func(m *ServiceMock) {
				m.On("ConfirmCode", mock.Anything, "010-1234-5678", "000000").
					Return(verification.ErrCodeMismatch).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "잘못된 인증번호입니다.",
		},
		{
			name:        "missing code",
			requestBody: Request{Phone: "010-1234-5678"},
			mockSetup:   func(m *ServiceMock) {},
			wantStatus:  http.StatusBadRequest,
			wantError:   "field Code is a required field",
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

			req := httptest.NewRequest(http.MethodPost, "/phone/verify/confirm", bytes.NewReader(body))
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
