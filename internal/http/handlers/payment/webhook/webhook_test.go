package webhook

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/paymentprovider"
	paymentservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/payment"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) HandleWebhook(ctx context.Context, n paymentprovider.WebhookNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWebhookHandler(t *testing.T) {
	body := `{"order_id": "code-1", "transaction_status": "settlement", "status_code": "200", "gross_amount": "99000.00", "signature_key": "sig"}`

	tests := []struct {
		name           string
		body           string
		setupMock      func(service *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "notification processed",
			body: body,
			setupMock: func(service *MockService) {
				service.On("HandleWebhook", mock.Anything, mock.MatchedBy(func(n paymentprovider.WebhookNotification) bool {
					return n.OrderID == "code-1" && n.TransactionStatus == paymentprovider.StatusSettlement
				})).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"OK"`,
		},
		{
			name: "bad signature",
			body: body,
			setupMock: func(service *MockService) {
				service.On("HandleWebhook", mock.Anything, mock.Anything).Return(paymentservice.ErrBadSignature)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   "invalid signature",
		},
		{
			name: "unknown order",
			body: body,
			setupMock: func(service *MockService) {
				service.On("HandleWebhook", mock.Anything, mock.Anything).Return(paymentservice.ErrSubscriptionMissing)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "subscription not found",
		},
		{
			name: "internal error triggers provider retry",
			body: body,
			setupMock: func(service *MockService) {
				service.On("HandleWebhook", mock.Anything, mock.Anything).Return(assert.AnError)
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "could not handle notification",
		},
		{
			name:           "invalid json",
			body:           `{`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			tt.setupMock(service)

			handler := New(newNoopLogger(), service)

			req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			service.AssertExpectations(t)
		})
	}
}
