package subscribe

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

	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
	subservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/subscription"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Subscribe(ctx context.Context, user models.User, planSlug string) (*models.PaymentToken, error) {
	args := m.Called(ctx, user, planSlug)
	if token, ok := args.Get(0).(*models.PaymentToken); ok {
		return token, args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubscribeHandler(t *testing.T) {
	owner := models.User{UID: "uid-1", Username: "budi", Email: "budi@example.com", Role: models.RoleOwner}

	tests := []struct {
		name           string
		body           string
		withUser       bool
		setupMock      func(service *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "success",
			body:     `{"plan_slug": "basic"}`,
			withUser: true,
			setupMock: func(service *MockService) {
				service.On("Subscribe", mock.Anything, owner, "basic").Return(&models.PaymentToken{
					SubscriptionCode: "code-1",
					Token:            "snap-token",
					RedirectURL:      "https://pay.example.com/snap-token",
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"subscription_code":"code-1"`,
		},
		{
			name:     "plan not found",
			body:     `{"plan_slug": "unknown"}`,
			withUser: true,
			setupMock: func(service *MockService) {
				service.On("Subscribe", mock.Anything, owner, "unknown").Return(nil, subservice.ErrPlanNotFound)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "plan not found",
		},
		{
			name:     "trial plan is not purchasable",
			body:     `{"plan_slug": "trial"}`,
			withUser: true,
			setupMock: func(service *MockService) {
				service.On("Subscribe", mock.Anything, owner, "trial").Return(nil, subservice.ErrTrialNotPurchasable)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "trial plan is not purchasable",
		},
		{
			name:           "invalid json",
			body:           `{`,
			withUser:       true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid request body",
		},
		{
			name:           "missing plan slug",
			body:           `{}`,
			withUser:       true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "required field",
		},
		{
			name:           "no user in context",
			body:           `{"plan_slug": "basic"}`,
			withUser:       false,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			tt.setupMock(service)

			handler := New(newNoopLogger(), service)

			req := httptest.NewRequest(http.MethodPost, "/api/subscription/subscribe", bytes.NewBufferString(tt.body))
			if tt.withUser {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserModel, owner))
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			service.AssertExpectations(t)
		})
	}
}
