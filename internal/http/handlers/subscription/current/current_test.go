package current

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Current(ctx context.Context, userUID string) (*models.SubscriptionInfo, error) {
	args := m.Called(ctx, userUID)
	if info, ok := args.Get(0).(*models.SubscriptionInfo); ok {
		return info, args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCurrentHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		withUser       bool
		setupMock      func(service *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "active subscription",
			withUser: true,
			setupMock: func(service *MockService) {
				service.On("Current", mock.Anything, "uid-1").Return(&models.SubscriptionInfo{
					Code:          "code-1",
					PlanName:      "Basic",
					PlanSlug:      "basic",
					Status:        models.StatusActive,
					StartsAt:      now.AddDate(0, -1, 0),
					EndsAt:        now.AddDate(0, 0, 10),
					DaysRemaining: 10,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"plan_slug":"basic"`,
		},
		{
			name:     "no subscription",
			withUser: true,
			setupMock: func(service *MockService) {
				service.On("Current", mock.Anything, "uid-1").Return(nil, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"subscription":null`,
		},
		{
			name:     "storage failure",
			withUser: true,
			setupMock: func(service *MockService) {
				service.On("Current", mock.Anything, "uid-1").Return(nil, assert.AnError)
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "could not get current subscription",
		},
		{
			name:           "no user in context",
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

			req := httptest.NewRequest(http.MethodGet, "/api/subscription/current", nil)
			if tt.withUser {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "uid-1"))
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			service.AssertExpectations(t)
		})
	}
}
