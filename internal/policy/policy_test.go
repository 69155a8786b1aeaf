package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/config"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

// MockSubscriptionStore реализует интерфейс policy.SubscriptionStore
type MockSubscriptionStore struct {
	mock.Mock
}

func (m *MockSubscriptionStore) FindActiveSubscription(ctx context.Context, userUID string, now time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, userUID, now)
	sub, _ := args.Get(0).(*models.Subscription)
	return sub, args.Error(1)
}

func (m *MockSubscriptionStore) FindLatestPendingSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	sub, _ := args.Get(0).(*models.Subscription)
	return sub, args.Error(1)
}

func (m *MockSubscriptionStore) FindRecentlyActiveSubscription(ctx context.Context, userUID string, cutoff time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, userUID, cutoff)
	sub, _ := args.Get(0).(*models.Subscription)
	return sub, args.Error(1)
}

// MockEmploymentStore реализует интерфейс policy.EmploymentStore
type MockEmploymentStore struct {
	mock.Mock
}

func (m *MockEmploymentStore) FindActiveEmployment(ctx context.Context, userUID string) (*models.Employment, error) {
	args := m.Called(ctx, userUID)
	emp, _ := args.Get(0).(*models.Employment)
	return emp, args.Error(1)
}

var testExemptRoutes = []config.ExemptRoute{
	{Method: "POST", Pattern: "api/v1/subscriptions/subscribe"},
	{Method: "GET", Pattern: "api/v1/subscriptions/current"},
	{Method: "GET", Pattern: "api/v1/subscriptions/payment-token/*"},
	{Method: "POST", Pattern: "api/v1/businesses"},
}

func activeSub(endsAt time.Time) *models.Subscription {
	return &models.Subscription{ID: 1, Code: "sub-code", UserUID: "owner-uid", Status: models.StatusActive, EndsAt: endsAt}
}

func TestEvaluate_Owner(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	owner := models.User{UID: "owner-uid", Role: models.RoleOwner}

	tests := []struct {
		name       string
		setupSubs  func(m *MockSubscriptionStore)
		wantEffect Effect
		wantReason Reason
		wantDays   int
	}{
		{
			name: "active subscription with more than three days left",
			setupSubs: func(m *MockSubscriptionStore) {
				m.On("FindActiveSubscription", mock.Anything, "owner-uid", now).
					Return(activeSub(now.AddDate(0, 1, 0)), nil)
			},
			wantEffect: EffectAllow,
		},
		{
			name: "subscription expires in two days, warning",
			setupSubs: func(m *MockSubscriptionStore) {
				m.On("FindActiveSubscription", mock.Anything, "owner-uid", now).
					Return(activeSub(now.AddDate(0, 0, 2)), nil)
			},
			wantEffect: EffectWarn,
			wantDays:   2,
		},
		{
			name: "subscription expires in exactly three days, warning",
			setupSubs: func(m *MockSubscriptionStore) {
				m.On("FindActiveSubscription", mock.Anything, "owner-uid", now).
					Return(activeSub(now.AddDate(0, 0, 3)), nil)
			},
			wantEffect: EffectWarn,
			wantDays:   3,
		},
		{
			name: "no subscriptions at all",
			setupSubs: func(m *MockSubscriptionStore) {
				m.On("FindActiveSubscription", mock.Anything, "owner-uid", now).
					Return(nil, nil)
				m.On("FindLatestPendingSubscription", mock.Anything, "owner-uid").
					Return(nil, nil)
			},
			wantEffect: EffectDeny,
			wantReason: ReasonSubscriptionRequired,
		},
		{
			name: "only pending_payment without recently active",
			setupSubs: func(m *MockSubscriptionStore) {
				m.On("FindActiveSubscription", mock.Anything, "owner-uid", now).
					Return(nil, nil)
				m.On("FindLatestPendingSubscription", mock.Anything, "owner-uid").
					Return(&models.Subscription{ID: 2, Status: models.StatusPendingPayment}, nil)
				m.On("FindRecentlyActiveSubscription", mock.Anything, "owner-uid", now.AddDate(0, 0, -7)).
					Return(nil, nil)
			},
			wantEffect: EffectDeny,
			wantReason: ReasonSubscriptionPending,
		},
		{
			name: "grace period: expired two days ago, payment in progress",
			setupSubs: func(m *MockSubscriptionStore) {
				m.On("FindActiveSubscription", mock.Anything, "owner-uid", now).
					Return(nil, nil)
				m.On("FindLatestPendingSubscription", mock.Anything, "owner-uid").
					Return(&models.Subscription{ID: 2, Status: models.StatusPendingPayment}, nil)
				m.On("FindRecentlyActiveSubscription", mock.Anything, "owner-uid", now.AddDate(0, 0, -7)).
					Return(activeSub(now.AddDate(0, 0, -2)), nil)
			},
			wantEffect: EffectAllow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := new(MockSubscriptionStore)
			tt.setupSubs(subs)
			evaluator := NewEvaluator(subs, new(MockEmploymentStore), NewExemptList(testExemptRoutes), 7, 3)

			decision, err := evaluator.Evaluate(context.Background(), owner, "api/v1/sales/stats", "GET", now)

			require.NoError(t, err)
			assert.Equal(t, tt.wantEffect, decision.Effect)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, decision.Reason)
				assert.NotEmpty(t, decision.Message)
				assert.NotEmpty(t, decision.RedirectTo)
			}
			if tt.wantDays != 0 {
				assert.Equal(t, tt.wantDays, decision.DaysRemaining)
			}
			subs.AssertExpectations(t)
		})
	}
}

func TestEvaluate_GracePeriodBoundary(t *testing.T) {
	// истечение 8 дней назад — за границей семидневного окна
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	owner := models.User{UID: "owner-uid", Role: models.RoleOwner}

	subs := new(MockSubscriptionStore)
	subs.On("FindActiveSubscription", mock.Anything, "owner-uid", now).Return(nil, nil)
	subs.On("FindLatestPendingSubscription", mock.Anything, "owner-uid").
		Return(&models.Subscription{ID: 2, Status: models.StatusPendingPayment}, nil)
	// хранилище само применяет cutoff: подписка с ends_at = now-8d не находится
	subs.On("FindRecentlyActiveSubscription", mock.Anything, "owner-uid", now.AddDate(0, 0, -7)).
		Return(nil, nil)

	evaluator := NewEvaluator(subs, new(MockEmploymentStore), NewExemptList(testExemptRoutes), 7, 3)
	decision, err := evaluator.Evaluate(context.Background(), owner, "api/v1/sales/stats", "GET", now)

	require.NoError(t, err)
	assert.Equal(t, EffectDeny, decision.Effect)
	assert.Equal(t, ReasonSubscriptionPending, decision.Reason)
	subs.AssertExpectations(t)
}

func TestEvaluate_Employee(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	kasir := models.User{UID: "kasir-uid", Role: models.RoleKasir}

	tests := []struct {
		name        string
		setupStores func(subs *MockSubscriptionStore, employments *MockEmploymentStore)
		wantEffect  Effect
		wantReason  Reason
	}{
		{
			name: "owner has active subscription",
			setupStores: func(subs *MockSubscriptionStore, employments *MockEmploymentStore) {
				employments.On("FindActiveEmployment", mock.Anything, "kasir-uid").
					Return(&models.Employment{BusinessID: 1, OwnerUID: "owner-uid"}, nil)
				subs.On("FindActiveSubscription", mock.Anything, "owner-uid", now).
					Return(activeSub(now.AddDate(0, 1, 0)), nil)
			},
			wantEffect: EffectAllow,
		},
		{
			name: "owner subscription expired",
			setupStores: func(subs *MockSubscriptionStore, employments *MockEmploymentStore) {
				employments.On("FindActiveEmployment", mock.Anything, "kasir-uid").
					Return(&models.Employment{BusinessID: 1, OwnerUID: "owner-uid"}, nil)
				subs.On("FindActiveSubscription", mock.Anything, "owner-uid", now).
					Return(nil, nil)
			},
			wantEffect: EffectDeny,
			wantReason: ReasonSubscriptionExpired,
		},
		{
			name: "no active business assignment",
			setupStores: func(_ *MockSubscriptionStore, employments *MockEmploymentStore) {
				employments.On("FindActiveEmployment", mock.Anything, "kasir-uid").
					Return(nil, nil)
			},
			wantEffect: EffectDeny,
			wantReason: ReasonEmployeeBusinessMissing,
		},
		{
			name: "business owner not found",
			setupStores: func(_ *MockSubscriptionStore, employments *MockEmploymentStore) {
				employments.On("FindActiveEmployment", mock.Anything, "kasir-uid").
					Return(&models.Employment{BusinessID: 1, OwnerUID: ""}, nil)
			},
			wantEffect: EffectDeny,
			wantReason: ReasonOwnerMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := new(MockSubscriptionStore)
			employments := new(MockEmploymentStore)
			tt.setupStores(subs, employments)
			evaluator := NewEvaluator(subs, employments, NewExemptList(testExemptRoutes), 7, 3)

			decision, err := evaluator.Evaluate(context.Background(), kasir, "api/v1/sales/orders", "GET", now)

			require.NoError(t, err)
			assert.Equal(t, tt.wantEffect, decision.Effect)
			assert.Equal(t, tt.wantReason, decision.Reason)
			subs.AssertExpectations(t)
			employments.AssertExpectations(t)
		})
	}
}

func TestEvaluate_ExemptRoute(t *testing.T) {
	// освобождённый маршрут пропускается независимо от состояния подписки:
	// хранилища не опрашиваются вовсе
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	owner := models.User{UID: "owner-uid", Role: models.RoleOwner}

	subs := new(MockSubscriptionStore)
	employments := new(MockEmploymentStore)
	evaluator := NewEvaluator(subs, employments, NewExemptList(testExemptRoutes), 7, 3)

	decision, err := evaluator.Evaluate(context.Background(), owner, "api/v1/subscriptions/current", "GET", now)

	require.NoError(t, err)
	assert.Equal(t, EffectAllow, decision.Effect)
	subs.AssertExpectations(t)
	employments.AssertExpectations(t)
}

func TestEvaluate_OtherRoleAllowed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user := models.User{UID: "svc-uid", Role: "integration"}

	evaluator := NewEvaluator(new(MockSubscriptionStore), new(MockEmploymentStore), NewExemptList(nil), 7, 3)
	decision, err := evaluator.Evaluate(context.Background(), user, "api/v1/sales/stats", "GET", now)

	require.NoError(t, err)
	assert.Equal(t, EffectAllow, decision.Effect)
}

func TestEvaluate_StoreFailurePropagates(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	owner := models.User{UID: "owner-uid", Role: models.RoleOwner}

	subs := new(MockSubscriptionStore)
	subs.On("FindActiveSubscription", mock.Anything, "owner-uid", now).
		Return(nil, errors.New("connection refused"))

	evaluator := NewEvaluator(subs, new(MockEmploymentStore), NewExemptList(nil), 7, 3)
	_, err := evaluator.Evaluate(context.Background(), owner, "api/v1/sales/stats", "GET", now)

	assert.Error(t, err)
}

func TestEvaluate_Idempotent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	owner := models.User{UID: "owner-uid", Role: models.RoleOwner}

	subs := new(MockSubscriptionStore)
	subs.On("FindActiveSubscription", mock.Anything, "owner-uid", now).
		Return(activeSub(now.AddDate(0, 0, 2)), nil)

	evaluator := NewEvaluator(subs, new(MockEmploymentStore), NewExemptList(testExemptRoutes), 7, 3)

	first, err := evaluator.Evaluate(context.Background(), owner, "api/v1/sales/stats", "GET", now)
	require.NoError(t, err)
	second, err := evaluator.Evaluate(context.Background(), owner, "api/v1/sales/stats", "GET", now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
