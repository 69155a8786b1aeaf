package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/jwt"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/password"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

type UsersMock struct {
	mock.Mock
}

func (m *UsersMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UsersMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

type TrialsMock struct {
	mock.Mock
}

func (m *TrialsMock) GetTrialPlan(ctx context.Context) (*models.Plan, error) {
	args := m.Called(ctx)
	if plan, ok := args.Get(0).(*models.Plan); ok {
		return plan, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TrialsMock) CreateSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	args := m.Called(ctx, sub)
	return args.Int(0), args.Error(1)
}

func newTestMaker() jwt.Maker {
	return jwt.NewMaker("test-secret-key", time.Hour)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegister(t *testing.T) {
	req := models.DummyRegister{
		Email:    "budi@example.com",
		Username: "budi",
		Password: "strongpassword",
	}

	t.Run("registers owner with trial subscription", func(t *testing.T) {
		users := new(UsersMock)
		trials := new(TrialsMock)

		users.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Username == "budi" && u.Role == models.RoleOwner && u.PasswordHash != "strongpassword"
		})).Return("uid-1", nil)
		trials.On("GetTrialPlan", mock.Anything).Return(&models.Plan{ID: 1, Slug: "trial", IsTrial: true}, nil)
		trials.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
			return sub.UserUID == "uid-1" && sub.PlanID == 1 && sub.Status == models.StatusActive
		})).Return(1, nil)

		service := NewAuthService(users, trials, newTestMaker(), newNoopLogger())
		uid, err := service.Register(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "uid-1", uid)
		trials.AssertExpectations(t)
	})

	t.Run("trial grant failure does not fail registration", func(t *testing.T) {
		users := new(UsersMock)
		trials := new(TrialsMock)

		users.On("RegisterUser", mock.Anything, mock.Anything).Return("uid-1", nil)
		trials.On("GetTrialPlan", mock.Anything).Return(&models.Plan{ID: 1, Slug: "trial", IsTrial: true}, nil)
		trials.On("CreateSubscription", mock.Anything, mock.Anything).Return(0, assert.AnError)

		service := NewAuthService(users, trials, newTestMaker(), newNoopLogger())
		uid, err := service.Register(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "uid-1", uid)
		trials.AssertExpectations(t)
	})

	t.Run("registration succeeds without trial plan", func(t *testing.T) {
		users := new(UsersMock)
		trials := new(TrialsMock)

		users.On("RegisterUser", mock.Anything, mock.Anything).Return("uid-1", nil)
		trials.On("GetTrialPlan", mock.Anything).Return(nil, nil)

		service := NewAuthService(users, trials, newTestMaker(), newNoopLogger())
		uid, err := service.Register(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "uid-1", uid)
		trials.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
	})
}

func TestLogin(t *testing.T) {
	hash, err := password.GetHash("strongpassword")
	require.NoError(t, err)

	owner := &models.User{
		UID:          "uid-1",
		Username:     "budi",
		PasswordHash: hash,
		Role:         models.RoleOwner,
	}

	tests := []struct {
		name        string
		username    string
		password    string
		setupMocks  func(users *UsersMock)
		expectedErr error
	}{
		{
			name:     "success",
			username: "budi",
			password: "strongpassword",
			setupMocks: func(users *UsersMock) {
				users.On("GetUserByUsername", mock.Anything, "budi").Return(owner, nil)
			},
		},
		{
			name:     "wrong password",
			username: "budi",
			password: "wrongpassword",
			setupMocks: func(users *UsersMock) {
				users.On("GetUserByUsername", mock.Anything, "budi").Return(owner, nil)
			},
			expectedErr: ErrInvalidCredentials,
		},
		{
			name:     "unknown user",
			username: "ghost",
			password: "strongpassword",
			setupMocks: func(users *UsersMock) {
				users.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, nil)
			},
			expectedErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UsersMock)
			tt.setupMocks(users)

			service := NewAuthService(users, new(TrialsMock), newTestMaker(), newNoopLogger())
			token, role, err := service.Login(context.Background(), tt.username, tt.password)

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.Equal(t, models.RoleOwner, role)
		})
	}
}

func TestValidateToken(t *testing.T) {
	maker := newTestMaker()
	service := NewAuthService(new(UsersMock), new(TrialsMock), maker, newNoopLogger())

	token, err := maker.GenerateToken("uid-1", "budi", models.RoleOwner)
	require.NoError(t, err)

	user, err := service.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", user.UID)
	assert.Equal(t, "budi", user.Username)
	assert.Equal(t, models.RoleOwner, user.Role)

	_, err = service.ValidateToken(context.Background(), "not-a-token")
	require.Error(t, err)
}
