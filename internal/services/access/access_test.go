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

	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) FindActiveSubscription(ctx context.Context, userUID string, now time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, userUID, now)
	if sub, ok := args.Get(0).(*models.Subscription); ok {
		return sub, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) FindLatestPendingSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	if sub, ok := args.Get(0).(*models.Subscription); ok {
		return sub, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) FindRecentlyActiveSubscription(ctx context.Context, userUID string, cutoff time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, userUID, cutoff)
	if sub, ok := args.Get(0).(*models.Subscription); ok {
		return sub, args.Error(1)
	}
	return nil, args.Error(1)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCachingStoreFindActiveSubscription(t *testing.T) {
	now := time.Now().UTC()
	cacheKey := "subscription:user:uid-1"
	activeSub := &models.Subscription{
		Code: "code-1", UserUID: "uid-1", Status: models.StatusActive,
		EndsAt: now.AddDate(0, 1, 0),
	}

	t.Run("cache miss goes to store and caches result", func(t *testing.T) {
		store := new(StoreMock)
		cache := new(CacheMock)

		cache.On("Get", cacheKey, mock.Anything).Return(false, nil)
		store.On("FindActiveSubscription", mock.Anything, "uid-1", now).Return(activeSub, nil)
		cache.On("Set", cacheKey, cachedSubscription{Subscription: activeSub}, 5*time.Minute).Return(nil)

		caching := NewCachingSubscriptionStore(store, cache, 5*time.Minute, newNoopLogger())
		sub, err := caching.FindActiveSubscription(context.Background(), "uid-1", now)

		require.NoError(t, err)
		assert.Equal(t, activeSub, sub)
		store.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache hit skips the store", func(t *testing.T) {
		store := new(StoreMock)
		cache := new(CacheMock)

		cache.On("Get", cacheKey, mock.Anything).Run(func(args mock.Arguments) {
			cached := args.Get(1).(*cachedSubscription)
			cached.Subscription = activeSub
		}).Return(true, nil)

		caching := NewCachingSubscriptionStore(store, cache, 5*time.Minute, newNoopLogger())
		sub, err := caching.FindActiveSubscription(context.Background(), "uid-1", now)

		require.NoError(t, err)
		assert.Equal(t, activeSub, sub)
		store.AssertNotCalled(t, "FindActiveSubscription", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cached absence skips the store", func(t *testing.T) {
		store := new(StoreMock)
		cache := new(CacheMock)

		cache.On("Get", cacheKey, mock.Anything).Return(true, nil)

		caching := NewCachingSubscriptionStore(store, cache, 5*time.Minute, newNoopLogger())
		sub, err := caching.FindActiveSubscription(context.Background(), "uid-1", now)

		require.NoError(t, err)
		assert.Nil(t, sub)
		store.AssertNotCalled(t, "FindActiveSubscription", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("subscription expired inside cache ttl is a miss", func(t *testing.T) {
		store := new(StoreMock)
		cache := new(CacheMock)

		staleSub := &models.Subscription{
			Code: "code-1", UserUID: "uid-1", Status: models.StatusActive,
			EndsAt: now.Add(-time.Minute),
		}
		cache.On("Get", cacheKey, mock.Anything).Run(func(args mock.Arguments) {
			cached := args.Get(1).(*cachedSubscription)
			cached.Subscription = staleSub
		}).Return(true, nil)
		store.On("FindActiveSubscription", mock.Anything, "uid-1", now).Return(nil, nil)
		cache.On("Set", cacheKey, cachedSubscription{Subscription: nil}, 5*time.Minute).Return(nil)

		caching := NewCachingSubscriptionStore(store, cache, 5*time.Minute, newNoopLogger())
		sub, err := caching.FindActiveSubscription(context.Background(), "uid-1", now)

		require.NoError(t, err)
		assert.Nil(t, sub)
		store.AssertExpectations(t)
	})

	t.Run("cache read error falls through to store", func(t *testing.T) {
		store := new(StoreMock)
		cache := new(CacheMock)

		cache.On("Get", cacheKey, mock.Anything).Return(false, assert.AnError)
		store.On("FindActiveSubscription", mock.Anything, "uid-1", now).Return(activeSub, nil)
		cache.On("Set", cacheKey, mock.Anything, 5*time.Minute).Return(nil)

		caching := NewCachingSubscriptionStore(store, cache, 5*time.Minute, newNoopLogger())
		sub, err := caching.FindActiveSubscription(context.Background(), "uid-1", now)

		require.NoError(t, err)
		assert.Equal(t, activeSub, sub)
	})
}
