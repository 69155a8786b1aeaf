// Package services содержит бизнес-логику проверки доступа по подписке:
// вычисление решения политики и кеширование авторитетной подписки.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/sl"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/metrics"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/policy"
)

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// AccessService вычисляет решение политики доступа для HTTP-запроса.
// Сбои хранилища не превращаются в Deny: они возвращаются как ошибка,
// и вызывающая сторона отвечает 5xx.
type AccessService struct {
	evaluator *policy.Evaluator
	log       *slog.Logger
}

// NewAccessService создает новый экземпляр AccessService.
func NewAccessService(evaluator *policy.Evaluator, log *slog.Logger) *AccessService {
	return &AccessService{
		evaluator: evaluator,
		log:       log,
	}
}

// Check вычисляет решение для запроса method+path от пользователя user.
func (s *AccessService) Check(ctx context.Context, user models.User, path, method string) (policy.Decision, error) {
	decision, err := s.evaluator.Evaluate(ctx, user, path, method, time.Now().UTC())
	if err != nil {
		s.log.Error("access check failed", sl.Err(err),
			slog.String("user_uid", user.UID), slog.String("path", path))
		return policy.Decision{}, err
	}

	metrics.AccessDecisions.WithLabelValues(decision.Effect.String(), string(decision.Reason)).Inc()
	if decision.Effect == policy.EffectDeny {
		s.log.Info("access denied",
			slog.String("user_uid", user.UID),
			slog.String("role", user.Role),
			slog.String("path", path),
			slog.String("reason", string(decision.Reason)))
	}
	return decision, nil
}

// CachingSubscriptionStore оборачивает хранилище подписок кешем активной
// подписки владельца. Кешируется и отсутствие подписки, чтобы не ходить
// в базу на каждый запрос пользователя без подписки. Запись становится
// неактуальной при смене состояния подписки, поэтому сервисы, меняющие
// подписки, инвалидируют ключ subscription:user:<uid>.
type CachingSubscriptionStore struct {
	store policy.SubscriptionStore
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCachingSubscriptionStore создает новый экземпляр CachingSubscriptionStore.
func NewCachingSubscriptionStore(store policy.SubscriptionStore, cache Cache, ttl time.Duration, log *slog.Logger) *CachingSubscriptionStore {
	return &CachingSubscriptionStore{
		store: store,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

type cachedSubscription struct {
	Subscription *models.Subscription `json:"subscription"`
}

// FindActiveSubscription возвращает активную подписку пользователя,
// используя кеш или хранилище. Подписка, успевшая истечь за время жизни
// кеша, считается промахом.
func (c *CachingSubscriptionStore) FindActiveSubscription(ctx context.Context, userUID string, now time.Time) (*models.Subscription, error) {
	cacheKey := fmt.Sprintf("subscription:user:%s", userUID)

	var cached cachedSubscription
	found, err := c.cache.Get(cacheKey, &cached)
	if err != nil {
		c.log.Warn("failed to read from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found && err == nil {
		if cached.Subscription == nil {
			return nil, nil
		}
		if cached.Subscription.EndsAt.After(now) {
			return cached.Subscription, nil
		}
	}

	sub, err := c.store.FindActiveSubscription(ctx, userUID, now)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(cacheKey, cachedSubscription{Subscription: sub}, c.ttl); err != nil {
		c.log.Warn("failed to cache subscription", slog.String("key", cacheKey), sl.Err(err))
	}
	return sub, nil
}

// FindLatestPendingSubscription делегирует запрос хранилищу без кеширования:
// ветка льготного периода выполняется только при отсутствии активной подписки.
func (c *CachingSubscriptionStore) FindLatestPendingSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	return c.store.FindLatestPendingSubscription(ctx, userUID)
}

// FindRecentlyActiveSubscription делегирует запрос хранилищу без кеширования.
func (c *CachingSubscriptionStore) FindRecentlyActiveSubscription(ctx context.Context, userUID string, cutoff time.Time) (*models.Subscription, error) {
	return c.store.FindRecentlyActiveSubscription(ctx, userUID, cutoff)
}
