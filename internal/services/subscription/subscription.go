// Package services содержит бизнес-логику самообслуживания подписок:
// оформление, апгрейд, активацию, отмену и выдачу текущего состояния.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/days"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/sl"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/paymentprovider"
)

// Ошибки бизнес-уровня, которые обработчики переводят в клиентские ответы.
var (
	ErrPlanNotFound        = errors.New("plan not found")
	ErrTrialNotPurchasable = errors.New("trial plan is not purchasable")
	ErrSubscriptionMissing = errors.New("subscription not found")
	ErrNotOwned            = errors.New("subscription belongs to another user")
	ErrPaymentNotSettled   = errors.New("payment is not settled")
	ErrTokenMissing        = errors.New("payment token not found")
)

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (int, error)
	FindActiveSubscription(ctx context.Context, userUID string, now time.Time) (*models.Subscription, error)
	FindLatestPendingSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
	FindRecentlyActiveSubscription(ctx context.Context, userUID string, cutoff time.Time) (*models.Subscription, error)
	FindSubscriptionByCode(ctx context.Context, code string) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, userUID string) ([]*models.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, code, status string) (int, error)
	ActivateSubscription(ctx context.Context, code string, startsAt, endsAt time.Time) (int, error)
}

// PlanRepository определяет методы для чтения тарифных планов.
type PlanRepository interface {
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	GetPlanBySlug(ctx context.Context, slug string) (*models.Plan, error)
	GetPlan(ctx context.Context, id int) (*models.Plan, error)
}

// TokenRepository определяет методы для хранения платёжных токенов.
type TokenRepository interface {
	SavePaymentToken(ctx context.Context, token models.PaymentToken) (int, error)
	FindPaymentToken(ctx context.Context, subscriptionCode string) (*models.PaymentToken, error)
}

// Provider описывает платёжный шлюз.
type Provider interface {
	CreateTransaction(ctx context.Context, req paymentprovider.TransactionRequest) (*paymentprovider.TransactionResponse, error)
	CheckStatus(ctx context.Context, orderID string) (*paymentprovider.StatusResponse, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// TrialStatus описывает состояние пробного периода владельца.
type TrialStatus struct {
	OnTrial       bool       `json:"on_trial"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	DaysRemaining int        `json:"days_remaining"`
}

// SubscriptionService реализует бизнес-логику работы с подписками владельца.
// Каждая операция, меняющая состояние подписки, инвалидирует кеш активной
// подписки пользователя: политика доступа читает его при каждом запросе.
type SubscriptionService struct {
	repo      SubscriptionRepository
	plans     PlanRepository
	tokens    TokenRepository
	provider  Provider
	cache     Cache
	graceDays int
	log       *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, plans PlanRepository, tokens TokenRepository,
	provider Provider, cache Cache, graceDays int, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:      repo,
		plans:     plans,
		tokens:    tokens,
		provider:  provider,
		cache:     cache,
		graceDays: graceDays,
		log:       log,
	}
}

// ListPlans возвращает доступные тарифные планы.
func (s *SubscriptionService) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	return s.plans.ListPlans(ctx)
}

// Subscribe оформляет подписку на план: создает запись со статусом
// pending_payment, заводит транзакцию у платёжного провайдера и возвращает
// платёжный токен. Подписка станет активной после подтверждения оплаты.
func (s *SubscriptionService) Subscribe(ctx context.Context, user models.User, planSlug string) (*models.PaymentToken, error) {
	plan, err := s.plans.GetPlanBySlug(ctx, planSlug)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	if plan.IsTrial {
		return nil, ErrTrialNotPurchasable
	}

	now := time.Now().UTC()
	code := uuid.NewString()
	sub := models.Subscription{
		Code:    code,
		UserUID: user.UID,
		PlanID:  plan.ID,
		Status:  models.StatusPendingPayment,
		// Срок действия задаётся при активации, после подтверждения оплаты.
		StartsAt: now,
		EndsAt:   now,
	}
	if _, err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	resp, err := s.provider.CreateTransaction(ctx, paymentprovider.TransactionRequest{
		TransactionDetails: paymentprovider.TransactionDetails{
			OrderID:     code,
			GrossAmount: int64(plan.Price),
		},
		CustomerDetails: paymentprovider.CustomerDetails{
			FirstName: user.Username,
			Email:     user.Email,
		},
		ItemDetails: []paymentprovider.ItemDetail{{
			ID:       plan.Slug,
			Price:    int64(plan.Price),
			Quantity: 1,
			Name:     plan.Name,
		}},
	})
	if err != nil {
		return nil, err
	}

	token := models.PaymentToken{
		SubscriptionCode: code,
		Token:            resp.Token,
		RedirectURL:      resp.RedirectURL,
	}
	if _, err := s.tokens.SavePaymentToken(ctx, token); err != nil {
		return nil, err
	}

	s.invalidateUserCache(user.UID)
	s.log.Info("subscription created, awaiting payment",
		slog.String("user_uid", user.UID), slog.String("code", code), slog.String("plan", plan.Slug))
	return &token, nil
}

// Upgrade переводит владельца на другой план. Новая подписка проходит тот же
// платёжный цикл, что и при оформлении; текущая остаётся активной до
// подтверждения оплаты.
func (s *SubscriptionService) Upgrade(ctx context.Context, user models.User, planSlug string) (*models.PaymentToken, error) {
	current, err := s.repo.FindActiveSubscription(ctx, user.UID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if current != nil {
		plan, err := s.plans.GetPlan(ctx, current.PlanID)
		if err != nil {
			return nil, err
		}
		if plan != nil && plan.Slug == planSlug {
			return nil, fmt.Errorf("already subscribed to plan %q", planSlug)
		}
	}
	return s.Subscribe(ctx, user, planSlug)
}

// Current возвращает авторитетную подписку владельца: активную, а при её
// отсутствии — недавно истёкшую в пределах льготного периода, если оплата
// новой подписки в процессе. Возвращает (nil, nil), если подписки нет.
func (s *SubscriptionService) Current(ctx context.Context, userUID string) (*models.SubscriptionInfo, error) {
	now := time.Now().UTC()
	sub, err := s.repo.FindActiveSubscription(ctx, userUID, now)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		pending, err := s.repo.FindLatestPendingSubscription(ctx, userUID)
		if err != nil {
			return nil, err
		}
		if pending == nil {
			return nil, nil
		}
		cutoff := now.AddDate(0, 0, -s.graceDays)
		sub, err = s.repo.FindRecentlyActiveSubscription(ctx, userUID, cutoff)
		if err != nil {
			return nil, err
		}
		if sub == nil {
			return nil, nil
		}
	}
	return s.buildInfo(ctx, sub, now)
}

// History возвращает все подписки владельца, новые первыми.
func (s *SubscriptionService) History(ctx context.Context, userUID string) ([]*models.SubscriptionInfo, error) {
	subs, err := s.repo.ListSubscriptions(ctx, userUID)
	if err != nil {
		return nil, err
	}

	plansByID := make(map[int]*models.Plan)
	plans, err := s.plans.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	for _, plan := range plans {
		plansByID[plan.ID] = plan
	}

	now := time.Now().UTC()
	result := make([]*models.SubscriptionInfo, 0, len(subs))
	for _, sub := range subs {
		info := &models.SubscriptionInfo{
			Code:          sub.Code,
			Status:        sub.Status,
			StartsAt:      sub.StartsAt,
			EndsAt:        sub.EndsAt,
			DaysRemaining: days.Until(now, sub.EndsAt),
		}
		if plan, ok := plansByID[sub.PlanID]; ok {
			info.PlanName = plan.Name
			info.PlanSlug = plan.Slug
		}
		result = append(result, info)
	}
	return result, nil
}

// Trial возвращает состояние пробного периода владельца.
func (s *SubscriptionService) Trial(ctx context.Context, userUID string) (*TrialStatus, error) {
	now := time.Now().UTC()
	sub, err := s.repo.FindActiveSubscription(ctx, userUID, now)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return &TrialStatus{}, nil
	}
	plan, err := s.plans.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil || !plan.IsTrial {
		return &TrialStatus{}, nil
	}
	endsAt := sub.EndsAt
	return &TrialStatus{
		OnTrial:       true,
		EndsAt:        &endsAt,
		DaysRemaining: days.Until(now, endsAt),
	}, nil
}

// PaymentToken возвращает сохранённый платёжный токен подписки владельца.
func (s *SubscriptionService) PaymentToken(ctx context.Context, userUID, code string) (*models.PaymentToken, error) {
	if _, err := s.ownedSubscription(ctx, userUID, code); err != nil {
		return nil, err
	}
	token, err := s.tokens.FindPaymentToken(ctx, code)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrTokenMissing
	}
	return token, nil
}

// VerifyActivate сверяет статус оплаты с платёжным провайдером и активирует
// подписку, если транзакция завершена. Используется клиентом после
// возвращения со страницы оплаты, не дожидаясь webhook'а.
func (s *SubscriptionService) VerifyActivate(ctx context.Context, userUID, code string) (*models.SubscriptionInfo, error) {
	sub, err := s.ownedSubscription(ctx, userUID, code)
	if err != nil {
		return nil, err
	}

	status, err := s.provider.CheckStatus(ctx, code)
	if err != nil {
		return nil, err
	}
	if status.TransactionStatus != paymentprovider.StatusSettlement &&
		status.TransactionStatus != paymentprovider.StatusCapture {
		return nil, ErrPaymentNotSettled
	}

	now := time.Now().UTC()
	if err := s.ActivateByCode(ctx, code, now); err != nil {
		return nil, err
	}
	sub, err = s.repo.FindSubscriptionByCode(ctx, code)
	if err != nil || sub == nil {
		return nil, err
	}
	return s.buildInfo(ctx, sub, now)
}

// ManualActivate активирует подписку по коду без сверки с провайдером.
// Операция доступна только супер-администратору.
func (s *SubscriptionService) ManualActivate(ctx context.Context, code string) error {
	sub, err := s.repo.FindSubscriptionByCode(ctx, code)
	if err != nil {
		return err
	}
	if sub == nil {
		return ErrSubscriptionMissing
	}
	return s.ActivateByCode(ctx, code, time.Now().UTC())
}

// ActivateByCode переводит подписку из pending_payment в active, задавая срок
// действия от now на длительность тарифного плана. Повторная активация уже
// активной подписки — no-op: условие по статусу в запросе не совпадёт.
func (s *SubscriptionService) ActivateByCode(ctx context.Context, code string, now time.Time) error {
	sub, err := s.repo.FindSubscriptionByCode(ctx, code)
	if err != nil {
		return err
	}
	if sub == nil {
		return ErrSubscriptionMissing
	}
	plan, err := s.plans.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return err
	}
	if plan == nil {
		return ErrPlanNotFound
	}

	endsAt := now.AddDate(0, plan.DurationMonths, 0)
	count, err := s.repo.ActivateSubscription(ctx, code, now, endsAt)
	if err != nil {
		return err
	}
	if count > 0 {
		s.invalidateUserCache(sub.UserUID)
		s.log.Info("subscription activated",
			slog.String("code", code), slog.String("user_uid", sub.UserUID),
			slog.Time("ends_at", endsAt))
	}
	return nil
}

// Cancel отменяет подписку владельца по коду.
func (s *SubscriptionService) Cancel(ctx context.Context, userUID, code string) error {
	if _, err := s.ownedSubscription(ctx, userUID, code); err != nil {
		return err
	}
	if _, err := s.repo.UpdateSubscriptionStatus(ctx, code, models.StatusCancelled); err != nil {
		return err
	}
	s.invalidateUserCache(userUID)
	s.log.Info("subscription cancelled", slog.String("code", code), slog.String("user_uid", userUID))
	return nil
}

// MarkCancelled помечает подписку отменённой без проверки владельца.
// Используется обработчиком webhook'ов платёжного провайдера.
func (s *SubscriptionService) MarkCancelled(ctx context.Context, code, status string) error {
	sub, err := s.repo.FindSubscriptionByCode(ctx, code)
	if err != nil {
		return err
	}
	if sub == nil {
		return ErrSubscriptionMissing
	}
	if _, err := s.repo.UpdateSubscriptionStatus(ctx, code, status); err != nil {
		return err
	}
	s.invalidateUserCache(sub.UserUID)
	return nil
}

func (s *SubscriptionService) ownedSubscription(ctx context.Context, userUID, code string) (*models.Subscription, error) {
	sub, err := s.repo.FindSubscriptionByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubscriptionMissing
	}
	if sub.UserUID != userUID {
		return nil, ErrNotOwned
	}
	return sub, nil
}

func (s *SubscriptionService) buildInfo(ctx context.Context, sub *models.Subscription, now time.Time) (*models.SubscriptionInfo, error) {
	info := &models.SubscriptionInfo{
		Code:          sub.Code,
		Status:        sub.Status,
		StartsAt:      sub.StartsAt,
		EndsAt:        sub.EndsAt,
		DaysRemaining: days.Until(now, sub.EndsAt),
	}
	plan, err := s.plans.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		info.PlanName = plan.Name
		info.PlanSlug = plan.Slug
	}
	return info, nil
}

func (s *SubscriptionService) invalidateUserCache(userUID string) {
	cacheKey := fmt.Sprintf("subscription:user:%s", userUID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), sl.Err(err))
	}
}
