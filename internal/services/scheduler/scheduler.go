// Package services содержит планировщик уведомлений: периодические выборки
// истекающих и истёкших подписок с публикацией в очередь.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/days"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/sl"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/rabbitmq"
)

// SubscriptionRepository описывает выборки подписок для уведомлений.
type SubscriptionRepository interface {
	FindSubscriptionsExpiringWithin(ctx context.Context, now, until time.Time) ([]*models.ExpiryNotice, error)
	FindSubscriptionsExpiredSince(ctx context.Context, since, now time.Time) ([]*models.ExpiryNotice, error)
}

// SchedulerService периодически находит подписки, требующие уведомления
// владельца, и публикует их в RabbitMQ.
type SchedulerService struct {
	repo     SubscriptionRepository
	warnDays int
	log      *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo SubscriptionRepository, warnDays int, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo:     repo,
		warnDays: warnDays,
		log:      log,
	}
}

// RunUpcomingSweep публикует уведомления о подписках, истекающих в пределах
// окна предупреждений. Первый проход выполняется сразу, далее каждые 12 часов.
func (s *SchedulerService) RunUpcomingSweep(ctx context.Context, channel *amqp.Channel) {
	s.sweepUpcoming(ctx, channel)

	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepUpcoming(ctx, channel)
		case <-ctx.Done():
			return
		}
	}
}

// RunExpiredSweep публикует уведомления о подписках, истёкших за последние
// сутки. Статус подписки при этом не меняется: истечение учитывается лениво
// при проверке доступа.
func (s *SchedulerService) RunExpiredSweep(ctx context.Context, channel *amqp.Channel) {
	s.sweepExpired(ctx, channel)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepExpired(ctx, channel)
		case <-ctx.Done():
			return
		}
	}
}

func (s *SchedulerService) sweepUpcoming(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting sweep for subscriptions expiring soon")
	now := time.Now().UTC()
	until := now.AddDate(0, 0, s.warnDays)
	notices, err := s.repo.FindSubscriptionsExpiringWithin(ctx, now, until)
	if err != nil {
		s.log.Error("failed to find expiring subscriptions", sl.Err(err))
		return
	}
	if len(notices) == 0 {
		s.log.Info("no expiring subscriptions found")
		return
	}
	s.log.Info("found expiring subscriptions", "count", len(notices))
	for _, notice := range notices {
		notice.DaysRemaining = days.Until(now, notice.EndsAt)
		if err := rabbitmq.PublishMessage(channel, rabbitmq.NotificationsExchange, rabbitmq.UpcomingKey, notice); err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}

func (s *SchedulerService) sweepExpired(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting sweep for expired subscriptions")
	now := time.Now().UTC()
	since := now.AddDate(0, 0, -1)
	notices, err := s.repo.FindSubscriptionsExpiredSince(ctx, since, now)
	if err != nil {
		s.log.Error("failed to find expired subscriptions", sl.Err(err))
		return
	}
	if len(notices) == 0 {
		s.log.Info("no expired subscriptions found")
		return
	}
	s.log.Info("found expired subscriptions", "count", len(notices))
	for _, notice := range notices {
		notice.DaysRemaining = 0
		if err := rabbitmq.PublishMessage(channel, rabbitmq.NotificationsExchange, rabbitmq.ExpiredKey, notice); err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}
