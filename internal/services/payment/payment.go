// Package services содержит логику обработки платежей: проверку статуса
// транзакции и приём webhook-уведомлений платёжного провайдера.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/paymentprovider"
	subservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/subscription"
)

// Ошибки обработки платежей. Ошибки отсутствия и чужой подписки разделяются
// с сервисом подписок, чтобы errors.Is работал сквозь слои.
var (
	ErrBadSignature        = errors.New("invalid webhook signature")
	ErrSubscriptionMissing = subservice.ErrSubscriptionMissing
	ErrNotOwned            = subservice.ErrNotOwned
)

// SubscriptionStateRepository описывает чтение подписки по коду заказа.
type SubscriptionStateRepository interface {
	FindSubscriptionByCode(ctx context.Context, code string) (*models.Subscription, error)
}

// Activator описывает смену состояния подписки по итогам оплаты.
type Activator interface {
	ActivateByCode(ctx context.Context, code string, now time.Time) error
	MarkCancelled(ctx context.Context, code, status string) error
}

// Provider описывает платёжный шлюз.
type Provider interface {
	CheckStatus(ctx context.Context, orderID string) (*paymentprovider.StatusResponse, error)
	VerifySignature(n paymentprovider.WebhookNotification) bool
}

// PaymentService обрабатывает платёжные события.
type PaymentService struct {
	subs      SubscriptionStateRepository
	activator Activator
	provider  Provider
	log       *slog.Logger
}

// NewPaymentService создает новый экземпляр PaymentService.
func NewPaymentService(subs SubscriptionStateRepository, activator Activator, provider Provider, log *slog.Logger) *PaymentService {
	return &PaymentService{
		subs:      subs,
		activator: activator,
		provider:  provider,
		log:       log,
	}
}

// Status возвращает статус транзакции по коду подписки владельца.
func (s *PaymentService) Status(ctx context.Context, userUID, code string) (*paymentprovider.StatusResponse, error) {
	sub, err := s.subs.FindSubscriptionByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubscriptionMissing
	}
	if sub.UserUID != userUID {
		return nil, ErrNotOwned
	}
	return s.provider.CheckStatus(ctx, code)
}

// HandleWebhook обрабатывает уведомление провайдера о смене статуса платежа.
// Подпись проверяется до любых изменений состояния. Успешная оплата
// активирует подписку, отклонённая или отменённая — отменяет её,
// истёкшая транзакция помечает подписку истёкшей.
func (s *PaymentService) HandleWebhook(ctx context.Context, n paymentprovider.WebhookNotification) error {
	if !s.provider.VerifySignature(n) {
		s.log.Warn("webhook signature mismatch", slog.String("order_id", n.OrderID))
		return ErrBadSignature
	}

	s.log.Info("payment notification received",
		slog.String("order_id", n.OrderID),
		slog.String("transaction_status", n.TransactionStatus))

	switch n.TransactionStatus {
	case paymentprovider.StatusSettlement, paymentprovider.StatusCapture:
		if n.FraudStatus != "" && n.FraudStatus != "accept" {
			s.log.Warn("payment flagged by fraud check",
				slog.String("order_id", n.OrderID), slog.String("fraud_status", n.FraudStatus))
			return nil
		}
		return s.activator.ActivateByCode(ctx, n.OrderID, time.Now().UTC())
	case paymentprovider.StatusDeny, paymentprovider.StatusCancel:
		return s.activator.MarkCancelled(ctx, n.OrderID, models.StatusCancelled)
	case paymentprovider.StatusExpire:
		return s.activator.MarkCancelled(ctx, n.OrderID, models.StatusExpired)
	case paymentprovider.StatusPending:
		return nil
	default:
		s.log.Warn("unknown transaction status",
			slog.String("order_id", n.OrderID), slog.String("transaction_status", n.TransactionStatus))
		return nil
	}
}
