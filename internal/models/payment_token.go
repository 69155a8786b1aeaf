package models

import "time"

// PaymentToken представляет платёжный токен провайдера,
// выданный для оплаты конкретной подписки.
type PaymentToken struct {
	ID               int       `json:"id"`
	SubscriptionCode string    `json:"subscription_code"`
	Token            string    `json:"token"`
	RedirectURL      string    `json:"redirect_url"`
	CreatedAt        time.Time `json:"created_at"`
}
