package models

import "time"

// Статусы подписки. Подписка создаётся со статусом pending_payment,
// переходит в active после подтверждения оплаты и считается истёкшей,
// когда проходит EndsAt (лениво, в момент проверки).
const (
	StatusActive         = "active"
	StatusPendingPayment = "pending_payment"
	StatusCancelled      = "cancelled"
	StatusExpired        = "expired"
)

// Subscription представляет собой основную модель подписки владельца бизнеса,
// используемую в бизнес-логике и хранилище.
type Subscription struct {
	ID        int       // Идентификатор записи
	Code      string    // Уникальный код подписки (uuid), используется платёжным провайдером
	UserUID   string    // Владелец подписки
	PlanID    int       // Тарифный план
	Status    string    // Статус: active, pending_payment, cancelled, expired
	StartsAt  time.Time // Дата начала действия
	EndsAt    time.Time // Дата окончания действия
	CreatedAt time.Time // Дата создания записи
}

// Plan представляет тарифный план подписки.
type Plan struct {
	ID             int     `json:"id"`              // Идентификатор плана
	Name           string  `json:"name"`            // Название плана
	Slug           string  `json:"slug"`            // Уникальный слаг для выбора плана в API
	Price          float64 `json:"price"`           // Цена за период
	DurationMonths int     `json:"duration_months"` // Длительность периода в месяцах
	IsTrial        bool    `json:"is_trial"`        // Признак пробного плана
}

// DummySubscribe используется для приёма запроса на оформление или
// апгрейд подписки из JSON-запроса.
type DummySubscribe struct {
	PlanSlug string `json:"plan_slug" validate:"required"` // Слаг выбранного плана
}

// SubscriptionInfo объединяет подписку с планом и количеством оставшихся дней
// для выдачи в API. DaysRemaining может быть отрицательным в течение
// льготного периода.
type SubscriptionInfo struct {
	Code          string    `json:"code"`
	PlanName      string    `json:"plan_name"`
	PlanSlug      string    `json:"plan_slug"`
	Status        string    `json:"status"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	DaysRemaining int       `json:"days_remaining"`
}

// ExpiryNotice — сообщение для пайплайна уведомлений об окончании подписки.
type ExpiryNotice struct {
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	PlanName      string    `json:"plan_name"`
	EndsAt        time.Time `json:"ends_at"`
	DaysRemaining int       `json:"days_remaining"`
}
