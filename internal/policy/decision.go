// Package policy реализует политику доступа по подписке для POS-платформы.
//
// Evaluator — чистый вычислитель решения: по пользователю, маршруту запроса
// и состоянию подписок он возвращает Allow, AllowWithWarning или Deny.
// Отсутствие подписки — нормальный вход решения, а не ошибка; ошибкой
// считается только недоступность хранилища.
package policy

// Effect — итог решения политики.
type Effect int

const (
	// EffectAllow — запрос пропускается без изменений.
	EffectAllow Effect = iota
	// EffectWarn — запрос пропускается, но подписка скоро истечёт.
	EffectWarn
	// EffectDeny — запрос отклоняется с машиночитаемой причиной.
	EffectDeny
)

// String возвращает текстовое имя эффекта.
func (e Effect) String() string {
	switch e {
	case EffectWarn:
		return "warn"
	case EffectDeny:
		return "deny"
	default:
		return "allow"
	}
}

// Reason — машиночитаемый код причины отказа.
type Reason string

const (
	// ReasonSubscriptionRequired — у пользователя нет ни одной подписки.
	ReasonSubscriptionRequired Reason = "subscription_required"
	// ReasonSubscriptionPending — оплата начата, но не завершена,
	// и льготный период не применим.
	ReasonSubscriptionPending Reason = "subscription_pending"
	// ReasonSubscriptionExpired — подписка владельца бизнеса не активна.
	ReasonSubscriptionExpired Reason = "subscription_expired"
	// ReasonEmployeeBusinessMissing — сотрудник не привязан к бизнесу.
	ReasonEmployeeBusinessMissing Reason = "employee_business_missing"
	// ReasonOwnerMissing — у бизнеса не найден владелец.
	ReasonOwnerMissing Reason = "owner_missing"
)

// Decision — решение политики доступа. Для Deny заполнены Reason, Message
// и RedirectTo; для Warn — DaysRemaining.
type Decision struct {
	Effect        Effect
	Reason        Reason
	Message       string
	RedirectTo    string
	DaysRemaining int
}

var denyMessages = map[Reason]string{
	ReasonSubscriptionRequired:    "Subscription required to access this feature",
	ReasonSubscriptionPending:     "Payment is being processed. Please refresh the page shortly.",
	ReasonSubscriptionExpired:     "Business owner subscription has expired. Please contact your business owner to renew subscription.",
	ReasonEmployeeBusinessMissing: "Employee not assigned to any business",
	ReasonOwnerMissing:            "Business owner not found",
}

var denyRedirects = map[Reason]string{
	ReasonSubscriptionRequired:    "/subscription-plans",
	ReasonSubscriptionPending:     "/payment/pending",
	ReasonSubscriptionExpired:     "/login",
	ReasonEmployeeBusinessMissing: "/login",
	ReasonOwnerMissing:            "/login",
}

// Allow возвращает решение о пропуске запроса.
func Allow() Decision {
	return Decision{Effect: EffectAllow}
}

// AllowWithWarning возвращает решение о пропуске запроса с предупреждением
// о скором окончании подписки.
func AllowWithWarning(daysRemaining int) Decision {
	return Decision{Effect: EffectWarn, DaysRemaining: daysRemaining}
}

// Deny возвращает решение об отказе с сообщением и маршрутом для клиента,
// соответствующими причине.
func Deny(reason Reason) Decision {
	return Decision{
		Effect:     EffectDeny,
		Reason:     reason,
		Message:    denyMessages[reason],
		RedirectTo: denyRedirects[reason],
	}
}
