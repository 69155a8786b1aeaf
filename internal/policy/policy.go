package policy

import (
	"context"
	"time"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/days"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

// SubscriptionStore описывает доступ на чтение к записям подписок.
// Отсутствие записи выражается как (nil, nil): для политики это обычный
// вход решения. Ошибка возвращается только при сбое самого хранилища.
type SubscriptionStore interface {
	// FindActiveSubscription возвращает последнюю подписку пользователя
	// со статусом active и ends_at > now.
	FindActiveSubscription(ctx context.Context, userUID string, now time.Time) (*models.Subscription, error)
	// FindLatestPendingSubscription возвращает последнюю по дате создания
	// подписку со статусом pending_payment.
	FindLatestPendingSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
	// FindRecentlyActiveSubscription возвращает подписку со статусом active
	// и ends_at > cutoff, самую позднюю по ends_at. Может вернуть и ещё
	// действующую подписку — верхней границы у условия нет.
	FindRecentlyActiveSubscription(ctx context.Context, userUID string, cutoff time.Time) (*models.Subscription, error)
}

// EmploymentStore описывает доступ на чтение к активным привязкам
// сотрудников. Отсутствие привязки — (nil, nil).
type EmploymentStore interface {
	FindActiveEmployment(ctx context.Context, userUID string) (*models.Employment, error)
}

// Evaluator вычисляет решение политики доступа по подписке.
// Вычисление идемпотентно и не имеет побочных эффектов: каждое обращение
// выводит решение из текущего содержимого хранилища и переданного now.
type Evaluator struct {
	subs        SubscriptionStore
	employments EmploymentStore
	exempt      *ExemptList
	graceDays   int
	warnDays    int
}

// NewEvaluator создает новый экземпляр Evaluator.
func NewEvaluator(subs SubscriptionStore, employments EmploymentStore, exempt *ExemptList, graceDays, warnDays int) *Evaluator {
	return &Evaluator{
		subs:        subs,
		employments: employments,
		exempt:      exempt,
		graceDays:   graceDays,
		warnDays:    warnDays,
	}
}

// Evaluate возвращает решение для запроса method+path от пользователя user.
// Момент времени now передаётся явно и используется для всех сравнений
// внутри одного вычисления. Правила применяются по порядку, первое
// совпадение выигрывает:
//
//  1. освобождённый маршрут — Allow безусловно;
//  2. роль сотрудника — доступ по активной подписке владельца бизнеса;
//  3. owner/super_admin — собственная активная подписка, иначе льготный
//     период при наличии pending_payment, иначе Deny;
//  4. прочие роли — Allow (политика для них не определена).
func (e *Evaluator) Evaluate(ctx context.Context, user models.User, path, method string, now time.Time) (Decision, error) {
	if e.exempt != nil && e.exempt.Match(method, path) {
		return Allow(), nil
	}

	if models.IsEmployeeRole(user.Role) {
		return e.evaluateEmployee(ctx, user.UID, now)
	}

	if user.Role == models.RoleOwner || user.Role == models.RoleSuperAdmin {
		return e.evaluateOwner(ctx, user.UID, now)
	}

	return Allow(), nil
}

func (e *Evaluator) evaluateEmployee(ctx context.Context, userUID string, now time.Time) (Decision, error) {
	employment, err := e.employments.FindActiveEmployment(ctx, userUID)
	if err != nil {
		return Decision{}, err
	}
	if employment == nil {
		return Deny(ReasonEmployeeBusinessMissing), nil
	}
	if employment.OwnerUID == "" {
		return Deny(ReasonOwnerMissing), nil
	}

	active, err := e.subs.FindActiveSubscription(ctx, employment.OwnerUID, now)
	if err != nil {
		return Decision{}, err
	}
	if active == nil {
		return Deny(ReasonSubscriptionExpired), nil
	}
	return Allow(), nil
}

func (e *Evaluator) evaluateOwner(ctx context.Context, userUID string, now time.Time) (Decision, error) {
	authoritative, err := e.subs.FindActiveSubscription(ctx, userUID, now)
	if err != nil {
		return Decision{}, err
	}

	if authoritative == nil {
		pending, err := e.subs.FindLatestPendingSubscription(ctx, userUID)
		if err != nil {
			return Decision{}, err
		}
		if pending != nil {
			// Оплата в процессе: доступ сохраняется по недавно истёкшей
			// подписке в пределах льготного периода.
			cutoff := now.AddDate(0, 0, -e.graceDays)
			recent, err := e.subs.FindRecentlyActiveSubscription(ctx, userUID, cutoff)
			if err != nil {
				return Decision{}, err
			}
			if recent != nil {
				authoritative = recent
			} else {
				return Deny(ReasonSubscriptionPending), nil
			}
		} else {
			return Deny(ReasonSubscriptionRequired), nil
		}
	}

	remaining := days.Until(now, authoritative.EndsAt)
	if remaining > 0 && remaining <= e.warnDays {
		return AllowWithWarning(remaining), nil
	}
	return Allow(), nil
}
