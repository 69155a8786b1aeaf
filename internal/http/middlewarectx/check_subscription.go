package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/response"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/sl"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/policy"
)

// Заголовки предупреждения о скором окончании подписки.
const (
	HeaderSubscriptionWarning = "X-Subscription-Warning"
	HeaderSubscriptionDays    = "X-Subscription-Days-Remaining"
)

// AccessChecker описывает интерфейс проверки доступа по подписке.
type AccessChecker interface {
	Check(ctx context.Context, user models.User, path, method string) (policy.Decision, error)
}

// SubscriptionGuardMiddleware применяет политику доступа по подписке.
// Запрос с решением Deny получает 403 с машиночитаемой причиной, решение
// Warn пропускается с заголовками предупреждения. Сбой хранилища подписок
// возвращает 500, а не отказ: отказать можно только по данным.
func SubscriptionGuardMiddleware(access AccessChecker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SubscriptionGuardMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			user, ok := r.Context().Value(UserModel).(models.User)
			if !ok || user.UID == "" {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			decision, err := access.Check(r.Context(), user, r.URL.Path, r.Method)
			if err != nil {
				log.Error("failed to check subscription access", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			switch decision.Effect {
			case policy.EffectDeny:
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Deny(decision))
				return
			case policy.EffectWarn:
				w.Header().Set(HeaderSubscriptionWarning, "expires_soon")
				w.Header().Set(HeaderSubscriptionDays, strconv.Itoa(decision.DaysRemaining))
			}
			next.ServeHTTP(w, r)
		})
	}
}
