package posguard

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/auth/register"
	businesscreate "github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/business/create"
	businesscurrent "github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/business/current"
	businesslist "github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/business/list"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/health"
	paymentstatus "github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/payment/status"
	paymentwebhook "github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/subscription/cancel"
	subcurrent "github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/subscription/current"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/subscription/history"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/subscription/manualactivate"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/subscription/paymenttoken"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/subscription/plans"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/subscription/subscribe"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/subscription/trialstatus"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/subscription/upgrade"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/handlers/subscription/verifyactivate"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/middlewarectx"
	accessservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/access"
	authservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/auth"
	businessservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/business"
	paymentservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/payment"
	subservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/subscription"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
// Группа /api закрыта JWT и политикой доступа по подписке; маршруты
// самообслуживания подписки внутри группы пропускаются политикой через
// список освобождённых маршрутов в конфигурации.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *repository.Storage,
	authService *authservice.AuthService, accessService *accessservice.AccessService,
	subscriptionService *subservice.SubscriptionService, paymentService *paymentservice.PaymentService,
	businessService *businessservice.BusinessService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	// Открытые конечные точки
	r.Post("/register", register.New(logger, authService).ServeHTTP)
	r.Post("/login", login.New(logger, authService).ServeHTTP)
	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Get("/subscription-plans", plans.New(logger, subscriptionService).ServeHTTP)

	// Webhook endpoint (без аутентификации, подлинность - по подписи)
	r.Post("/webhooks/payment", paymentwebhook.New(logger, paymentService).ServeHTTP)

	// Группа с JWT аутентификацией и политикой доступа по подписке
	r.Route("/api", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(authService, logger))
		r.Use(middlewarectx.SubscriptionGuardMiddleware(accessService, logger))
		r.Use(middlewarectx.RateLimitMiddleware(logger))

		r.Route("/subscription", func(r chi.Router) {
			r.Post("/subscribe", subscribe.New(logger, subscriptionService).ServeHTTP)
			r.Post("/upgrade", upgrade.New(logger, subscriptionService).ServeHTTP)
			r.Get("/current", subcurrent.New(logger, subscriptionService).ServeHTTP)
			r.Get("/history", history.New(logger, subscriptionService).ServeHTTP)
			r.Get("/trial-status", trialstatus.New(logger, subscriptionService).ServeHTTP)
			r.Get("/payment-token/{code}", paymenttoken.New(logger, subscriptionService).ServeHTTP)
			r.Post("/verify-activate", verifyactivate.New(logger, subscriptionService).ServeHTTP)
			r.Post("/manual-activate", manualactivate.New(logger, subscriptionService).ServeHTTP)
			r.Post("/cancel", cancel.New(logger, subscriptionService).ServeHTTP)
		})

		r.Route("/businesses", func(r chi.Router) {
			r.Post("/", businesscreate.New(logger, businessService).ServeHTTP)
			r.Get("/", businesslist.New(logger, businessService).ServeHTTP)
			r.Get("/current", businesscurrent.New(logger, businessService).ServeHTTP)
		})

		r.Get("/payments/status/{code}", paymentstatus.New(logger, paymentService).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
