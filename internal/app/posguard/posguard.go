// Package posguard собирает основное приложение: хранилище, кеш, сервисы
// и HTTP-сервер с политикой доступа по подписке.
package posguard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/cache"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/config"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/jwt"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/migrations"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/paymentprovider"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/policy"
	accessservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/access"
	authservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/auth"
	businessservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/business"
	paymentservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/payment"
	subservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/subscription"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/storage/repository"
)

// App представляет основное приложение.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
}

// New создает приложение: подключает базу, прогоняет миграции, собирает
// сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	provider := paymentprovider.New(cfg.ServerKey, cfg.PaymentSnapURL, cfg.PaymentAPIURL)

	authService := authservice.NewAuthService(db, db, jwtMaker, logger)
	subscriptionService := subservice.NewSubscriptionService(
		db, db, db, provider, cacheRedis, cfg.GraceDays, logger)
	paymentService := paymentservice.NewPaymentService(db, subscriptionService, provider, logger)
	businessService := businessservice.NewBusinessService(db, logger)

	cachedSubs := accessservice.NewCachingSubscriptionStore(db, cacheRedis, cfg.CacheTTL, logger)
	evaluator := policy.NewEvaluator(
		cachedSubs, db, policy.NewExemptList(cfg.ExemptRoutes), cfg.GraceDays, cfg.WarnDays)
	accessService := accessservice.NewAccessService(evaluator, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db, authService, accessService,
		subscriptionService, paymentService, businessService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", slog.Any("err", closeErr))
		}
		return err
	}
}
