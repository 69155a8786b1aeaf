// Package paymenttoken реализует HTTP-обработчик выдачи платёжного токена
// по коду подписки. Используется клиентом для повторного открытия страницы
// оплаты неоплаченной подписки.
package paymenttoken

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/response"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/sl"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
	subservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/subscription"
)

// Handler управляет HTTP-запросами на получение платёжного токена.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики выдачи токена.
type Service interface {
	PaymentToken(ctx context.Context, userUID, code string) (*models.PaymentToken, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Платёжный токен подписки
// @Description Возвращает сохранённый платёжный токен подписки владельца.
// @Tags Subscriptions
// @Produce  json
// @Param code path string true "Код подписки"
// @Success 200 {object} map[string]any "Платёжный токен"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Подписка или токен не найдены"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/subscription/payment-token/{code} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.paymenttoken"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	code := chi.URLParam(r, "code")
	if code == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("subscription code is required"))
		return
	}

	token, err := h.service.PaymentToken(r.Context(), userUID, code)
	if err != nil {
		switch {
		case errors.Is(err, subservice.ErrSubscriptionMissing), errors.Is(err, subservice.ErrTokenMissing):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(err.Error()))
		case errors.Is(err, subservice.ErrNotOwned):
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("forbidden"))
		default:
			log.Error("failed to get payment token", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not get payment token"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription_code": token.SubscriptionCode,
		"token":             token.Token,
		"redirect_url":      token.RedirectURL,
	}))
}
