// Package webhook реализует HTTP-обработчик уведомлений платёжного провайдера.
//
// Endpoint не требует JWT: подлинность уведомления подтверждается подписью
// в теле запроса. Провайдер повторяет доставку при неуспешном статусе ответа,
// поэтому внутренние ошибки возвращают 500.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/response"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/sl"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/paymentprovider"
	paymentservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/payment"
)

// Handler управляет HTTP-запросами с уведомлениями о платежах.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс обработки платёжного уведомления.
type Service interface {
	HandleWebhook(ctx context.Context, n paymentprovider.WebhookNotification) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Webhook платёжного провайдера
// @Description Принимает уведомление о смене статуса платежа и обновляет подписку.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Success 200 {object} response.Response "Уведомление обработано"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Неверная подпись"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /webhooks/payment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var notification paymentprovider.WebhookNotification
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
		log.Error("failed to decode webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.service.HandleWebhook(r.Context(), notification); err != nil {
		switch {
		case errors.Is(err, paymentservice.ErrBadSignature):
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("invalid signature"))
		case errors.Is(err, paymentservice.ErrSubscriptionMissing):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription not found"))
		default:
			log.Error("failed to handle webhook", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not handle notification"))
		}
		return
	}

	log.Info("payment notification processed", slog.String("order_id", notification.OrderID))
	render.JSON(w, r, response.StatusOKWithData(nil))
}
