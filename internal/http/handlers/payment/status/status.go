// Package status реализует HTTP-обработчик статуса оплаты подписки.
package status

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
	"github.com/magabrotheeeer/pos-subscription-guard/internal/paymentprovider"
	paymentservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/payment"
)

// Handler управляет HTTP-запросами на получение статуса оплаты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики статуса оплаты.
type Service interface {
	Status(ctx context.Context, userUID, code string) (*paymentprovider.StatusResponse, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статус оплаты подписки
// @Description Возвращает статус транзакции платёжного провайдера по коду подписки.
// @Tags Payments
// @Produce  json
// @Param code path string true "Код подписки"
// @Success 200 {object} map[string]any "Статус транзакции"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/payments/status/{code} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.status"
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

	status, err := h.service.Status(r.Context(), userUID, code)
	if err != nil {
		switch {
		case errors.Is(err, paymentservice.ErrSubscriptionMissing):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription not found"))
		case errors.Is(err, paymentservice.ErrNotOwned):
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("forbidden"))
		default:
			log.Error("failed to get payment status", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not get payment status"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"order_id":           status.OrderID,
		"transaction_status": status.TransactionStatus,
	}))
}
