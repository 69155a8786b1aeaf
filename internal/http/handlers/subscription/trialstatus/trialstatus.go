// Package trialstatus реализует HTTP-обработчик состояния пробного периода.
package trialstatus

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/response"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/sl"
	subservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/subscription"
)

// Handler управляет HTTP-запросами на получение состояния пробного периода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики пробного периода.
type Service interface {
	Trial(ctx context.Context, userUID string) (*subservice.TrialStatus, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Состояние пробного периода
// @Description Сообщает, действует ли у владельца пробная подписка и сколько дней осталось.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} map[string]any "Состояние пробного периода"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/subscription/trial-status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.trialstatus"
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

	status, err := h.service.Trial(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get trial status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get trial status"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(status))
}
