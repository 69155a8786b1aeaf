// Package current реализует HTTP-обработчик текущего бизнеса пользователя.
//
// Для владельца это его собственный бизнес, для сотрудника — бизнес
// активной привязки.
package current

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/response"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/sl"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
	businessservice "github.com/magabrotheeeer/pos-subscription-guard/internal/services/business"
)

// Handler управляет HTTP-запросами на получение текущего бизнеса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики текущего бизнеса.
type Service interface {
	Current(ctx context.Context, userUID string) (*models.Business, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Текущий бизнес
// @Description Возвращает бизнес текущего пользователя.
// @Tags Businesses
// @Produce  json
// @Success 200 {object} map[string]any "Текущий бизнес"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Бизнес не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/businesses/current [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.business.current"
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

	business, err := h.service.Current(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, businessservice.ErrBusinessMissing) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("business not found"))
			return
		}
		log.Error("failed to get current business", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get current business"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"business": business,
	}))
}
