// Package list реализует HTTP-обработчик списка бизнесов владельца.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/response"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/sl"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

// Handler управляет HTTP-запросами на получение списка бизнесов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка бизнесов.
type Service interface {
	List(ctx context.Context, ownerUID string) ([]*models.Business, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список бизнесов владельца
// @Description Возвращает бизнесы текущего владельца.
// @Tags Businesses
// @Produce  json
// @Success 200 {object} map[string]any "Список бизнесов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/businesses [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.business.list"
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

	businesses, err := h.service.List(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list businesses", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list businesses"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"businesses": businesses,
	}))
}
