// Package create реализует HTTP-обработчик создания бизнеса владельцем.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/http/response"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/lib/sl"
	"github.com/magabrotheeeer/pos-subscription-guard/internal/models"
)

// Handler управляет HTTP-запросами на создание бизнеса.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания бизнеса.
type Service interface {
	Create(ctx context.Context, ownerUID, name string) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать бизнес
// @Description Создает новый бизнес для текущего владельца. Возвращает ID созданной записи.
// @Tags Businesses
// @Accept  json
// @Produce  json
// @Param request body models.DummyBusiness true "Данные нового бизнеса"
// @Success 200 {object} map[string]any "Успешное создание бизнеса"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Создавать бизнесы может только владелец"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/businesses [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.business.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyBusiness
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	role, _ := r.Context().Value(middlewarectx.Role).(string)
	if role != models.RoleOwner && role != models.RoleSuperAdmin {
		log.Error("business creation denied", slog.String("role", role))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("only business owners can create businesses"))
		return
	}

	id, err := h.service.Create(r.Context(), userUID, req.Name)
	if err != nil {
		log.Error("failed to create business", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create business"))
		return
	}

	log.Info("business created", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}
