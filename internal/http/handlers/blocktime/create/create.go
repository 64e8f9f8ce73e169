// Package create реализует HTTP-обработчик создания блокировки времени:
// однодневного личного события с окном "HH:MM"–"HH:MM" вместо полного дня.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/availability-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/availability-engine/internal/http/response"
	"github.com/magabrotheeeer/availability-engine/internal/lib/sl"
	"github.com/magabrotheeeer/availability-engine/internal/models"
	"github.com/magabrotheeeer/availability-engine/internal/services/schedule"
)

// Handler управляет HTTP-запросами на создание блокировок времени.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания блокировки.
type Service interface {
	CreateBlockTime(ctx context.Context, artistID string, req models.DummyEventBlockTime) (*schedule.MutationResult, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать блокировку времени
// @Description Создает однодневную блокировку с необязательным повтором. Семантика конфликта та же, что у выходных.
// @Tags BlockTimes
// @Accept  json
// @Produce  json
// @Param request body models.DummyEventBlockTime true "Данные блокировки"
// @Success 200 {object} response.Response "Серия сохранена"
// @Success 409 {object} response.ConflictResponse "Требуется подтверждение пересечения"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или времена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /blocktimes [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.blocktime.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyEventBlockTime
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

	artistID, ok := middlewarectx.ArtistID(r.Context())
	if !ok {
		log.Error("artist id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.CreateBlockTime(r.Context(), artistID, req)
	if err != nil {
		log.Error("failed to create block time", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create block time"))
		return
	}

	if !result.Persisted {
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Conflict(result.Conflicts))
		return
	}

	log.Info("created block time series", slog.String("series_id", result.SeriesID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"series_id": result.SeriesID,
		"dates":     result.Dates,
	}))
}
