// Package create реализует HTTP-обработчик создания выходных артиста.
//
// Handler принимает JSON-запрос с диапазоном дат и правилом повтора,
// валидирует его, вызывает бизнес-логику и возвращает либо идентификатор
// созданной серии, либо даты, пересёкшиеся с гостевыми турами, — тогда
// клиент повторяет запрос с подтверждением.
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

// Handler управляет HTTP-запросами на создание выходных.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания выходного.
type Service interface {
	CreateOffDay(ctx context.Context, artistID string, req models.DummyOffDay) (*schedule.MutationResult, error)
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
// @Summary Создать выходной
// @Description Создает выходной артиста с необязательным повтором. При пересечении с гостевыми турами возвращает статус Conflict со списком дат; повторный запрос с confirm=true сохраняет несмотря на пересечение.
// @Tags OffDays
// @Accept  json
// @Produce  json
// @Param request body models.DummyOffDay true "Данные выходного"
// @Success 200 {object} response.Response "Серия сохранена"
// @Success 409 {object} response.ConflictResponse "Требуется подтверждение пересечения"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или даты"
// @Failure 401 {object} response.ErrorResponse "Артист не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /offdays [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.offday.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyOffDay
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

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

	result, err := h.service.CreateOffDay(r.Context(), artistID, req)
	if err != nil {
		log.Error("failed to create off day", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create off day"))
		return
	}

	if !result.Persisted {
		log.Info("off day requires confirmation",
			slog.Int("conflicts", len(result.Conflicts)))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Conflict(result.Conflicts))
		return
	}

	log.Info("created off day series", slog.String("series_id", result.SeriesID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"series_id": result.SeriesID,
		"dates":     result.Dates,
	}))
}
