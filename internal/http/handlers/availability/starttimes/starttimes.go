// Package starttimes реализует HTTP-обработчик допустимых времён начала
// сеанса. Экран автозаписи дергает его при выборе даты, длительности и
// локации. Пустой список — нормальный результат: в этот день записи нет.
package starttimes

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/availability-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/availability-engine/internal/http/response"
	"github.com/magabrotheeeer/availability-engine/internal/lib/clock"
	"github.com/magabrotheeeer/availability-engine/internal/lib/date"
	"github.com/magabrotheeeer/availability-engine/internal/lib/sl"
)

// Handler управляет HTTP-запросами на вычисление времён начала сеанса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики вычисления времён начала.
type Service interface {
	StartTimes(ctx context.Context, artistID string, day date.Date, sessionMinutes int, locationID string) ([]clock.Time, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Допустимые времена начала сеанса
// @Description Возвращает упорядоченный список времён "HH:MM", в которые сеанс указанной длительности помещается в рабочее окно с учётом выходных, блокировок, временных изменений графика и существующих броней.
// @Tags Availability
// @Produce  json
// @Param date query string true "Дата, YYYY-MM-DD"
// @Param duration query int true "Длительность сеанса в минутах"
// @Param location_id query string false "Локация"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректная дата или длительность"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /availability/start-times [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.availability.starttimes"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	artistID, ok := middlewarectx.ArtistID(r.Context())
	if !ok {
		log.Error("artist id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	day, err := date.Parse(r.URL.Query().Get("date"))
	if err != nil {
		log.Error("invalid date", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid date"))
		return
	}
	duration, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil || duration <= 0 {
		log.Error("invalid duration")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid duration"))
		return
	}
	locationID := r.URL.Query().Get("location_id")

	times, err := h.service.StartTimes(r.Context(), artistID, day, duration, locationID)
	if err != nil {
		log.Error("failed to resolve start times", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not resolve start times"))
		return
	}

	if times == nil {
		times = []clock.Time{}
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"date":        day,
		"start_times": times,
	}))
}
