// Package list реализует HTTP-обработчик списка выходных за диапазон дат.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/availability-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/availability-engine/internal/http/response"
	"github.com/magabrotheeeer/availability-engine/internal/lib/date"
	"github.com/magabrotheeeer/availability-engine/internal/lib/sl"
	"github.com/magabrotheeeer/availability-engine/internal/models"
)

// Handler управляет HTTP-запросами на список выходных.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка выходных.
type Service interface {
	ListOffDays(ctx context.Context, artistID string, r date.Range) ([]models.OffDay, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список выходных за диапазон дат
// @Tags OffDays
// @Produce  json
// @Param start query string true "Начало диапазона, YYYY-MM-DD"
// @Param end query string true "Конец диапазона, YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректные даты"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /offdays [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.offday.list"
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

	start, err := date.Parse(r.URL.Query().Get("start"))
	if err != nil {
		log.Error("invalid start date", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid start date"))
		return
	}
	end, err := date.Parse(r.URL.Query().Get("end"))
	if err != nil {
		log.Error("invalid end date", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid end date"))
		return
	}

	offDays, err := h.service.ListOffDays(r.Context(), artistID, date.NewRange(start, end))
	if err != nil {
		log.Error("failed to list off days", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list off days"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"off_days": offDays,
	}))
}
