// Package remove реализует HTTP-обработчик удаления серии блокировок времени.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/availability-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/availability-engine/internal/http/response"
	"github.com/magabrotheeeer/availability-engine/internal/lib/sl"
	"github.com/magabrotheeeer/availability-engine/internal/storage"
)

// Handler управляет HTTP-запросами на удаление блокировок времени.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики удаления блокировки.
type Service interface {
	RemoveBlockTime(ctx context.Context, artistID, seriesID string) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить серию блокировок времени
// @Tags BlockTimes
// @Produce  json
// @Param series_id path string true "Идентификатор серии"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Серия не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /blocktimes/{series_id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.blocktime.remove"
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

	seriesID := chi.URLParam(r, "series_id")
	if seriesID == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("series_id is required"))
		return
	}

	if err := h.service.RemoveBlockTime(r.Context(), artistID, seriesID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("block time series not found"))
			return
		}
		log.Error("failed to remove block time series", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove block time series"))
		return
	}

	log.Info("removed block time series", slog.String("series_id", seriesID))
	render.JSON(w, r, response.OK())
}
