// Package remove реализует HTTP-обработчик удаления серии выходных.
// Редактирование выходного в приложении — это удаление серии и создание
// новой: материализованные вхождения пересчитываются, а не патчатся.
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

// Handler управляет HTTP-запросами на удаление выходных.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики удаления выходного.
type Service interface {
	RemoveOffDay(ctx context.Context, artistID, seriesID string) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить серию выходных
// @Tags OffDays
// @Produce  json
// @Param series_id path string true "Идентификатор серии"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Серия не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /offdays/{series_id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.offday.remove"
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

	if err := h.service.RemoveOffDay(r.Context(), artistID, seriesID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("off day series not found", slog.String("series_id", seriesID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("off day series not found"))
			return
		}
		log.Error("failed to remove off day series", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove off day series"))
		return
	}

	log.Info("removed off day series", slog.String("series_id", seriesID))
	render.JSON(w, r, response.OK())
}
