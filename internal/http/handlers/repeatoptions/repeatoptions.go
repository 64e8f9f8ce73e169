// Package repeatoptions реализует HTTP-обработчик проверки допустимых
// типов повторения для выбранного диапазона дат. Клиент вызывает его при
// изменении дат в форме, чтобы погасить недоступные пункты выпадающего
// списка до отправки формы.
package repeatoptions

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/availability-engine/internal/http/response"
	"github.com/magabrotheeeer/availability-engine/internal/recurrence"
)

// Handler управляет HTTP-запросами на проверку типов повторения.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики проверки типов повторения.
type Service interface {
	DisabledRepeatKinds(startDate, endDate string) []recurrence.Kind
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Недоступные типы повторения
// @Description Возвращает список типов повторения, не совместимых с выбранным диапазоном дат. Многодневный диапазон запрещает daily, диапазон через границу недели дополнительно запрещает weekly и так далее. Нечитаемые даты не ошибка: пока форма не исправлена, недоступны все типы повторения.
// @Tags Availability
// @Produce  json
// @Param start query string true "Начало диапазона, YYYY-MM-DD"
// @Param end query string true "Конец диапазона, YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Router /availability/repeat-options [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.repeatoptions"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	disabled := h.service.DisabledRepeatKinds(
		r.URL.Query().Get("start"),
		r.URL.Query().Get("end"),
	)
	if disabled == nil {
		disabled = []recurrence.Kind{}
	}

	log.Debug("repeat options resolved", slog.Int("disabled", len(disabled)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"disabled_kinds": disabled,
	}))
}
