// Package engine предоставляет сборку и маршруты движка доступности.
package engine

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/availability-engine/internal/http/handlers/availability/starttimes"
	blocktimecreate "github.com/magabrotheeeer/availability-engine/internal/http/handlers/blocktime/create"
	blocktimeremove "github.com/magabrotheeeer/availability-engine/internal/http/handlers/blocktime/remove"
	"github.com/magabrotheeeer/availability-engine/internal/http/handlers/health"
	offdaycreate "github.com/magabrotheeeer/availability-engine/internal/http/handlers/offday/create"
	offdaylist "github.com/magabrotheeeer/availability-engine/internal/http/handlers/offday/list"
	offdayremove "github.com/magabrotheeeer/availability-engine/internal/http/handlers/offday/remove"
	"github.com/magabrotheeeer/availability-engine/internal/http/handlers/repeatoptions"
	tempchangecreate "github.com/magabrotheeeer/availability-engine/internal/http/handlers/tempchange/create"
	tempchangeremove "github.com/magabrotheeeer/availability-engine/internal/http/handlers/tempchange/remove"
	workhoursset "github.com/magabrotheeeer/availability-engine/internal/http/handlers/workhours/set"
	"github.com/magabrotheeeer/availability-engine/internal/http/middlewarectx"
	"github.com/magabrotheeeer/availability-engine/internal/lib/jwt"
	scheduleservice "github.com/magabrotheeeer/availability-engine/internal/services/schedule"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, scheduleService *scheduleservice.Service, tokenMaker jwt.Maker) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger).ServeHTTP)
		r.Get("/availability/repeat-options", repeatoptions.New(logger, scheduleService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(tokenMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/offdays", offdaycreate.New(logger, scheduleService).ServeHTTP)
			r.Delete("/offdays/{series_id}", offdayremove.New(logger, scheduleService).ServeHTTP)
			r.Get("/offdays", offdaylist.New(logger, scheduleService).ServeHTTP)
			r.Post("/blocktimes", blocktimecreate.New(logger, scheduleService).ServeHTTP)
			r.Delete("/blocktimes/{series_id}", blocktimeremove.New(logger, scheduleService).ServeHTTP)
			r.Post("/tempchanges", tempchangecreate.New(logger, scheduleService).ServeHTTP)
			r.Delete("/tempchanges/{id}", tempchangeremove.New(logger, scheduleService).ServeHTTP)
			r.Put("/workhours", workhoursset.New(logger, scheduleService).ServeHTTP)
			r.Get("/availability/start-times", starttimes.New(logger, scheduleService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
