package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/availability-engine/internal/cache"
	"github.com/magabrotheeeer/availability-engine/internal/config"
	"github.com/magabrotheeeer/availability-engine/internal/lib/jwt"
	"github.com/magabrotheeeer/availability-engine/internal/migrations"
	"github.com/magabrotheeeer/availability-engine/internal/rabbitmq"
	"github.com/magabrotheeeer/availability-engine/internal/services/overlap"
	scheduleservice "github.com/magabrotheeeer/availability-engine/internal/services/schedule"
	"github.com/magabrotheeeer/availability-engine/internal/storage"
)

// App собирает зависимости движка доступности и управляет его жизненным циклом.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *storage.Storage
	rabbitConn *amqp.Connection
}

// New подключает хранилище, накатывает миграции, поднимает кеш и брокер и
// собирает HTTP-сервер с зарегистрированными маршрутами.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.AddressRabbit, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(rabbitConn)
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	tokenMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	detector := overlap.New(db, logger)

	scheduleService := scheduleservice.New(db, detector, cacheRedis, publisher, scheduleservice.Options{
		IntervalMinutes: cfg.Scheduling.IntervalMinutes,
		BufferMinutes:   cfg.Scheduling.BufferMinutes,
		MaxOccurrences:  cfg.Scheduling.MaxOccurrences,
	}, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, scheduleService, tokenMaker)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		rabbitConn: rabbitConn,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его корректно при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		a.rabbitConn.Close()
		return err
	}
}
