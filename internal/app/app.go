package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/attendly/attendly/internal/config"
	"github.com/attendly/attendly/internal/postgres"
	"github.com/attendly/attendly/internal/redis"
	postgresrepo "github.com/attendly/attendly/internal/repository/postgres"
	redisrepo "github.com/attendly/attendly/internal/repository/redis"
	"github.com/attendly/attendly/internal/service"
	"github.com/attendly/attendly/internal/service/allocation"
	httpgin "github.com/attendly/attendly/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(context.Background(), redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	store := postgresrepo.NewStore(pgxPool)
	adapter := postgresrepo.NewAdapter(store)

	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewRegistrationsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "rl", cfg.Allocation.RateLimitRPM, time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, cfg.Allocation.IdempotencyTTL)

	services := service.NewServices(
		service.Stores{
			Allocation:  adapter,
			Events:      adapter,
			Subscribers: adapter,
		},
		cache,
		pubsub,
		limiter,
		logger,
		service.Config{
			Allocation: allocation.Config{
				MaxAttempts:  cfg.Allocation.MaxAttempts,
				RetryBackoff: cfg.Allocation.RetryBackoff,
				RosterTTL:    cfg.Allocation.RosterTTL,
			},
		},
	)

	router := httpgin.NewRouter(
		services,
		idempotencyStore,
		logger,
		httpgin.RequestIDMiddleware(),
		httpgin.CORS(),
		httpgin.LoggingMiddleware(logger),
	)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
