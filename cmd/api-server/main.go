package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stackit/database"
	"stackit/internal/config"
	"stackit/internal/microservices/http-api/handler"
	"stackit/internal/microservices/http-api/repository"
	"stackit/internal/microservices/http-api/service"
	"stackit/internal/microservices/websocket"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server_error", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("server_stopped_gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	checks := map[string]handler.HealthCheck{}

	// Store
	store, err := openStore(ctx, cfg, logger, checks)
	if err != nil {
		return err
	}
	defer store.Close()

	// Real-time fan-out, optionally bridged across instances through Redis
	hub := websocket.NewHub()
	var relay *websocket.RedisRelay
	var publisher websocket.Publisher
	if cfg.RedisEnabled() {
		client, err := newRedisClient(cfg)
		if err != nil {
			return err
		}
		defer client.Close()

		relay = websocket.NewRedisRelay(client, cfg.RedisChannel)
		publisher = relay
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	broadcaster := websocket.NewBroadcaster(hub, publisher)
	if relay != nil {
		if err := relay.Start(ctx, websocket.RelayDeliverer(broadcaster)); err != nil {
			return fmt.Errorf("start redis relay: %w", err)
		}
	}

	// Services
	authService := service.NewAuthService(store, cfg)
	router := handler.NewRouter(handler.RouterConfig{
		Auth:         authService,
		Votes:        service.NewVoteService(store, broadcaster, cfg.VoteMaxRetry),
		Acceptance:   service.NewAcceptanceService(store, broadcaster, cfg.VoteMaxRetry),
		Answers:      service.NewAnswerService(store, broadcaster),
		Questions:    service.NewQuestionService(store, broadcaster),
		WebSocket:    websocket.NewHandler(hub, cfg.WSSendBuffer, cfg.CORSOrigins),
		TokenTTL:     cfg.JWTExpiry,
		CORSOrigins:  cfg.CORSOrigins,
		HealthChecks: checks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting_http_server", "addr", srv.Addr, "store", cfg.StoreDriver, "redis", cfg.RedisEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("received_shutdown_signal")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// hijacked websocket connections are not tracked by Shutdown
	hub.CloseAll()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, checks map[string]handler.HealthCheck) (repository.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		store := repository.NewMemoryStore(cfg.DBTxTimeout)
		// an empty in-memory forum is not much use for local runs
		if _, err := database.Seed(ctx, store, logger); err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		logger.Warn("using_memory_store", "demo_password", database.DemoPassword)
		return store, nil
	}

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	checks["database"] = sqlDB.PingContext
	return repository.NewGormStore(db, cfg.DBTxTimeout), nil
}

func newRedisClient(cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	return redis.NewClient(opts), nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
