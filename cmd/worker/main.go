package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/orcamentox/orcamentox/internal/config"
	"github.com/orcamentox/orcamentox/internal/infra/postgresql"
	infraredis "github.com/orcamentox/orcamentox/internal/infra/redis"
	"github.com/orcamentox/orcamentox/internal/observability"
	"github.com/orcamentox/orcamentox/internal/queue"
	"github.com/orcamentox/orcamentox/internal/relay"
	"github.com/orcamentox/orcamentox/internal/repository"
	"github.com/orcamentox/orcamentox/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(observability.LoggerOptions{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "orcamentox-worker",
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	consumer := queue.NewRabbitMQConsumer(rabbit, cfg.WorkerConcurrency, logger)
	defer consumer.Close() //nolint:errcheck

	relayClient, err := relay.NewClient(cfg.RelayURL, cfg.RelayAuthToken, cfg.RelayTimeout)
	if err != nil {
		logger.Fatal("relay client initialization failed", zap.Error(err))
	}

	fanoutGuard, err := infraredis.NewRedisFanoutGuard(rdb, cfg.FanoutGuardTTL)
	if err != nil {
		logger.Fatal("fan-out guard initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	matcher, err := service.NewProviderMatcher(repository.NewGormProviderRepo(db), logger)
	if err != nil {
		logger.Fatal("provider matcher initialization failed", zap.Error(err))
	}
	dispatcher, err := service.NewFanoutDispatcher(relayClient, logger)
	if err != nil {
		logger.Fatal("dispatcher initialization failed", zap.Error(err))
	}
	dispatcher.SetMetrics(metrics)

	requestService, err := service.NewRequestService(
		repository.NewGormServiceRequestRepo(db),
		matcher,
		dispatcher,
		fanoutGuard,
		cfg.AppBaseURL,
		logger,
	)
	if err != nil {
		logger.Fatal("request service initialization failed", zap.Error(err))
	}
	requestService.SetMetrics(metrics)

	worker, err := service.NewWorkerService(consumer, requestService, cfg.WorkerConcurrency, logger)
	if err != nil {
		logger.Fatal("worker initialization failed", zap.Error(err))
	}
	worker.SetMetrics(metrics)

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerMetricsPort),
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker metrics server stopped", zap.Error(err))
		}
	}()

	logger.Info("orcamentox worker started",
		zap.Int("concurrency", cfg.WorkerConcurrency),
		zap.Strings("queues", queue.WorkQueueNames()),
	)

	if err := worker.Start(ctx); err != nil {
		logger.Error("worker stopped with error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker metrics shutdown failed", zap.Error(err))
	}
	logger.Info("orcamentox worker stopped")
}
