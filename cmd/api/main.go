package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/orcamentox/orcamentox/internal/config"
	"github.com/orcamentox/orcamentox/internal/handler"
	"github.com/orcamentox/orcamentox/internal/infra/postgresql"
	"github.com/orcamentox/orcamentox/internal/infra/postgresql/migrations"
	infraredis "github.com/orcamentox/orcamentox/internal/infra/redis"
	"github.com/orcamentox/orcamentox/internal/observability"
	"github.com/orcamentox/orcamentox/internal/queue"
	"github.com/orcamentox/orcamentox/internal/relay"
	"github.com/orcamentox/orcamentox/internal/repository"
	"github.com/orcamentox/orcamentox/internal/service"
	"github.com/orcamentox/orcamentox/internal/storage"
	"github.com/orcamentox/orcamentox/internal/transport"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(observability.LoggerOptions{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "orcamentox-api",
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

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
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
	publisher := queue.NewRabbitMQPublisher(rabbit)
	defer publisher.Close() //nolint:errcheck

	relayClient, err := relay.NewClient(cfg.RelayURL, cfg.RelayAuthToken, cfg.RelayTimeout)
	if err != nil {
		logger.Fatal("relay client initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	requests := repository.NewGormServiceRequestRepo(db)
	providers := repository.NewGormProviderRepo(db)
	proposals := repository.NewGormProposalRepo(db)

	fanoutGuard, err := infraredis.NewRedisFanoutGuard(rdb, cfg.FanoutGuardTTL)
	if err != nil {
		logger.Fatal("fan-out guard initialization failed", zap.Error(err))
	}

	requestService, err := newRequestService(cfg, requests, providers, relayClient, fanoutGuard, metrics, logger)
	if err != nil {
		logger.Fatal("request service initialization failed", zap.Error(err))
	}

	proposalService, err := service.NewProposalService(proposals, requests, providers, relayClient, logger)
	if err != nil {
		logger.Fatal("proposal service initialization failed", zap.Error(err))
	}
	proposalService.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
		BodyLimit:    8 << 20,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(handler.CorrelationMiddleware())
	app.Use(metrics.HTTPMiddleware())

	readiness := []handler.ReadinessCheck{
		{Name: "postgres", Check: sqlDB.PingContext},
		{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		{Name: "rabbitmq", Check: rabbit.Ping},
	}

	var blobs *storage.BlobStore
	if cfg.BlobEnabled() {
		blobs, err = storage.NewBlobStore(storage.Options{
			Endpoint:      cfg.BlobEndpoint,
			AccessKey:     cfg.BlobAccessKey,
			SecretKey:     cfg.BlobSecretKey,
			UseSSL:        cfg.BlobUseSSL,
			PublicBaseURL: cfg.BlobPublicURL,
		})
		if err != nil {
			logger.Fatal("blob store initialization failed", zap.Error(err))
		}
		readiness = append(readiness, handler.ReadinessCheck{Name: "blob", Check: blobs.BucketCheck(cfg.BlobBucket)})
	} else {
		logger.Warn("BLOB_ENDPOINT not set, uploads disabled")
	}
	handler.RegisterHealthRoutes(app, readiness...)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterProposalRoutes(app, proposalService); err != nil {
		logger.Fatal("proposal routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterRequestRoutes(app, requestService, publisher); err != nil {
		logger.Fatal("request routes registration failed", zap.Error(err))
	}

	if blobs != nil {
		if err := handler.RegisterUploadRoutes(app, blobs, cfg.BlobBucket); err != nil {
			logger.Fatal("upload routes registration failed", zap.Error(err))
		}
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down api")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("api shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("orcamentox api started", zap.Int("port", cfg.APIPort))
	if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
		logger.Fatal("api server stopped", zap.Error(err))
	}
}

func newRequestService(
	cfg *config.Config,
	requests repository.ServiceRequestRepository,
	providers repository.ProviderRepository,
	sender relay.Sender,
	fanoutGuard *infraredis.RedisFanoutGuard,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*service.RequestService, error) {
	matcher, err := service.NewProviderMatcher(providers, logger)
	if err != nil {
		return nil, err
	}

	dispatcher, err := service.NewFanoutDispatcher(sender, logger)
	if err != nil {
		return nil, err
	}
	dispatcher.SetMetrics(metrics)

	svc, err := service.NewRequestService(requests, matcher, dispatcher, fanoutGuard, cfg.AppBaseURL, logger)
	if err != nil {
		return nil, err
	}
	svc.SetMetrics(metrics)
	return svc, nil
}
