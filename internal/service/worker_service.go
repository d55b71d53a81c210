package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/orcamentox/orcamentox/internal/domain"
	"github.com/orcamentox/orcamentox/internal/observability"
	"github.com/orcamentox/orcamentox/internal/queue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const minWorkerConcurrency = 1

// RequestNotifier runs the provider fan-out for one request.
type RequestNotifier interface {
	NotifyProviders(ctx context.Context, requestID string) (*FanoutSummary, error)
}

// Request event outcomes, as reported to metrics.
const (
	eventProcessed = "processed"
	eventDropped   = "dropped"
	eventRetried   = "retried"
)

type WorkerService struct {
	consumer    queue.Consumer
	notifier    RequestNotifier
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
}

func NewWorkerService(
	consumer queue.Consumer,
	notifier RequestNotifier,
	concurrency int,
	logger *zap.Logger,
) (*WorkerService, error) {
	if consumer == nil {
		return nil, fmt.Errorf("queue consumer is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("request notifier is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WorkerService{
		consumer:    consumer,
		notifier:    notifier,
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

func (s *WorkerService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Start runs the configured number of consumers, spread across the work
// queues, until ctx is canceled or one of them fails.
func (s *WorkerService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	queues := queue.WorkQueueNames()
	if len(queues) == 0 {
		return fmt.Errorf("no work queues configured")
	}

	g, gctx := errgroup.WithContext(ctx)
	for n := 0; n < s.concurrency; n++ {
		name := queues[n%len(queues)]
		logger := s.logger.With(zap.Int("consumer", n+1), zap.String("queue", name))

		g.Go(func() error {
			logger.Info("consumer started")
			defer logger.Info("consumer stopped")

			if err := s.consumer.Consume(gctx, name, s.processMessage); err != nil {
				logger.Error("consumer failed", zap.Error(err))
				return fmt.Errorf("consume %s: %w", name, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// processMessage returns an error only when the message should be redelivered.
func (s *WorkerService) processMessage(ctx context.Context, msg queue.RequestCreatedMessage) error {
	ctx, correlationID := observability.EnsureCorrelationID(ctx, msg.CorrelationID)
	logger := s.logger.With(
		zap.String("requestId", msg.RequestID),
		zap.String("correlationId", correlationID),
	)

	summary, err := s.notifier.NotifyProviders(ctx, msg.RequestID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation),
			errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrConflict):
			logger.Warn("dropping request event", zap.Error(err))
			s.metrics.IncRequestEvent(eventDropped)
			return nil
		default:
			s.metrics.IncRequestEvent(eventRetried)
			return fmt.Errorf("failed to notify providers: %w", err)
		}
	}

	logger.Info("request event processed",
		zap.String("result", summary.Result.String()),
		zap.Int("succeeded", summary.Tally.Succeeded),
		zap.Int("failed", summary.Tally.Failed),
	)
	s.metrics.IncRequestEvent(eventProcessed)
	return nil
}
