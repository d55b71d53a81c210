package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/orcamentox/orcamentox/internal/domain"
	"github.com/orcamentox/orcamentox/internal/formatter"
	"github.com/orcamentox/orcamentox/internal/guard"
	"github.com/orcamentox/orcamentox/internal/observability"
	"github.com/orcamentox/orcamentox/internal/repository"
	"go.uber.org/zap"
)

// FanoutResult classifies a provider fan-out for a request.
type FanoutResult string

const (
	FanoutComplete        FanoutResult = "complete"
	FanoutPartial         FanoutResult = "partial"
	FanoutFailed          FanoutResult = "failed"
	FanoutNoProviders     FanoutResult = "no_providers"
	FanoutAlreadyNotified FanoutResult = "already_notified"
)

func (r FanoutResult) String() string { return string(r) }

// FanoutSummary reports what happened when providers were notified about a request.
type FanoutSummary struct {
	RequestID  string
	Result     FanoutResult
	Recipients int
	Tally      Tally
	Message    string
}

// Dispatcher is the fan-out port used by RequestService.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipients []string, message string) (Tally, error)
}

// Matcher is the provider lookup port used by RequestService.
type Matcher interface {
	Match(ctx context.Context, categorySlug string, region domain.Region) ([]string, error)
}

type RequestService struct {
	requests   repository.ServiceRequestRepository
	matcher    Matcher
	dispatcher Dispatcher
	guard      guard.FanoutGuard
	baseURL    string
	logger     *zap.Logger
	metrics    *observability.Metrics
}

func NewRequestService(
	requests repository.ServiceRequestRepository,
	matcher Matcher,
	dispatcher Dispatcher,
	fanoutGuard guard.FanoutGuard,
	baseURL string,
	logger *zap.Logger,
) (*RequestService, error) {
	if requests == nil {
		return nil, fmt.Errorf("service request repository is required")
	}
	if matcher == nil {
		return nil, fmt.Errorf("provider matcher is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("fan-out dispatcher is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("app base url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RequestService{
		requests:   requests,
		matcher:    matcher,
		dispatcher: dispatcher,
		guard:      fanoutGuard,
		baseURL:    strings.TrimSpace(baseURL),
		logger:     logger,
	}, nil
}

func (s *RequestService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// NotifyProviders messages every matching provider about a new request.
// Only an unreadable or non-active request, or a fan-out that cannot start,
// is an error; failed recipients are reported in the summary.
func (s *RequestService) NotifyProviders(ctx context.Context, requestID string) (*FanoutSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, fmt.Errorf("%w: request id is required", domain.ErrValidation)
	}

	logger := observability.LoggerFromContext(ctx, s.logger).With(zap.String("requestId", requestID))

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestStatusActive {
		return nil, fmt.Errorf("%w: request %s is %s", domain.ErrConflict, requestID, req.Status)
	}

	if s.guard != nil {
		acquired, err := s.guard.Acquire(ctx, requestID)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire fan-out guard: %w", err)
		}
		if !acquired {
			logger.Info("providers already notified for request")
			return s.finish(&FanoutSummary{
				RequestID: requestID,
				Result:    FanoutAlreadyNotified,
				Message:   "prestadores já notificados",
			}), nil
		}
	}

	recipients, err := s.matcher.Match(ctx, req.CategorySlug, req.Region)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			s.release(ctx, logger, requestID)
			return nil, err
		}
		// Reads degrade to "no data".
		logger.Warn("provider lookup failed, continuing without recipients", zap.Error(err))
		s.release(ctx, logger, requestID)
		recipients = nil
	}

	if len(recipients) == 0 {
		logger.Info("no providers found for request",
			zap.String("category", req.CategorySlug),
			zap.String("state", req.Region.State),
			zap.String("city", req.Region.City),
		)
		return s.finish(&FanoutSummary{
			RequestID: requestID,
			Result:    FanoutNoProviders,
			Message:   "nenhum prestador encontrado",
		}), nil
	}

	message := formatter.RenderNewRequestMessage(s.baseURL, req.Title, req.ID)
	tally, err := s.dispatcher.Dispatch(ctx, recipients, message)
	if err != nil {
		s.release(ctx, logger, requestID)
		return nil, fmt.Errorf("failed to dispatch provider notifications: %w", err)
	}

	summary := &FanoutSummary{
		RequestID:  requestID,
		Result:     resultFromTally(tally),
		Recipients: len(recipients),
		Tally:      tally,
		Message:    tally.Summary(),
	}
	if summary.Result != FanoutComplete {
		logger.Warn("provider fan-out finished with failures",
			zap.Int("succeeded", tally.Succeeded),
			zap.Int("failed", tally.Failed),
		)
	}

	return s.finish(summary), nil
}

// ListByClient lists a client's requests matched by client id OR email.
func (s *RequestService) ListByClient(ctx context.Context, clientID string, clientEmail string) ([]domain.ServiceRequest, error) {
	if strings.TrimSpace(clientID) == "" && strings.TrimSpace(clientEmail) == "" {
		return nil, fmt.Errorf("%w: clientId or clientEmail is required", domain.ErrValidation)
	}
	return s.requests.ListByClient(ctx, clientID, clientEmail)
}

func (s *RequestService) finish(summary *FanoutSummary) *FanoutSummary {
	s.metrics.ObserveFanout(summary.Result.String(), summary.Recipients)
	return summary
}

func (s *RequestService) release(ctx context.Context, logger *zap.Logger, requestID string) {
	if s.guard == nil {
		return
	}
	if err := s.guard.Release(ctx, requestID); err != nil {
		logger.Warn("failed to release fan-out guard", zap.Error(err))
	}
}

func resultFromTally(t Tally) FanoutResult {
	switch {
	case t.Failed == 0:
		return FanoutComplete
	case t.Succeeded == 0:
		return FanoutFailed
	default:
		return FanoutPartial
	}
}
