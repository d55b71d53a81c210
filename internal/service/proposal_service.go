package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orcamentox/orcamentox/internal/domain"
	"github.com/orcamentox/orcamentox/internal/formatter"
	"github.com/orcamentox/orcamentox/internal/observability"
	"github.com/orcamentox/orcamentox/internal/relay"
	"github.com/orcamentox/orcamentox/internal/repository"
	"go.uber.org/zap"
)

// NotificationOutcome is the client notification state after a proposal was stored.
type NotificationOutcome string

const (
	NotificationSent    NotificationOutcome = "sent"
	NotificationSkipped NotificationOutcome = "skipped"
	NotificationFailed  NotificationOutcome = "failed"
)

func (o NotificationOutcome) String() string { return string(o) }

// Message is the user-facing confirmation for the outcome.
func (o NotificationOutcome) Message() string {
	switch o {
	case NotificationSent:
		return "Proposta enviada e cliente notificado"
	case NotificationSkipped:
		return "Proposta enviada (notificação não enviada: dados de contato ausentes)"
	default:
		return "Proposta enviada (falha ao notificar o cliente)"
	}
}

// ProposalSubmission carries a new proposal plus the submitting provider's
// identity as known by the caller. An empty Provider is looked up by id.
type ProposalSubmission struct {
	Proposal domain.Proposal
	Provider domain.ProviderIdentity
}

type ProposalResult struct {
	Proposal     *domain.Proposal
	Notification NotificationOutcome
}

type ProposalService struct {
	proposals repository.ProposalRepository
	requests  repository.ServiceRequestRepository
	providers repository.ProviderRepository
	sender    relay.Sender
	logger    *zap.Logger
	metrics   *observability.Metrics
	now       func() time.Time
	newID     func() string
}

func NewProposalService(
	proposals repository.ProposalRepository,
	requests repository.ServiceRequestRepository,
	providers repository.ProviderRepository,
	sender relay.Sender,
	logger *zap.Logger,
) (*ProposalService, error) {
	if proposals == nil {
		return nil, fmt.Errorf("proposal repository is required")
	}
	if requests == nil {
		return nil, fmt.Errorf("service request repository is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("relay sender is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProposalService{
		proposals: proposals,
		requests:  requests,
		providers: providers,
		sender:    sender,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

func (s *ProposalService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Submit stores the proposal and then tries to notify the request's client.
// Only validation and the insert itself can fail the call.
func (s *ProposalService) Submit(ctx context.Context, submission ProposalSubmission) (*ProposalResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	proposal := submission.Proposal
	proposal.RequestID = strings.TrimSpace(proposal.RequestID)
	proposal.ProviderID = strings.TrimSpace(proposal.ProviderID)
	proposal.Description = strings.TrimSpace(proposal.Description)
	if err := proposal.Validate(); err != nil {
		return nil, err
	}

	proposal.ID = s.newID()
	proposal.CreatedAt = s.now().UTC()
	if err := s.proposals.Create(ctx, &proposal); err != nil {
		return nil, fmt.Errorf("failed to store proposal: %w", err)
	}

	logger := observability.LoggerFromContext(ctx, s.logger).With(
		zap.String("proposalId", proposal.ID),
		zap.String("requestId", proposal.RequestID),
		zap.String("providerId", proposal.ProviderID),
	)

	outcome := s.notifyClient(ctx, logger, &proposal, submission.Provider)
	s.metrics.IncProposalSubmitted(outcome.String())

	return &ProposalResult{Proposal: &proposal, Notification: outcome}, nil
}

func (s *ProposalService) ListByRequest(ctx context.Context, requestID string) ([]domain.Proposal, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, fmt.Errorf("%w: request id is required", domain.ErrValidation)
	}
	return s.proposals.ListByRequest(ctx, requestID)
}

func (s *ProposalService) notifyClient(
	ctx context.Context,
	logger *zap.Logger,
	proposal *domain.Proposal,
	identity domain.ProviderIdentity,
) NotificationOutcome {
	contact, err := s.requests.GetClientContact(ctx, proposal.RequestID)
	if err != nil {
		logger.Warn("client contact lookup failed, skipping notification", zap.Error(err))
		return NotificationSkipped
	}

	clientPhone := domain.NormalizePhone(contact.ResolvePhone())
	if clientPhone == "" {
		logger.Info("client has no phone, skipping notification")
		return NotificationSkipped
	}

	identity = s.resolveIdentity(ctx, logger, proposal.ProviderID, identity)
	if !identity.IsComplete() {
		logger.Info("provider identity incomplete, skipping notification")
		return NotificationSkipped
	}

	message := formatter.RenderNewProposalMessage(formatter.NewProposalFields{
		Value:             proposal.Value,
		Deadline:          proposal.EstimatedDeadline,
		Description:       proposal.Description,
		ServiceTitle:      contact.Title,
		ProviderName:      identity.Name,
		ProviderPhone:     identity.Phone,
		MaterialsIncluded: proposal.MaterialsIncluded,
		Warranty:          proposal.Warranty,
	})

	startedAt := s.now()
	_, err = s.sender.Send(ctx, clientPhone, message)
	if err != nil {
		s.metrics.ObserveRelaySend(templateNewProposal, outcomeFailed, s.now().Sub(startedAt))
		logger.Warn("failed to notify client about proposal",
			zap.String("recipient", maskPhone(clientPhone)),
			zap.String("reason", relay.FailureReason(err)),
			zap.Error(err),
		)
		return NotificationFailed
	}
	s.metrics.ObserveRelaySend(templateNewProposal, outcomeSent, s.now().Sub(startedAt))

	logger.Info("client notified about proposal", zap.String("recipient", maskPhone(clientPhone)))
	return NotificationSent
}

func (s *ProposalService) resolveIdentity(
	ctx context.Context,
	logger *zap.Logger,
	providerID string,
	identity domain.ProviderIdentity,
) domain.ProviderIdentity {
	identity.Name = strings.TrimSpace(identity.Name)
	identity.Phone = domain.NormalizePhone(identity.Phone)
	if identity.IsComplete() || s.providers == nil {
		return identity
	}

	provider, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		logger.Warn("provider lookup failed", zap.Error(err))
		return identity
	}
	if identity.Name == "" {
		identity.Name = strings.TrimSpace(provider.DisplayName)
	}
	if identity.Phone == "" && provider.Phone != nil {
		identity.Phone = domain.NormalizePhone(*provider.Phone)
	}
	return identity
}
