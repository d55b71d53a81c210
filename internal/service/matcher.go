package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/orcamentox/orcamentox/internal/domain"
	"github.com/orcamentox/orcamentox/internal/observability"
	"github.com/orcamentox/orcamentox/internal/repository"
	"go.uber.org/zap"
)

// ProviderMatcher turns a request's category and region into WhatsApp recipients.
// Matching is exact equality on category slug, state and city.
type ProviderMatcher struct {
	providers repository.ProviderRepository
	logger    *zap.Logger
}

func NewProviderMatcher(providers repository.ProviderRepository, logger *zap.Logger) (*ProviderMatcher, error) {
	if providers == nil {
		return nil, fmt.Errorf("provider repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProviderMatcher{
		providers: providers,
		logger:    logger,
	}, nil
}

// Match returns the normalized phones of active providers for the category
// and region. Providers without a phone are skipped; duplicates are kept.
// A store failure is returned wrapped in domain.ErrGateway.
func (m *ProviderMatcher) Match(ctx context.Context, categorySlug string, region domain.Region) ([]string, error) {
	categorySlug = strings.TrimSpace(categorySlug)
	if categorySlug == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrValidation)
	}
	if err := region.Validate(); err != nil {
		return nil, err
	}
	region = domain.Region{
		State: strings.TrimSpace(region.State),
		City:  strings.TrimSpace(region.City),
	}

	providers, err := m.providers.FindActiveByCategoryAndRegion(ctx, categorySlug, region)
	if err != nil {
		observability.LoggerFromContext(ctx, m.logger).Error("provider lookup failed",
			zap.String("category", categorySlug),
			zap.String("state", region.State),
			zap.String("city", region.City),
			zap.Error(err),
		)
		return nil, err
	}

	recipients := make([]string, 0, len(providers))
	for _, p := range providers {
		if p.Phone == nil {
			continue
		}
		if normalized := domain.NormalizePhone(*p.Phone); normalized != "" {
			recipients = append(recipients, normalized)
		}
	}

	observability.LoggerFromContext(ctx, m.logger).Debug("providers matched",
		zap.String("category", categorySlug),
		zap.String("state", region.State),
		zap.String("city", region.City),
		zap.Int("providers", len(providers)),
		zap.Int("recipients", len(recipients)),
	)

	return recipients, nil
}
