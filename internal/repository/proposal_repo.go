package repository

import (
	"context"
	"fmt"

	"github.com/orcamentox/orcamentox/internal/domain"
	"gorm.io/gorm"
)

type ProposalRepository interface {
	Create(ctx context.Context, p *domain.Proposal) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.Proposal, error)
}

type GormProposalRepo struct {
	db *gorm.DB
}

func NewGormProposalRepo(db *gorm.DB) *GormProposalRepo {
	return &GormProposalRepo{db: db}
}

func (r *GormProposalRepo) Create(ctx context.Context, p *domain.Proposal) error {
	model := proposalModelFromDomain(p)
	if model == nil {
		return fmt.Errorf("%w: proposal is required", domain.ErrValidation)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("%w: insert proposal: %w", domain.ErrGateway, err)
	}
	*p = *proposalModelToDomain(model)
	return nil
}

func (r *GormProposalRepo) ListByRequest(ctx context.Context, requestID string) ([]domain.Proposal, error) {
	var models []ProposalModel
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list proposals: %w", domain.ErrGateway, err)
	}

	proposals := make([]domain.Proposal, 0, len(models))
	for i := range models {
		proposals = append(proposals, *proposalModelToDomain(&models[i]))
	}
	return proposals, nil
}
