package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/orcamentox/orcamentox/internal/domain"
	"gorm.io/gorm"
)

type ProviderRepository interface {
	FindActiveByCategoryAndRegion(ctx context.Context, categorySlug string, region domain.Region) ([]domain.Provider, error)
	GetByID(ctx context.Context, id string) (*domain.Provider, error)
}

type GormProviderRepo struct {
	db *gorm.DB
}

func NewGormProviderRepo(db *gorm.DB) *GormProviderRepo {
	return &GormProviderRepo{db: db}
}

func (r *GormProviderRepo) FindActiveByCategoryAndRegion(
	ctx context.Context,
	categorySlug string,
	region domain.Region,
) ([]domain.Provider, error) {
	var models []ProviderModel
	err := r.db.WithContext(ctx).
		Where("active = ? AND category_slug = ? AND state = ? AND city = ?", true, categorySlug, region.State, region.City).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("%w: query providers: %w", domain.ErrGateway, err)
	}

	providers := make([]domain.Provider, 0, len(models))
	for i := range models {
		providers = append(providers, *providerModelToDomain(&models[i]))
	}
	return providers, nil
}

func (r *GormProviderRepo) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	var model ProviderModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: provider %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load provider %s: %w", domain.ErrGateway, id, err)
	}
	return providerModelToDomain(&model), nil
}
