package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/orcamentox/orcamentox/internal/domain"
	"gorm.io/gorm"
)

const requestColumns = `service_requests.id, service_requests.title, service_requests.category_id,
categories.slug AS category_slug, service_requests.subcategory_id, service_requests.state,
service_requests.city, service_requests.status, service_requests.client_id,
service_requests.client_email, service_requests.client_phone, service_requests.created_at`

type ServiceRequestRepository interface {
	GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	GetClientContact(ctx context.Context, id string) (*domain.ClientContact, error)
	ListByClient(ctx context.Context, clientID string, clientEmail string) ([]domain.ServiceRequest, error)
}

type GormServiceRequestRepo struct {
	db *gorm.DB
}

func NewGormServiceRequestRepo(db *gorm.DB) *GormServiceRequestRepo {
	return &GormServiceRequestRepo{db: db}
}

func (r *GormServiceRequestRepo) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	var row requestRow
	result := r.withCategory(ctx).
		Where("service_requests.id = ?", id).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: load service request %s: %w", domain.ErrGateway, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: service request %s", domain.ErrNotFound, id)
	}
	return requestRowToDomain(&row)
}

// GetClientContact returns the request title with both candidate client
// phones: the one on the client's profile and the one stored on the request.
func (r *GormServiceRequestRepo) GetClientContact(ctx context.Context, id string) (*domain.ClientContact, error) {
	var row contactRow
	result := r.db.WithContext(ctx).
		Table("service_requests").
		Select(`service_requests.id AS request_id, service_requests.title,
profiles.phone AS profile_phone, service_requests.client_phone AS request_phone`).
		Joins("LEFT JOIN profiles ON profiles.id = service_requests.client_id").
		Where("service_requests.id = ?", id).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: load client contact for request %s: %w", domain.ErrGateway, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: service request %s", domain.ErrNotFound, id)
	}

	return &domain.ClientContact{
		RequestID:    row.RequestID,
		Title:        row.Title,
		ProfilePhone: row.ProfilePhone,
		RequestPhone: row.RequestPhone,
	}, nil
}

// ListByClient matches requests owned by the client id OR filed under the
// client email, newest first.
func (r *GormServiceRequestRepo) ListByClient(ctx context.Context, clientID string, clientEmail string) ([]domain.ServiceRequest, error) {
	clientID = strings.TrimSpace(clientID)
	clientEmail = strings.TrimSpace(clientEmail)

	query := r.withCategory(ctx)
	switch {
	case clientID != "" && clientEmail != "":
		query = query.Where("service_requests.client_id = ? OR service_requests.client_email = ?", clientID, clientEmail)
	case clientID != "":
		query = query.Where("service_requests.client_id = ?", clientID)
	case clientEmail != "":
		query = query.Where("service_requests.client_email = ?", clientEmail)
	default:
		return nil, fmt.Errorf("%w: client id or client email is required", domain.ErrValidation)
	}

	var rows []requestRow
	if err := query.Order("service_requests.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list service requests: %w", domain.ErrGateway, err)
	}

	requests := make([]domain.ServiceRequest, 0, len(rows))
	for i := range rows {
		req, err := requestRowToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, nil
}

func (r *GormServiceRequestRepo) withCategory(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("service_requests").
		Select(requestColumns).
		Joins("LEFT JOIN categories ON categories.id = service_requests.category_id")
}
