package repository

import (
	"fmt"
	"time"

	"github.com/orcamentox/orcamentox/internal/domain"
	"github.com/shopspring/decimal"
)

// CategoryModel is the persistence model for the categories table.
type CategoryModel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"type:varchar(120);not null"`
	Slug      string `gorm:"type:varchar(120);not null;uniqueIndex"`
	CreatedAt time.Time
}

func (CategoryModel) TableName() string {
	return "categories"
}

// ProfileModel is the persistence model for client profiles.
type ProfileModel struct {
	ID        string  `gorm:"type:uuid;primaryKey"`
	FullName  string  `gorm:"type:varchar(255)"`
	Email     string  `gorm:"type:varchar(255)"`
	Phone     *string `gorm:"type:varchar(32)"`
	CreatedAt time.Time
}

func (ProfileModel) TableName() string {
	return "profiles"
}

// ServiceRequestModel is the persistence model for the service_requests table.
type ServiceRequestModel struct {
	ID            string               `gorm:"type:uuid;primaryKey"`
	Title         string               `gorm:"type:varchar(255);not null"`
	CategoryID    string               `gorm:"type:uuid;not null"`
	SubcategoryID *string              `gorm:"type:uuid"`
	State         string               `gorm:"type:varchar(2);not null"`
	City          string               `gorm:"type:varchar(120);not null"`
	Status        domain.RequestStatus `gorm:"type:varchar(20);not null"`
	ClientID      *string              `gorm:"type:uuid"`
	ClientEmail   *string              `gorm:"type:varchar(255)"`
	ClientPhone   *string              `gorm:"type:varchar(32)"`
	CreatedAt     time.Time
}

func (ServiceRequestModel) TableName() string {
	return "service_requests"
}

// ProviderModel is the persistence model for the providers table.
type ProviderModel struct {
	ID           string  `gorm:"type:uuid;primaryKey"`
	DisplayName  string  `gorm:"type:varchar(255);not null"`
	CategorySlug string  `gorm:"type:varchar(120);not null"`
	State        string  `gorm:"type:varchar(2);not null"`
	City         string  `gorm:"type:varchar(120);not null"`
	Active       bool    `gorm:"not null"`
	Phone        *string `gorm:"type:varchar(32)"`
	CreatedAt    time.Time
}

func (ProviderModel) TableName() string {
	return "providers"
}

// ProposalModel is the persistence model for the proposals table.
type ProposalModel struct {
	ID                string              `gorm:"type:uuid;primaryKey"`
	RequestID         string              `gorm:"type:uuid;not null"`
	ProviderID        string              `gorm:"type:uuid;not null"`
	Value             decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	EstimatedDeadline *string             `gorm:"type:varchar(120)"`
	Description       string              `gorm:"type:text;not null"`
	MaterialsIncluded bool                `gorm:"not null"`
	Warranty          *string             `gorm:"type:varchar(255)"`
	CreatedAt         time.Time
}

func (ProposalModel) TableName() string {
	return "proposals"
}

// requestRow is the scan target for service_requests joined with categories.
type requestRow struct {
	ID            string
	Title         string
	CategoryID    string
	CategorySlug  *string
	SubcategoryID *string
	State         string
	City          string
	Status        domain.RequestStatus
	ClientID      *string
	ClientEmail   *string
	ClientPhone   *string
	CreatedAt     time.Time
}

// contactRow is the scan target for service_requests joined with profiles.
type contactRow struct {
	RequestID    string
	Title        string
	ProfilePhone *string
	RequestPhone *string
}

// requestRowToDomain rejects rows whose status is not one the pipeline knows.
func requestRowToDomain(r *requestRow) (*domain.ServiceRequest, error) {
	status, err := domain.ParseRequestStatusFromString(string(r.Status))
	if err != nil {
		return nil, fmt.Errorf("%w: service request %s has unknown status %q", domain.ErrGateway, r.ID, r.Status)
	}

	req := &domain.ServiceRequest{
		ID:            r.ID,
		Title:         r.Title,
		CategoryID:    r.CategoryID,
		SubcategoryID: r.SubcategoryID,
		Region:        domain.Region{State: r.State, City: r.City},
		Status:        status,
		ClientID:      r.ClientID,
		ClientEmail:   r.ClientEmail,
		ClientPhone:   r.ClientPhone,
		CreatedAt:     r.CreatedAt,
	}
	if r.CategorySlug != nil {
		req.CategorySlug = *r.CategorySlug
	}
	return req, nil
}

func providerModelToDomain(m *ProviderModel) *domain.Provider {
	if m == nil {
		return nil
	}

	return &domain.Provider{
		ID:           m.ID,
		DisplayName:  m.DisplayName,
		CategorySlug: m.CategorySlug,
		Region:       domain.Region{State: m.State, City: m.City},
		Active:       m.Active,
		Phone:        m.Phone,
		CreatedAt:    m.CreatedAt,
	}
}

func proposalModelFromDomain(p *domain.Proposal) *ProposalModel {
	if p == nil {
		return nil
	}

	model := &ProposalModel{
		ID:                p.ID,
		RequestID:         p.RequestID,
		ProviderID:        p.ProviderID,
		EstimatedDeadline: p.EstimatedDeadline,
		Description:       p.Description,
		MaterialsIncluded: p.MaterialsIncluded,
		Warranty:          p.Warranty,
		CreatedAt:         p.CreatedAt,
	}
	if p.Value != nil {
		model.Value = decimal.NewNullDecimal(*p.Value)
	}
	return model
}

func proposalModelToDomain(m *ProposalModel) *domain.Proposal {
	if m == nil {
		return nil
	}

	p := &domain.Proposal{
		ID:                m.ID,
		RequestID:         m.RequestID,
		ProviderID:        m.ProviderID,
		EstimatedDeadline: m.EstimatedDeadline,
		Description:       m.Description,
		MaterialsIncluded: m.MaterialsIncluded,
		Warranty:          m.Warranty,
		CreatedAt:         m.CreatedAt,
	}
	if m.Value.Valid {
		value := m.Value.Decimal
		p.Value = &value
	}
	return p
}
