package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Proposal is a provider's bid against a service request. It is inserted once
// and never updated.
type Proposal struct {
	ID                string
	RequestID         string
	ProviderID        string
	Value             *decimal.Decimal
	EstimatedDeadline *string
	Description       string
	MaterialsIncluded bool
	Warranty          *string
	CreatedAt         time.Time
}

func (p *Proposal) Validate() error {
	if strings.TrimSpace(p.RequestID) == "" {
		return fmt.Errorf("%w: request id is required", ErrValidation)
	}
	if strings.TrimSpace(p.ProviderID) == "" {
		return fmt.Errorf("%w: provider id is required", ErrValidation)
	}
	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if p.Value != nil && p.Value.IsNegative() {
		return fmt.Errorf("%w: proposal value must not be negative", ErrValidation)
	}
	return nil
}
