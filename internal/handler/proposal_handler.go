package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/orcamentox/orcamentox/internal/domain"
	"github.com/orcamentox/orcamentox/internal/service"
	"github.com/shopspring/decimal"
)

type ProposalService interface {
	Submit(ctx context.Context, submission service.ProposalSubmission) (*service.ProposalResult, error)
	ListByRequest(ctx context.Context, requestID string) ([]domain.Proposal, error)
}

type ProposalHandler struct {
	service ProposalService
}

func NewProposalHandler(service ProposalService) (*ProposalHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("proposal service is required")
	}
	return &ProposalHandler{service: service}, nil
}

func RegisterProposalRoutes(router fiber.Router, service ProposalService) error {
	h, err := NewProposalHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/proposals", h.SubmitProposal)
	v1.Get("/requests/:id/proposals", h.ListProposals)

	return nil
}

// submitProposalRequest carries the provider's name and phone because the
// caller already holds the provider's session profile.
type submitProposalRequest struct {
	RequestID         string           `json:"requestId" validate:"required,max=64"`
	ProviderID        string           `json:"providerId" validate:"required,max=64"`
	Value             *decimal.Decimal `json:"value" validate:"-"`
	EstimatedDeadline *string          `json:"estimatedDeadline" validate:"omitempty,max=120"`
	Description       string           `json:"description" validate:"required,max=5000"`
	MaterialsIncluded bool             `json:"materialsIncluded"`
	Warranty          *string          `json:"warranty" validate:"omitempty,max=255"`
	ProviderName      string           `json:"providerName" validate:"omitempty,max=255"`
	ProviderPhone     string           `json:"providerPhone" validate:"omitempty,max=32"`
}

type proposalResponse struct {
	ID                string           `json:"id"`
	RequestID         string           `json:"requestId"`
	ProviderID        string           `json:"providerId"`
	Value             *decimal.Decimal `json:"value"`
	EstimatedDeadline *string          `json:"estimatedDeadline,omitempty"`
	Description       string           `json:"description"`
	MaterialsIncluded bool             `json:"materialsIncluded"`
	Warranty          *string          `json:"warranty,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
}

type submitProposalResponse struct {
	Proposal     proposalResponse `json:"proposal"`
	Notification string           `json:"notification"`
	Message      string           `json:"message"`
}

type listProposalsResponse struct {
	Data []proposalResponse `json:"data"`
}

func (h *ProposalHandler) SubmitProposal(c *fiber.Ctx) error {
	var req submitProposalRequest
	if err := bindJSON(c, &req); err != nil {
		return toHTTPError(err)
	}

	result, err := h.service.Submit(c.UserContext(), service.ProposalSubmission{
		Proposal: domain.Proposal{
			RequestID:         strings.TrimSpace(req.RequestID),
			ProviderID:        strings.TrimSpace(req.ProviderID),
			Value:             req.Value,
			EstimatedDeadline: req.EstimatedDeadline,
			Description:       req.Description,
			MaterialsIncluded: req.MaterialsIncluded,
			Warranty:          req.Warranty,
		},
		Provider: domain.ProviderIdentity{
			Name:  req.ProviderName,
			Phone: req.ProviderPhone,
		},
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(submitProposalResponse{
		Proposal:     toProposalResponse(result.Proposal),
		Notification: result.Notification.String(),
		Message:      result.Notification.Message(),
	})
}

func (h *ProposalHandler) ListProposals(c *fiber.Ctx) error {
	proposals, err := h.service.ListByRequest(c.UserContext(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]proposalResponse, 0, len(proposals))
	for i := range proposals {
		data = append(data, toProposalResponse(&proposals[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listProposalsResponse{Data: data})
}

func toProposalResponse(p *domain.Proposal) proposalResponse {
	if p == nil {
		return proposalResponse{}
	}

	return proposalResponse{
		ID:                p.ID,
		RequestID:         p.RequestID,
		ProviderID:        p.ProviderID,
		Value:             p.Value,
		EstimatedDeadline: p.EstimatedDeadline,
		Description:       p.Description,
		MaterialsIncluded: p.MaterialsIncluded,
		Warranty:          p.Warranty,
		CreatedAt:         p.CreatedAt,
	}
}
