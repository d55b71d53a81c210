package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/orcamentox/orcamentox/internal/domain"
	"github.com/orcamentox/orcamentox/internal/observability"
	"github.com/orcamentox/orcamentox/internal/queue"
	"github.com/orcamentox/orcamentox/internal/service"
)

type RequestService interface {
	NotifyProviders(ctx context.Context, requestID string) (*service.FanoutSummary, error)
	ListByClient(ctx context.Context, clientID string, clientEmail string) ([]domain.ServiceRequest, error)
}

type RequestHandler struct {
	service   RequestService
	publisher queue.Publisher
}

func NewRequestHandler(service RequestService, publisher queue.Publisher) (*RequestHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("request service is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("queue publisher is required")
	}
	return &RequestHandler{service: service, publisher: publisher}, nil
}

func RegisterRequestRoutes(router fiber.Router, service RequestService, publisher queue.Publisher) error {
	h, err := NewRequestHandler(service, publisher)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/requests", h.ListRequests)
	v1.Post("/requests/:id/notify", h.EnqueueNotification)
	v1.Post("/requests/:id/notify/sync", h.NotifyProviders)

	return nil
}

type requestResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	CategoryID    string    `json:"categoryId"`
	CategorySlug  string    `json:"categorySlug,omitempty"`
	SubcategoryID *string   `json:"subcategoryId,omitempty"`
	State         string    `json:"state"`
	City          string    `json:"city"`
	Status        string    `json:"status"`
	ClientID      *string   `json:"clientId,omitempty"`
	ClientEmail   *string   `json:"clientEmail,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type listRequestsResponse struct {
	Data []requestResponse `json:"data"`
}

type fanoutResponse struct {
	RequestID  string `json:"requestId"`
	Result     string `json:"result"`
	Recipients int    `json:"recipients"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	Message    string `json:"message"`
}

type listRequestsQuery struct {
	ClientID    string `validate:"omitempty,max=64"`
	ClientEmail string `validate:"omitempty,email,max=255"`
}

func (h *RequestHandler) ListRequests(c *fiber.Ctx) error {
	query := listRequestsQuery{
		ClientID:    strings.TrimSpace(c.Query("clientId")),
		ClientEmail: strings.TrimSpace(c.Query("clientEmail")),
	}
	if err := validateStruct(c.UserContext(), &query); err != nil {
		return toHTTPError(err)
	}

	requests, err := h.service.ListByClient(c.UserContext(), query.ClientID, query.ClientEmail)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]requestResponse, 0, len(requests))
	for i := range requests {
		data = append(data, toRequestResponse(&requests[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listRequestsResponse{Data: data})
}

// EnqueueNotification hands the fan-out to the worker.
func (h *RequestHandler) EnqueueNotification(c *fiber.Ctx) error {
	requestID := strings.TrimSpace(c.Params("id"))
	if requestID == "" {
		return toHTTPError(fmt.Errorf("%w: request id is required", domain.ErrValidation))
	}

	correlationID, _ := observability.CorrelationIDFromContext(c.UserContext())
	msg := queue.RequestCreatedMessage{
		RequestID:     requestID,
		CorrelationID: correlationID,
	}
	if err := h.publisher.Publish(c.UserContext(), queue.RequestCreatedQueue, msg); err != nil {
		return fmt.Errorf("failed to enqueue provider notification: %w", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"requestId":     requestID,
		"correlationId": correlationID,
		"status":        "queued",
	})
}

func (h *RequestHandler) NotifyProviders(c *fiber.Ctx) error {
	summary, err := h.service.NotifyProviders(c.UserContext(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fanoutResponse{
		RequestID:  summary.RequestID,
		Result:     summary.Result.String(),
		Recipients: summary.Recipients,
		Succeeded:  summary.Tally.Succeeded,
		Failed:     summary.Tally.Failed,
		Message:    summary.Message,
	})
}

func toRequestResponse(r *domain.ServiceRequest) requestResponse {
	return requestResponse{
		ID:            r.ID,
		Title:         r.Title,
		CategoryID:    r.CategoryID,
		CategorySlug:  r.CategorySlug,
		SubcategoryID: r.SubcategoryID,
		State:         r.Region.State,
		City:          r.Region.City,
		Status:        r.Status.String(),
		ClientID:      r.ClientID,
		ClientEmail:   r.ClientEmail,
		CreatedAt:     r.CreatedAt,
	}
}
