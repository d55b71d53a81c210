package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/orcamentox/orcamentox/internal/domain"
	"github.com/orcamentox/orcamentox/internal/observability"
	"github.com/orcamentox/orcamentox/internal/queue"
	"github.com/orcamentox/orcamentox/internal/service"
	"github.com/orcamentox/orcamentox/internal/transport"
	"go.uber.org/zap"
)

func TestProposalIntegration_Submit(t *testing.T) {
	t.Parallel()

	var got service.ProposalSubmission
	svc := &stubProposalService{
		submitFn: func(ctx context.Context, s service.ProposalSubmission) (*service.ProposalResult, error) {
			got = s
			if err := s.Proposal.Validate(); err != nil {
				return nil, err
			}
			p := s.Proposal
			p.ID = "prop-1"
			p.CreatedAt = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
			return &service.ProposalResult{Proposal: &p, Notification: service.NotificationSkipped}, nil
		},
	}
	app := newTestApp(t, func(app *fiber.App) error { return RegisterProposalRoutes(app, svc) })

	body := `{"requestId":"req-1","providerId":"prov-1","value":1500.5,"description":"Pintura completa","materialsIncluded":true,"providerName":"João","providerPhone":"11 93333-2222"}`
	resp, respBody := performRequest(t, app, http.MethodPost, "/v1/proposals", body)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", resp.StatusCode, respBody)
	}

	if got.Proposal.Value == nil || got.Proposal.Value.String() != "1500.5" {
		t.Fatalf("value = %v, want 1500.5", got.Proposal.Value)
	}
	if !got.Proposal.MaterialsIncluded {
		t.Fatal("materialsIncluded should be true")
	}
	if got.Provider.Name != "João" || got.Provider.Phone != "11 93333-2222" {
		t.Fatalf("provider identity = %+v", got.Provider)
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["notification"] != "skipped" {
		t.Fatalf("notification = %v, want skipped", parsed["notification"])
	}
	proposal, ok := parsed["proposal"].(map[string]any)
	if !ok || proposal["id"] != "prop-1" {
		t.Fatalf("proposal = %v", parsed["proposal"])
	}
}

func TestProposalIntegration_SubmitErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{name: "malformed json", body: `{"requestId":`, wantStatus: fiber.StatusBadRequest},
		{name: "missing description", body: `{"requestId":"req-1","providerId":"prov-1"}`, wantStatus: fiber.StatusBadRequest},
		{name: "missing provider", body: `{"requestId":"req-1","description":"x"}`, wantStatus: fiber.StatusBadRequest},
		{
			name:       "negative value rejected by service",
			body:       `{"requestId":"req-1","providerId":"prov-1","description":"x","value":-10}`,
			serviceErr: fmt.Errorf("%w: proposal value must not be negative", domain.ErrValidation),
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "insert failure",
			body:       `{"requestId":"req-1","providerId":"prov-1","description":"x"}`,
			serviceErr: fmt.Errorf("failed to store proposal: %w", domain.ErrGateway),
			wantStatus: fiber.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			svc := &stubProposalService{
				submitFn: func(ctx context.Context, s service.ProposalSubmission) (*service.ProposalResult, error) {
					called = true
					return nil, tt.serviceErr
				},
			}
			app := newTestApp(t, func(app *fiber.App) error { return RegisterProposalRoutes(app, svc) })

			resp, body := performRequest(t, app, http.MethodPost, "/v1/proposals", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.serviceErr == nil && called {
				t.Fatal("service should not be called for invalid body")
			}
		})
	}
}

func TestProposalIntegration_List(t *testing.T) {
	t.Parallel()

	svc := &stubProposalService{
		listFn: func(ctx context.Context, requestID string) ([]domain.Proposal, error) {
			if requestID != "req-1" {
				return nil, fmt.Errorf("%w: request %s", domain.ErrNotFound, requestID)
			}
			return []domain.Proposal{{ID: "prop-2", RequestID: "req-1"}, {ID: "prop-1", RequestID: "req-1"}}, nil
		},
	}
	app := newTestApp(t, func(app *fiber.App) error { return RegisterProposalRoutes(app, svc) })

	resp, body := performRequest(t, app, http.MethodGet, "/v1/requests/req-1/proposals", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, body)
	}
	var parsed listProposalsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if len(parsed.Data) != 2 || parsed.Data[0].ID != "prop-2" {
		t.Fatalf("data = %+v", parsed.Data)
	}

	resp, _ = performRequest(t, app, http.MethodGet, "/v1/requests/req-404/proposals", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRequestIntegration_ListByClient(t *testing.T) {
	t.Parallel()

	svc := &stubRequestService{
		listFn: func(ctx context.Context, clientID string, clientEmail string) ([]domain.ServiceRequest, error) {
			if clientID == "" && clientEmail == "" {
				return nil, fmt.Errorf("%w: clientId or clientEmail is required", domain.ErrValidation)
			}
			return []domain.ServiceRequest{{
				ID:           "req-1",
				Title:        "Pintura",
				CategorySlug: "pintura",
				Region:       domain.Region{State: "SP", City: "São Paulo"},
				Status:       domain.RequestStatusActive,
			}}, nil
		},
	}
	app := newTestApp(t, func(app *fiber.App) error { return RegisterRequestRoutes(app, svc, &stubPublisher{}) })

	resp, body := performRequest(t, app, http.MethodGet, "/v1/requests?clientEmail=ana@example.com", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, body)
	}
	var parsed listRequestsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if len(parsed.Data) != 1 || parsed.Data[0].City != "São Paulo" || parsed.Data[0].Status != "active" {
		t.Fatalf("data = %+v", parsed.Data)
	}

	resp, _ = performRequest(t, app, http.MethodGet, "/v1/requests", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without filters", resp.StatusCode)
	}

	resp, _ = performRequest(t, app, http.MethodGet, "/v1/requests?clientEmail=not-an-email", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for invalid email", resp.StatusCode)
	}
}

func TestRequestIntegration_EnqueueNotification(t *testing.T) {
	t.Parallel()

	publisher := &stubPublisher{}
	app := newTestApp(t, func(app *fiber.App) error { return RegisterRequestRoutes(app, &stubRequestService{}, publisher) })

	req := httptest.NewRequest(http.MethodPost, "/v1/requests/req-1/notify", nil)
	req.Header.Set(fiber.HeaderXRequestID, "corr-123")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("published = %d, want 1", len(publisher.published))
	}
	got := publisher.published[0]
	if got.queue != queue.RequestCreatedQueue || got.msg.RequestID != "req-1" || got.msg.CorrelationID != "corr-123" {
		t.Fatalf("published = %+v", got)
	}

	publisher.err = errors.New("broker down")
	resp, _ = performRequest(t, app, http.MethodPost, "/v1/requests/req-1/notify", "")
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 when broker is down", resp.StatusCode)
	}
}

func TestRequestIntegration_NotifySync(t *testing.T) {
	t.Parallel()

	svc := &stubRequestService{
		notifyFn: func(ctx context.Context, requestID string) (*service.FanoutSummary, error) {
			if _, ok := observability.CorrelationIDFromContext(ctx); !ok {
				t.Error("correlation id should be attached to the request context")
			}
			switch requestID {
			case "req-1":
				return &service.FanoutSummary{
					RequestID:  requestID,
					Result:     service.FanoutPartial,
					Recipients: 4,
					Tally:      service.Tally{Succeeded: 3, Failed: 1},
					Message:    "3 enviadas, 1 falharam",
				}, nil
			case "req-closed":
				return nil, fmt.Errorf("%w: request is closed", domain.ErrConflict)
			default:
				return nil, fmt.Errorf("%w: request %s", domain.ErrNotFound, requestID)
			}
		},
	}
	app := newTestApp(t, func(app *fiber.App) error { return RegisterRequestRoutes(app, svc, &stubPublisher{}) })

	resp, body := performRequest(t, app, http.MethodPost, "/v1/requests/req-1/notify/sync", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, body)
	}
	var parsed fanoutResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed.Result != "partial" || parsed.Succeeded != 3 || parsed.Failed != 1 || parsed.Message != "3 enviadas, 1 falharam" {
		t.Fatalf("response = %+v", parsed)
	}

	resp, _ = performRequest(t, app, http.MethodPost, "/v1/requests/req-closed/notify/sync", "")
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	resp, _ = performRequest(t, app, http.MethodPost, "/v1/requests/req-404/notify/sync", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestUploadIntegration(t *testing.T) {
	t.Parallel()

	uploader := &stubUploader{}
	app := newTestApp(t, func(app *fiber.App) error { return RegisterUploadRoutes(app, uploader, "images") })

	resp, body := performMultipart(t, app, "/requests/req-1/sala.jpg", "sala.jpg", []byte("\xff\xd8\xff\xe0fake-jpeg"))
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", resp.StatusCode, body)
	}
	if uploader.bucket != "images" || uploader.path != "/requests/req-1/sala.jpg" {
		t.Fatalf("upload target = %s/%s", uploader.bucket, uploader.path)
	}
	if uploader.contentType != "" {
		t.Fatalf("content type = %q, want empty so the store sniffs it", uploader.contentType)
	}

	var parsed map[string]string
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["url"] != "https://cdn.example.com/images/requests/req-1/sala.jpg" || parsed["path"] != "requests/req-1/sala.jpg" {
		t.Fatalf("response = %v", parsed)
	}

	resp, _ = performMultipart(t, app, "", "sala.jpg", []byte("data"))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without path", resp.StatusCode)
	}

	resp, _ = performRequest(t, app, http.MethodPost, "/v1/uploads", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without multipart body", resp.StatusCode)
	}
}

func TestHealthIntegration(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	t.Run("livez returns 200", func(t *testing.T) {
		t.Parallel()

		app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
		RegisterHealthRoutes(app)

		resp, _ := performRequest(t, app, http.MethodGet, "/livez", "")
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("readyz returns 200 when dependencies up", func(t *testing.T) {
		t.Parallel()

		app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
		RegisterHealthRoutes(app, ReadinessCheck{Name: "postgres", Check: ok}, ReadinessCheck{Name: "redis", Check: ok})

		resp, body := performRequest(t, app, http.MethodGet, "/readyz", "")
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, body)
		}
	})

	t.Run("readyz returns 503 when a dependency is down", func(t *testing.T) {
		t.Parallel()

		app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
		RegisterHealthRoutes(app, ReadinessCheck{Name: "postgres", Check: ok}, ReadinessCheck{Name: "redis", Check: down})

		resp, body := performRequest(t, app, http.MethodGet, "/readyz", "")
		if resp.StatusCode != fiber.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503, body=%s", resp.StatusCode, body)
		}
		var parsed struct {
			Checks map[string]string `json:"checks"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			t.Fatalf("json unmarshal error = %v", err)
		}
		if parsed.Checks["redis"] != "down" || parsed.Checks["postgres"] != "ok" {
			t.Fatalf("checks = %v", parsed.Checks)
		}
	})
}

func TestRegisterRoutesValidation(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	if err := RegisterProposalRoutes(app, nil); err == nil {
		t.Fatal("expected error for nil proposal service")
	}
	if err := RegisterRequestRoutes(app, &stubRequestService{}, nil); err == nil {
		t.Fatal("expected error for nil publisher")
	}
	if err := RegisterUploadRoutes(app, &stubUploader{}, " "); err == nil {
		t.Fatal("expected error for blank bucket")
	}
}

type stubProposalService struct {
	submitFn func(ctx context.Context, s service.ProposalSubmission) (*service.ProposalResult, error)
	listFn   func(ctx context.Context, requestID string) ([]domain.Proposal, error)
}

func (s *stubProposalService) Submit(ctx context.Context, submission service.ProposalSubmission) (*service.ProposalResult, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, submission)
	}
	return nil, errors.New("not implemented")
}

func (s *stubProposalService) ListByRequest(ctx context.Context, requestID string) ([]domain.Proposal, error) {
	if s.listFn != nil {
		return s.listFn(ctx, requestID)
	}
	return nil, nil
}

type stubRequestService struct {
	notifyFn func(ctx context.Context, requestID string) (*service.FanoutSummary, error)
	listFn   func(ctx context.Context, clientID string, clientEmail string) ([]domain.ServiceRequest, error)
}

func (s *stubRequestService) NotifyProviders(ctx context.Context, requestID string) (*service.FanoutSummary, error) {
	if s.notifyFn != nil {
		return s.notifyFn(ctx, requestID)
	}
	return nil, errors.New("not implemented")
}

func (s *stubRequestService) ListByClient(ctx context.Context, clientID string, clientEmail string) ([]domain.ServiceRequest, error) {
	if s.listFn != nil {
		return s.listFn(ctx, clientID, clientEmail)
	}
	return nil, nil
}

type publishedMessage struct {
	queue string
	msg   queue.RequestCreatedMessage
}

type stubPublisher struct {
	published []publishedMessage
	err       error
}

func (p *stubPublisher) Publish(ctx context.Context, queueName string, msg queue.RequestCreatedMessage) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedMessage{queue: queueName, msg: msg})
	return nil
}

func (p *stubPublisher) Close() error { return nil }

type stubUploader struct {
	bucket      string
	path        string
	contentType string
	data        []byte
}

func (u *stubUploader) Upload(ctx context.Context, bucket string, path string, data []byte, contentType string) (string, error) {
	u.bucket, u.path, u.contentType, u.data = bucket, path, contentType, data
	return "https://cdn.example.com/" + bucket + "/" + strings.Trim(path, "/"), nil
}

func newTestApp(t *testing.T, register func(app *fiber.App) error) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})
	app.Use(CorrelationMiddleware())

	if err := register(app); err != nil {
		t.Fatalf("register routes error = %v", err)
	}

	return app
}

func performRequest(t *testing.T, app *fiber.App, method string, path string, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	return doRequest(t, app, req)
}

func performMultipart(t *testing.T, app *fiber.App, path string, filename string, data []byte) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if path != "" {
		if err := writer.WriteField("path", path); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("part.Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())

	return doRequest(t, app, req)
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}
