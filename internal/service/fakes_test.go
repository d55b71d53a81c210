package service

import (
	"context"
	"sync"

	"github.com/orcamentox/orcamentox/internal/domain"
	"github.com/orcamentox/orcamentox/internal/queue"
	"github.com/orcamentox/orcamentox/internal/relay"
)

type fakeRequestRepo struct {
	getByIDFn          func(ctx context.Context, id string) (*domain.ServiceRequest, error)
	getClientContactFn func(ctx context.Context, id string) (*domain.ClientContact, error)
	listByClientFn     func(ctx context.Context, clientID string, clientEmail string) ([]domain.ServiceRequest, error)
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRequestRepo) GetClientContact(ctx context.Context, id string) (*domain.ClientContact, error) {
	if f.getClientContactFn != nil {
		return f.getClientContactFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRequestRepo) ListByClient(ctx context.Context, clientID string, clientEmail string) ([]domain.ServiceRequest, error) {
	if f.listByClientFn != nil {
		return f.listByClientFn(ctx, clientID, clientEmail)
	}
	return nil, nil
}

type fakeProviderRepo struct {
	findActiveFn func(ctx context.Context, categorySlug string, region domain.Region) ([]domain.Provider, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.Provider, error)
}

func (f *fakeProviderRepo) FindActiveByCategoryAndRegion(ctx context.Context, categorySlug string, region domain.Region) ([]domain.Provider, error) {
	if f.findActiveFn != nil {
		return f.findActiveFn(ctx, categorySlug, region)
	}
	return nil, nil
}

func (f *fakeProviderRepo) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

type fakeProposalRepo struct {
	createFn        func(ctx context.Context, p *domain.Proposal) error
	listByRequestFn func(ctx context.Context, requestID string) ([]domain.Proposal, error)
}

func (f *fakeProposalRepo) Create(ctx context.Context, p *domain.Proposal) error {
	if f.createFn != nil {
		return f.createFn(ctx, p)
	}
	return nil
}

func (f *fakeProposalRepo) ListByRequest(ctx context.Context, requestID string) ([]domain.Proposal, error) {
	if f.listByRequestFn != nil {
		return f.listByRequestFn(ctx, requestID)
	}
	return nil, nil
}

// fakeSender records every call and fails the recipients listed in failFor.
type fakeSender struct {
	mu      sync.Mutex
	calls   []sentMessage
	failFor map[string]error
	sendFn  func(ctx context.Context, recipient string, message string) (*relay.Response, error)
}

type sentMessage struct {
	recipient string
	message   string
}

func (f *fakeSender) Send(ctx context.Context, recipient string, message string) (*relay.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sentMessage{recipient: recipient, message: message})
	f.mu.Unlock()

	if f.sendFn != nil {
		return f.sendFn(ctx, recipient, message)
	}
	if err, ok := f.failFor[recipient]; ok {
		return nil, err
	}
	return &relay.Response{StatusCode: 200}, nil
}

func (f *fakeSender) sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeGuard struct {
	acquireFn func(ctx context.Context, requestID string) (bool, error)
	releaseFn func(ctx context.Context, requestID string) error
	released  []string
}

func (f *fakeGuard) Acquire(ctx context.Context, requestID string) (bool, error) {
	if f.acquireFn != nil {
		return f.acquireFn(ctx, requestID)
	}
	return true, nil
}

func (f *fakeGuard) Release(ctx context.Context, requestID string) error {
	f.released = append(f.released, requestID)
	if f.releaseFn != nil {
		return f.releaseFn(ctx, requestID)
	}
	return nil
}

type fakeNotifier struct {
	notifyFn func(ctx context.Context, requestID string) (*FanoutSummary, error)
}

func (f *fakeNotifier) NotifyProviders(ctx context.Context, requestID string) (*FanoutSummary, error) {
	if f.notifyFn != nil {
		return f.notifyFn(ctx, requestID)
	}
	return &FanoutSummary{RequestID: requestID, Result: FanoutNoProviders}, nil
}

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queue string, handler queue.MessageHandler) error
	closeFn   func() error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, queueName, handler)
	}
	<-ctx.Done()
	return nil
}

func (f *fakeConsumer) Close() error {
	if f.closeFn != nil {
		return f.closeFn()
	}
	return nil
}

func strPtr(s string) *string { return &s }
