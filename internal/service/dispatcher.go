package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orcamentox/orcamentox/internal/observability"
	"github.com/orcamentox/orcamentox/internal/relay"
	"go.uber.org/zap"
)

const (
	templateNewRequest  = "new_request"
	templateNewProposal = "new_proposal"

	outcomeSent   = "sent"
	outcomeFailed = "failed"
)

// Tally counts per-recipient outcomes of one fan-out.
type Tally struct {
	Succeeded int
	Failed    int
}

func (t Tally) Total() int { return t.Succeeded + t.Failed }

// Summary is the human-readable count shown to operators.
func (t Tally) Summary() string {
	return fmt.Sprintf("%d enviadas, %d falharam", t.Succeeded, t.Failed)
}

// FanoutDispatcher sends one message to many recipients, one at a time. A
// failed recipient never stops the batch.
type FanoutDispatcher struct {
	sender  relay.Sender
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

func NewFanoutDispatcher(sender relay.Sender, logger *zap.Logger) (*FanoutDispatcher, error) {
	if sender == nil {
		return nil, fmt.Errorf("relay sender is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FanoutDispatcher{
		sender: sender,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (d *FanoutDispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// Dispatch returns an error only when no attempt can be made at all. A
// context canceled after the first attempt does not cut the batch short.
func (d *FanoutDispatcher) Dispatch(ctx context.Context, recipients []string, message string) (Tally, error) {
	if d == nil || d.sender == nil {
		return Tally{}, fmt.Errorf("dispatcher is not initialized")
	}
	if strings.TrimSpace(message) == "" {
		return Tally{}, fmt.Errorf("message is required")
	}
	if len(recipients) == 0 {
		return Tally{}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return Tally{}, fmt.Errorf("fan-out not started: %w", err)
	}

	logger := observability.LoggerFromContext(ctx, d.logger)

	// Once started, the batch runs to the end: a caller going away must not
	// turn the remaining recipients into failures. The relay timeout still
	// bounds every call.
	ctx = context.WithoutCancel(ctx)

	var tally Tally
	for i, recipient := range recipients {
		start := d.now()
		_, err := d.sender.Send(ctx, recipient, message)
		elapsed := d.now().Sub(start)

		if err != nil {
			tally.Failed++
			d.metrics.ObserveRelaySend(templateNewRequest, outcomeFailed, elapsed)
			logger.Warn("relay send failed",
				zap.Int("position", i+1),
				zap.Int("total", len(recipients)),
				zap.String("recipient", maskPhone(recipient)),
				zap.String("reason", relay.FailureReason(err)),
				zap.Error(err),
			)
			continue
		}

		tally.Succeeded++
		d.metrics.ObserveRelaySend(templateNewRequest, outcomeSent, elapsed)
	}

	logger.Info("fan-out finished",
		zap.Int("succeeded", tally.Succeeded),
		zap.Int("failed", tally.Failed),
	)

	return tally, nil
}

// maskPhone keeps the last four digits for logs.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
