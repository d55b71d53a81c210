package guard

import "context"

// FanoutGuard makes the provider fan-out for a request happen at most once,
// even when the trigger message is delivered more than once.
type FanoutGuard interface {
	// Acquire reports whether the caller owns the fan-out for requestID.
	Acquire(ctx context.Context, requestID string) (bool, error)
	// Release gives ownership back so a later delivery can retry.
	Release(ctx context.Context, requestID string) error
}
