package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/orcamentox/orcamentox/internal/domain"
)

// Failure reasons used as metric and log labels.
const (
	ReasonInvalid     = "invalid"
	ReasonTimeout     = "timeout"
	ReasonCanceled    = "canceled"
	ReasonUnreachable = "unreachable"
	ReasonThrottled   = "throttled"
	ReasonUpstream    = "upstream"
	ReasonRejected    = "rejected"
	ReasonUnknown     = "unknown"
)

// Error is a failed relay send. A zero StatusCode with no Cause means the
// message never left the process.
type Error struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := "relay: " + e.Message
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("relay (status %d): %s", e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is maps relay failures onto the domain sentinels: bad input is a
// validation error, everything else a gateway error.
func (e *Error) Is(target error) bool {
	if e.Reason() == ReasonInvalid {
		return target == domain.ErrValidation
	}
	return target == domain.ErrGateway
}

func (e *Error) Reason() string {
	switch {
	case e.Cause != nil:
		return causeReason(e.Cause)
	case e.StatusCode == 0:
		return ReasonInvalid
	case e.StatusCode == http.StatusTooManyRequests:
		return ReasonThrottled
	case e.StatusCode >= http.StatusInternalServerError:
		return ReasonUpstream
	default:
		return ReasonRejected
	}
}

// Temporary reports whether resending the same message later could succeed.
func (e *Error) Temporary() bool {
	switch e.Reason() {
	case ReasonTimeout, ReasonUnreachable, ReasonThrottled, ReasonUpstream:
		return true
	}
	return false
}

// FailureReason labels any send error, relay or not.
func FailureReason(err error) string {
	if err == nil {
		return ""
	}
	var relayErr *Error
	if errors.As(err, &relayErr) {
		return relayErr.Reason()
	}
	return causeReason(err)
}

func causeReason(err error) string {
	if errors.Is(err, context.Canceled) {
		return ReasonCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ReasonTimeout
		}
		return ReasonUnreachable
	}
	return ReasonUnknown
}
