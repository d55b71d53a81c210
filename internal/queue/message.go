package queue

import (
	"fmt"
	"strings"
)

// RequestCreatedMessage announces a new service request whose providers must be notified.
type RequestCreatedMessage struct {
	RequestID     string `json:"requestId"`
	CorrelationID string `json:"correlationId,omitempty"`
}

func (m RequestCreatedMessage) Validate() error {
	if strings.TrimSpace(m.RequestID) == "" {
		return fmt.Errorf("requestId is required")
	}
	return nil
}
