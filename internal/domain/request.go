package domain

import (
	"fmt"
	"strings"
	"time"
)

// RequestStatus represents the lifecycle state of a service request.
type RequestStatus string

const (
	RequestStatusActive    RequestStatus = "active"
	RequestStatusClosed    RequestStatus = "closed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

func (s RequestStatus) String() string { return string(s) }

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusActive, RequestStatusClosed, RequestStatusCancelled:
		return true
	}
	return false
}

func ParseRequestStatusFromString(s string) (RequestStatus, error) {
	st := RequestStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid request status %q", ErrValidation, s)
	}
	return st, nil
}

// Region locates a request or provider by state code and city name.
type Region struct {
	State string
	City  string
}

func (r Region) Validate() error {
	if strings.TrimSpace(r.State) == "" {
		return fmt.Errorf("%w: state is required", ErrValidation)
	}
	if strings.TrimSpace(r.City) == "" {
		return fmt.Errorf("%w: city is required", ErrValidation)
	}
	return nil
}

// ServiceRequest is a client's quote request ("orçamento").
type ServiceRequest struct {
	ID            string
	Title         string
	CategoryID    string
	CategorySlug  string
	SubcategoryID *string
	Region        Region
	Status        RequestStatus
	ClientID      *string
	ClientEmail   *string
	ClientPhone   *string
	CreatedAt     time.Time
}

// ClientContact is what the proposal flow needs to reach the requesting client.
type ClientContact struct {
	RequestID    string
	Title        string
	ProfilePhone *string
	RequestPhone *string
}

// ResolvePhone prefers the client profile phone and falls back to the phone
// stored on the request itself.
func (c ClientContact) ResolvePhone() string {
	if c.ProfilePhone != nil {
		if phone := strings.TrimSpace(*c.ProfilePhone); phone != "" {
			return phone
		}
	}
	if c.RequestPhone != nil {
		return strings.TrimSpace(*c.RequestPhone)
	}
	return ""
}
