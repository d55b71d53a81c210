package domain

import "time"

// Provider is a service provider ("prestador") that can be notified about new requests.
type Provider struct {
	ID           string
	DisplayName  string
	CategorySlug string
	Region       Region
	Active       bool
	Phone        *string
	CreatedAt    time.Time
}

// ProviderIdentity is the name and phone shown to a client in a proposal message.
type ProviderIdentity struct {
	Name  string
	Phone string
}

func (p ProviderIdentity) IsComplete() bool {
	return p.Name != "" && p.Phone != ""
}
