package domain

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	// ErrGateway marks a failed call to the structured or blob store.
	ErrGateway = errors.New("gateway failure")
)
