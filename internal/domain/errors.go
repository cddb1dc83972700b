package domain

import "errors"

// Sentinel errors shared across repositories and services.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the principal's role does not permit the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned when a request fails business-rule validation.
	ErrInvalidInput = errors.New("invalid input")
)
