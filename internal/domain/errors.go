package domain

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrRetriesExhausted is returned by Retry once the attempt budget is spent.
	ErrRetriesExhausted = errors.New("generation retries exhausted")

	// ErrInvalidRequest is returned when a generation request fails validation.
	ErrInvalidRequest = errors.New("invalid generation request")
)
