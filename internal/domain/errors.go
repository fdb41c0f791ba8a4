package domain

import "errors"

var (
	// ErrNotFound is returned when an event or member id cannot be resolved.
	ErrNotFound = errors.New("not found")

	// ErrMalformedOccurrenceID is returned when an occurrence id carries a
	// timestamp suffix that does not parse.
	ErrMalformedOccurrenceID = errors.New("malformed occurrence id")

	// ErrInvalidEvent is returned when an event violates a model invariant,
	// e.g. end date not after start date.
	ErrInvalidEvent = errors.New("invalid event")
)
