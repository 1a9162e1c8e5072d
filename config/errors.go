package config

import "errors"

var (
	// ErrInvalidBackend is returned for an unknown cache backend.
	ErrInvalidBackend = errors.New("config: invalid cache backend")

	// ErrMissingField is returned when a required field is empty.
	ErrMissingField = errors.New("config: missing required field")

	// ErrInvalidValue is returned for out-of-range values.
	ErrInvalidValue = errors.New("config: invalid value")
)
