package validator

import "errors"

var (
	// ErrValidationFailed is returned when validation fails but no specific error is provided.
	ErrValidationFailed = errors.New("validation failed")

	// ErrInvalidSchema is returned when an argument schema is nil or misconfigured.
	ErrInvalidSchema = errors.New("invalid validation schema")
)
