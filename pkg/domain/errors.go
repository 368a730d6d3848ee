package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrConflict is returned when an operation is not allowed in the current state
	ErrConflict = errors.New("state conflict")
	// ErrUnauthorized is returned when a caller is not allowed to act on a resource
	ErrUnauthorized = errors.New("unauthorized")
)

// BusinessError is an expected, user-facing outcome of a business rule.
// Kind is one of ErrValidation, ErrNotFound, ErrConflict or ErrUnauthorized.
type BusinessError struct {
	Kind    error
	Message string
}

func (e *BusinessError) Error() string { return e.Message }

func (e *BusinessError) Unwrap() error { return e.Kind }

// Validation returns a business error of kind ErrValidation.
func Validation(msg string) *BusinessError {
	return &BusinessError{Kind: ErrValidation, Message: msg}
}

// NotFound returns a business error of kind ErrNotFound.
func NotFound(msg string) *BusinessError {
	return &BusinessError{Kind: ErrNotFound, Message: msg}
}

// Conflict returns a business error of kind ErrConflict.
func Conflict(msg string) *BusinessError {
	return &BusinessError{Kind: ErrConflict, Message: msg}
}

// Unauthorized returns a business error of kind ErrUnauthorized.
func Unauthorized(msg string) *BusinessError {
	return &BusinessError{Kind: ErrUnauthorized, Message: msg}
}

// IsBusiness reports whether err carries a BusinessError.
func IsBusiness(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}
