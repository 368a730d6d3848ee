package money

import "errors"

// Common money package errors
var (
	// ErrInvalidAmount is returned when an amount cannot be parsed
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNegativeAmount is returned when an operation would result in a negative amount
	ErrNegativeAmount = errors.New("resulting amount cannot be negative")

	// ErrAmountExceedsMaxSafeInt is returned when minor units overflow int64
	ErrAmountExceedsMaxSafeInt = errors.New("amount exceeds maximum safe integer value")

	// ErrInvalidCurrency is returned for a malformed currency code
	ErrInvalidCurrency = errors.New("invalid currency code")
)
