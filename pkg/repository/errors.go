package repository

import "errors"

var (
	// ErrUnsupportedRepository is returned for a repository type the unit of
	// work does not provide.
	ErrUnsupportedRepository = errors.New("unsupported repository type")
	// ErrInsufficientStock is returned when a conditional stock decrement
	// finds fewer units than requested.
	ErrInsufficientStock = errors.New("insufficient stock")
)
