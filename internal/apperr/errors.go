// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidGeometry is returned when a card would fall below the minimum size.
	ErrInvalidGeometry = errors.New("invalid geometry")
	ErrUnknownCard     = errors.New("unknown card")
	ErrInvalidInput    = errors.New("invalid input")
)
