// Package errors provides error handling for contractgen.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints (surfaced by the CLI)
//   - Assertion failures for broken internal invariants
//
// Usage:
//
//	// Wrap with context
//	if err := loadModel(); err != nil {
//	    return errors.Wrap(err, "failed to load model")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "expose an aggregate in an upstream relationship")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf   = crdb.AssertionFailedf
	IsAssertionFailure = crdb.IsAssertionFailure
)

// Common sentinel errors for use across contractgen.
// Use these with errors.Is() for type-safe error checking.
var (
	// ErrNotFound indicates a referenced element does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates a malformed command line or option set
	ErrInvalidRequest = New("invalid request")

	// ErrInvalidModel indicates the domain model document could not be resolved
	ErrInvalidModel = New("invalid domain model")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidModelError checks if an error is or wraps ErrInvalidModel
func IsInvalidModelError(err error) bool {
	return err != nil && Is(err, ErrInvalidModel)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidModelError creates an invalid-model error with a formatted message
func NewInvalidModelError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidModel, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
