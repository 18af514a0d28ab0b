// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Registry errors
	ErrAlreadyRegistered = errors.New("already registered")
	ErrNotRegistered     = errors.New("not registered")

	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrNegativeValue = errors.New("value cannot be negative")

	// State errors
	ErrInvalidState = errors.New("invalid state")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Persistence errors
	ErrPersistence = errors.New("persistence error")

	// Economy errors
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoAccount         = errors.New("no account")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g. "achievement", "stocks", "store"
	Op      string // Operation that failed, e.g. "Register", "Increment"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// IsAlreadyRegistered checks if the error is an "already registered" error.
func IsAlreadyRegistered(err error) bool {
	return errors.Is(err, ErrAlreadyRegistered)
}

// IsNotRegistered checks if the error is a "not registered" error.
func IsNotRegistered(err error) bool {
	return errors.Is(err, ErrNotRegistered)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue)
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
