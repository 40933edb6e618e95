package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrValidation        = errors.New("validation failed")
	ErrForbidden         = errors.New("access denied")
	ErrInvalidState      = errors.New("operation not allowed in current state")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrResourceExhausted = errors.New("resource exhausted")
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInvalidState      = "INVALID_STATE"
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	ErrCodeResourceExhausted = "RESOURCE_EXHAUSTED"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
)

// Wrap common errors with business context
func WrapNotFound(resource, id string) *DomainError {
	return NewDomainError(
		ErrCodeNotFound,
		fmt.Sprintf("%s with ID %s not found", resource, id),
		ErrNotFound,
	)
}

func WrapValidation(message string) *DomainError {
	return NewDomainError(
		ErrCodeValidation,
		message,
		ErrValidation,
	)
}

func WrapForbidden(message string) *DomainError {
	return NewDomainError(
		ErrCodeForbidden,
		message,
		ErrForbidden,
	)
}

func WrapInvalidState(message string) *DomainError {
	return NewDomainError(
		ErrCodeInvalidState,
		message,
		ErrInvalidState,
	)
}

func WrapInsufficientFunds(accountID string) *DomainError {
	return NewDomainError(
		ErrCodeInsufficientFunds,
		fmt.Sprintf("account %s has insufficient funds or is not active", accountID),
		ErrInsufficientFunds,
	)
}

func WrapResourceExhausted(message string) *DomainError {
	return NewDomainError(
		ErrCodeResourceExhausted,
		message,
		ErrResourceExhausted,
	)
}

func WrapDatabaseError(err error) *DomainError {
	return NewDomainError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

// Predicates for error classification
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

func IsResourceExhausted(err error) bool {
	return errors.Is(err, ErrResourceExhausted)
}
