package domain

import (
	"errors"
	"fmt"
)

// ErrorCategory distinguishes run-aborting errors from recoverable ones
type ErrorCategory string

const (
	// ErrorCategoryConfig is an unrecoverable configuration error
	ErrorCategoryConfig ErrorCategory = "config"

	// ErrorCategoryContract is a programming-contract violation
	// (e.g. requesting analysis of a file not in the graph)
	ErrorCategoryContract ErrorCategory = "contract"

	// ErrorCategoryTransform is a per-file recoverable transform failure
	ErrorCategoryTransform ErrorCategory = "transform"

	// ErrorCategoryFile is a per-file recoverable read/parse failure
	ErrorCategoryFile ErrorCategory = "file"
)

// DomainError wraps an error with a category for propagation decisions
type DomainError struct {
	Category ErrorCategory
	Message  string
	Err      error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewConfigError creates an unrecoverable configuration error
func NewConfigError(message string, err error) *DomainError {
	return &DomainError{Category: ErrorCategoryConfig, Message: message, Err: err}
}

// NewContractError creates a programming-contract violation error
func NewContractError(message string, err error) *DomainError {
	return &DomainError{Category: ErrorCategoryContract, Message: message, Err: err}
}

// NewTransformError creates a per-file recoverable transform error
func NewTransformError(message string, err error) *DomainError {
	return &DomainError{Category: ErrorCategoryTransform, Message: message, Err: err}
}

// NewFileError creates a per-file recoverable read/parse error
func NewFileError(message string, err error) *DomainError {
	return &DomainError{Category: ErrorCategoryFile, Message: message, Err: err}
}

// IsFatal reports whether the error must abort the whole run
func IsFatal(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Category == ErrorCategoryConfig || de.Category == ErrorCategoryContract
	}
	return true
}
