package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"

	// Generation pipeline errors
	CodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	CodeTransport     ErrorCode = "TRANSPORT_ERROR"
	CodeExtraction    ErrorCode = "EXTRACTION_ERROR"
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodePersistence   ErrorCode = "PERSISTENCE_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair and returns the same error.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Context: e.Context,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsCode reports whether any error in err's chain is a DomainError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var domainErr *DomainError
	for err != nil {
		if !errors.As(err, &domainErr) {
			return false
		}
		if domainErr.Code == code {
			return true
		}
		err = domainErr.Cause
	}
	return false
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewConfigurationError(message string) *DomainError {
	return NewError(CodeConfiguration, message, nil)
}

func NewTransportError(message string, cause error) *DomainError {
	return NewError(CodeTransport, message, cause)
}

func NewExtractionError(message string, cause error) *DomainError {
	return NewError(CodeExtraction, message, cause)
}

// NewValidationError names the contract clause that failed.
func NewValidationError(field, message string) *DomainError {
	return NewError(CodeValidation, message, nil).WithContext("field", field)
}

func NewPersistenceError(message string, cause error) *DomainError {
	return NewError(CodePersistence, message, cause)
}
