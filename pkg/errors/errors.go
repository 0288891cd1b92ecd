package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeStore represents graph store connectivity/query errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeInput represents malformed input records
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeNotFound represents missing nodes or edges
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeBatch represents partial batch failures
	ErrorTypeBatch ErrorType = "batch"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Store Errors

// ErrStoreUnavailable is returned when the graph store cannot be reached
type ErrStoreUnavailable struct {
	*BaseError
	URI string
}

func NewStoreUnavailable(uri string, err error) *ErrStoreUnavailable {
	return &ErrStoreUnavailable{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("graph store unavailable: %s", uri), err),
		URI:       uri,
	}
}

// ErrQueryFailed is returned when a graph query fails
type ErrQueryFailed struct {
	*BaseError
	Operation string
}

func NewQueryFailed(operation string, err error) *ErrQueryFailed {
	return &ErrQueryFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// Not-found Errors

// ErrPersonNotFound is returned when no person matches a lookup email
type ErrPersonNotFound struct {
	*BaseError
	Email string
}

func NewPersonNotFound(email string) *ErrPersonNotFound {
	return &ErrPersonNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("person not found: %s", email), nil),
		Email:     email,
	}
}

// ErrEdgeNotFound is returned when no edge matches an ordered pair
type ErrEdgeNotFound struct {
	*BaseError
	From string
	To   string
}

func NewEdgeNotFound(from, to string) *ErrEdgeNotFound {
	return &ErrEdgeNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("no edge %s -> %s", from, to), nil),
		From:      from,
		To:        to,
	}
}

// Input Errors

// ErrMalformedMessage is returned when an email record is missing required
// fields or carries an unparseable date
type ErrMalformedMessage struct {
	*BaseError
	MessageID string
	Reason    string
}

func NewMalformedMessage(messageID, reason string) *ErrMalformedMessage {
	return &ErrMalformedMessage{
		BaseError: NewBaseError(ErrorTypeInput, fmt.Sprintf("malformed message %s: %s", messageID, reason), nil),
		MessageID: messageID,
		Reason:    reason,
	}
}

// ErrInvalidEdge is returned when edge fields fail construction validation
type ErrInvalidEdge struct {
	*BaseError
	Reason string
}

func NewInvalidEdge(reason string) *ErrInvalidEdge {
	return &ErrInvalidEdge{
		BaseError: NewBaseError(ErrorTypeInput, fmt.Sprintf("invalid edge: %s", reason), nil),
		Reason:    reason,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if baseErr, ok := err.(*BaseError); ok {
			return baseErr.Type == errType
		}
		if typed, ok := err.(interface{ Base() *BaseError }); ok {
			return typed.Base().Type == errType
		}
		err = errors.Unwrap(err)
	}
	return false
}

// Base exposes the embedded BaseError for type checks through wrapping
func (e *ErrStoreUnavailable) Base() *BaseError      { return e.BaseError }
func (e *ErrQueryFailed) Base() *BaseError           { return e.BaseError }
func (e *ErrPersonNotFound) Base() *BaseError        { return e.BaseError }
func (e *ErrEdgeNotFound) Base() *BaseError          { return e.BaseError }
func (e *ErrMalformedMessage) Base() *BaseError      { return e.BaseError }
func (e *ErrInvalidEdge) Base() *BaseError           { return e.BaseError }
func (e *ErrConfigMissingRequired) Base() *BaseError { return e.BaseError }

// IsNotFound reports whether err represents "no data" rather than a failure
func IsNotFound(err error) bool {
	return IsErrorType(err, ErrorTypeNotFound)
}

// IsStoreError reports whether err represents a graph store failure
func IsStoreError(err error) bool {
	return IsErrorType(err, ErrorTypeStore)
}
