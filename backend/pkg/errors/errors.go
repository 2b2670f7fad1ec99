package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeConfig represents configuration/credential errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeGateway represents chat gateway errors
	ErrorTypeGateway ErrorType = "gateway"
	// ErrorTypeStore represents link store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeSession represents gateway session lifecycle errors
	ErrorTypeSession ErrorType = "session"
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

// Base returns the underlying base error. Wrapper error types embed
// *BaseError, so the method is promoted and IsErrorType sees them too.
func (e *BaseError) Base() *BaseError {
	return e
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

// Config Errors

// ErrConfigMissingRequired is returned when a required credential or
// config value is absent
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

// ErrConfigInvalidToken is returned when a provided token cannot be decoded
type ErrConfigInvalidToken struct {
	*BaseError
	Reason string
}

func NewConfigInvalidToken(reason string, err error) *ErrConfigInvalidToken {
	return &ErrConfigInvalidToken{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("invalid token: %s", reason), err),
		Reason:    reason,
	}
}

// Store Errors

// ErrStoreTypeNotFound is returned when a named link type does not exist
type ErrStoreTypeNotFound struct {
	*BaseError
	Space string
	Name  string
}

func NewStoreTypeNotFound(space, name string) *ErrStoreTypeNotFound {
	return &ErrStoreTypeNotFound{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("type not found: %s/%s", space, name), nil),
		Space:     space,
		Name:      name,
	}
}

// ErrStoreQueryFailed is returned when a select against the link store fails
type ErrStoreQueryFailed struct {
	*BaseError
	Operation string
}

func NewStoreQueryFailed(operation string, err error) *ErrStoreQueryFailed {
	return &ErrStoreQueryFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// ErrStoreInsertFailed is returned when an insert against the link store fails
type ErrStoreInsertFailed struct {
	*BaseError
	Operation string
}

func NewStoreInsertFailed(operation string, err error) *ErrStoreInsertFailed {
	return &ErrStoreInsertFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("insert failed: %s", operation), err),
		Operation: operation,
	}
}

// Gateway Errors

// ErrGatewayLoginFailed is returned when the gateway connection cannot be opened
type ErrGatewayLoginFailed struct {
	*BaseError
}

func NewGatewayLoginFailed(err error) *ErrGatewayLoginFailed {
	return &ErrGatewayLoginFailed{
		BaseError: NewBaseError(ErrorTypeGateway, "gateway login failed", err),
	}
}

// ErrGatewayChannelFetch is returned when channel metadata cannot be loaded
type ErrGatewayChannelFetch struct {
	*BaseError
	ChannelID string
}

func NewGatewayChannelFetch(channelID string, err error) *ErrGatewayChannelFetch {
	return &ErrGatewayChannelFetch{
		BaseError: NewBaseError(ErrorTypeGateway, fmt.Sprintf("failed to fetch channel: %s", channelID), err),
		ChannelID: channelID,
	}
}

// ErrGatewayReferenceFetch is returned when a referenced message cannot be loaded
type ErrGatewayReferenceFetch struct {
	*BaseError
	MessageID string
}

func NewGatewayReferenceFetch(messageID string, err error) *ErrGatewayReferenceFetch {
	return &ErrGatewayReferenceFetch{
		BaseError: NewBaseError(ErrorTypeGateway, fmt.Sprintf("failed to fetch referenced message: %s", messageID), err),
		MessageID: messageID,
	}
}

// Session Errors

// ErrSessionDisconnected is returned when the gateway reports a disconnect,
// which is fatal for the owning session
var ErrSessionDisconnected = NewBaseError(ErrorTypeSession, "gateway disconnected", nil)

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	if withBase, ok := err.(interface{ Base() *BaseError }); ok {
		return withBase.Base().Type == errType
	}
	// Check wrapped errors
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		return IsErrorType(wrapped.Unwrap(), errType)
	}
	return false
}
