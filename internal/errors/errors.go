package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures on the catalog refresh path.
type ErrorType string

const (
	// ErrorTypeTransient covers connection, subscribe and fetch failures.
	// They are logged and retried; the live snapshot keeps serving.
	ErrorTypeTransient ErrorType = "transient"
	// ErrorTypeMalformed covers undecodable catalog payloads.
	ErrorTypeMalformed ErrorType = "malformed"
	// ErrorTypeCapacity covers catalogs too large to index.
	ErrorTypeCapacity ErrorType = "capacity"
	// ErrorTypeProtocol covers notifications that should never arrive.
	// It is terminal for the watcher.
	ErrorTypeProtocol ErrorType = "protocol"
	// ErrorTypeConfiguration covers invalid startup settings.
	ErrorTypeConfiguration ErrorType = "configuration"
)

// StructuredError carries a failure class and the operation that failed.
type StructuredError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

// Error implements the error interface
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Operation, e.Message)
}

// Unwrap returns the underlying cause
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Wrap attaches a class and operation to err. It returns nil for a nil err.
func Wrap(err error, errType ErrorType, operation, message string) error {
	if err == nil {
		return nil
	}
	return &StructuredError{
		Type:      errType,
		Operation: operation,
		Message:   message,
		Cause:     err,
	}
}

// TypeOf returns the class of the outermost StructuredError in err's chain,
// or "" when there is none.
func TypeOf(err error) ErrorType {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Type
	}
	return ""
}

// IsType reports whether err carries class t.
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}
