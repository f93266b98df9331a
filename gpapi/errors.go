package gpapi

import (
	"errors"
	"fmt"
)

// ErrUnsupportedTransaction is returned when a builder/operation combination
// has no connector mapping.
var ErrUnsupportedTransaction = errors.New("transaction type not supported by the configured gateway")

// ValidationError reports a field check that failed before any network call.
type ValidationError struct {
	Field     string
	Condition string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: field %q %s", e.Field, e.Condition)
}

// NewValidationError creates a validation error for a field and the
// condition it violated.
func NewValidationError(field, condition string) *ValidationError {
	return &ValidationError{Field: field, Condition: condition}
}

// ConfigurationError reports a missing or invalid service configuration.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// GatewayError reports a failed exchange with the remote service: a non-2xx
// response, a structured error envelope, or a transport fault.
type GatewayError struct {
	StatusCode               int
	ErrorCode                string
	DetailedErrorCode        string
	DetailedErrorDescription string
	Message                  string
	Err                      error
}

func (e *GatewayError) Error() string {
	switch {
	case e.ErrorCode != "":
		return fmt.Sprintf("status code: %d - error code: %s - %s: %s",
			e.StatusCode, e.ErrorCode, e.DetailedErrorCode, e.DetailedErrorDescription)
	case e.StatusCode != 0:
		return fmt.Sprintf("status code: %d - %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying transport error, if any.
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// WrapGatewayError wraps a transport-level fault as a gateway failure.
func WrapGatewayError(message string, err error) *GatewayError {
	return &GatewayError{Message: message, Err: err}
}

// IsValidationError reports whether err is a validation failure.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsGatewayError reports whether err is a gateway failure.
func IsGatewayError(err error) bool {
	var g *GatewayError
	return errors.As(err, &g)
}
