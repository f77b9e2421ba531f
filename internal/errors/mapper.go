package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", message, err)
}

// WrapWithCategory wraps an error and tags it with a category, keeping the cause text
func WrapWithCategory(err error, message string, category error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w: %w", message, category, err)
}

// IsCategory checks if error belongs to specific category
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// Category returns the category name of an error, used as a log attribute
func Category(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, ErrInterrupted):
		return "Interrupted"
	case errors.Is(err, ErrMissingArgument), errors.Is(err, ErrInvalidConfig):
		return "ConfigError"
	case errors.Is(err, ErrTransport):
		return "TransportError"
	case errors.Is(err, ErrResponseFormat):
		return "ResponseFormatError"
	case errors.Is(err, ErrProvider):
		return "ProviderError"
	case errors.Is(err, ErrProtocolViolation):
		return "ProtocolViolation"
	case errors.Is(err, ErrInput):
		return "InputError"
	case errors.Is(err, ErrInternal):
		return "InternalError"
	default:
		return "Unknown"
	}
}

// IsRecoverable reports whether the dialogue may continue after err.
// Only vendor error envelopes are recoverable.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, ErrProvider)
}

// IsInterrupted reports whether err means the user asked to stop.
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, context.Canceled)
}

// InvalidConfig wraps error as invalid configuration
func InvalidConfig(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidConfig)
}

// MissingArgument wraps error as a missing mandatory setting
func MissingArgument(message string) error {
	return fmt.Errorf("%s: %w", message, ErrMissingArgument)
}

// Transport wraps error as transport failure
func Transport(message string) error {
	return fmt.Errorf("%s: %w", message, ErrTransport)
}

// ResponseFormat wraps error as unexpected response format
func ResponseFormat(message string) error {
	return fmt.Errorf("%s: %w", message, ErrResponseFormat)
}

// ProtocolViolation wraps error as protocol violation
func ProtocolViolation(message string) error {
	return fmt.Errorf("%s: %w", message, ErrProtocolViolation)
}

// Input wraps error as input failure
func Input(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInput)
}

// Internal wraps error as internal
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}
