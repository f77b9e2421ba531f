package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrInvalidConfig - missing or invalid settings, surfaces before any network call (fatal)
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingArgument - a mandatory setting is absent (fatal, reported as a config error)
	ErrMissingArgument = errors.New("missing argument")

	// ErrTransport - network or HTTP failure while talking to the model API (fatal)
	ErrTransport = errors.New("transport error")

	// ErrResponseFormat - vendor response is missing a field or has an unknown shape (fatal)
	ErrResponseFormat = errors.New("unexpected response format")

	// ErrProvider - vendor returned an explicit error envelope (recoverable, printed to the user)
	ErrProvider = errors.New("provider error")

	// ErrProtocolViolation - model broke the conversation protocol, e.g. parallel tool calls (fatal)
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrInput - interactive read failed (fatal)
	ErrInput = errors.New("input error")

	// ErrInterrupted - user ended the input stream or pressed Ctrl+C (clean termination)
	ErrInterrupted = errors.New("interrupted")

	// ErrInternal - internal error
	ErrInternal = errors.New("internal error")
)

// ProviderError carries the message text of a vendor error envelope verbatim.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// Provider builds a ProviderError for the given vendor message.
func Provider(message string) error {
	return &ProviderError{Message: message}
}
