package console

import (
	"errors"
)

var (
	ErrNotConnected = errors.New("wallet is not connected")
	ErrNotOwner     = errors.New("connected account is not the contract owner")
	ErrNoProvider   = errors.New("wallet provider not detected")
	ErrNoTransactor = errors.New("console has no transactor")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError is a request rejected before any contract call.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func newValidationError(field string, message string, cause error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: cause}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// OperationError is a failed contract call. Message is the status line shown
// to the user; Err is the underlying library error.
type OperationError struct {
	Operation   Operation
	OperationID string
	Message     string
	Err         error
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
