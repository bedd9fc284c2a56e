package splitledger

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("splitledger: not found")
	ErrAlreadyExists = errors.New("splitledger: already exists")
	ErrInvalidInput  = errors.New("splitledger: invalid input")

	// Entity errors
	ErrParticipantNotFound = errors.New("splitledger: participant not found")
	ErrGroupNotFound       = errors.New("splitledger: group not found")
	ErrTransactionNotFound = errors.New("splitledger: transaction not found")

	// Membership errors
	ErrNotMember           = errors.New("splitledger: participant is not a member of the group")
	ErrAlreadyMember       = errors.New("splitledger: participant is already a member of the group")
	ErrOutstandingBalance  = errors.New("splitledger: participant has an outstanding balance")
	ErrInviteCodeExhausted = errors.New("splitledger: could not generate a unique invite code")

	// Settlement errors
	ErrUnbalanced = errors.New("splitledger: group balances do not sum to zero")

	// Store errors
	ErrStoreNotReady = errors.New("splitledger: store not ready")
	ErrStoreClosed   = errors.New("splitledger: store is closed")
)

// ValidationError reports a rejected input field. It matches ErrInvalidInput
// under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("splitledger: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalidInput.
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "splitledger: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("splitledger: %d errors occurred: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// Err returns nil when empty, the lone error when there is one, and the
// MultiError otherwise.
func (e MultiError) Err() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	default:
		return e
	}
}

// IsNotFound returns true if the error is a not found error. A participant
// that is not a member of the group counts as not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrParticipantNotFound) ||
		errors.Is(err, ErrGroupNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrNotMember)
}

// IsValidation returns true if the error is an input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidInput)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrInviteCodeExhausted)
}
