// Package apperror defines the tagged errors shared by the repository,
// storage and application layers. Transports map a Kind to a status code
// exactly once.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	Internal Kind = iota
	MissingImage
	Upload
	DuplicateEmail
	Validation
	InvalidID
	NotFound
)

func (k Kind) String() string {
	switch k {
	case MissingImage:
		return "missing_image"
	case Upload:
		return "upload"
	case DuplicateEmail:
		return "duplicate_email"
	case Validation:
		return "validation"
	case InvalidID:
		return "invalid_id"
	case NotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a classified failure. Message is safe to return to clients;
// Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, apperror.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is checks.
var (
	ErrMissingImage   = &Error{Kind: MissingImage}
	ErrUpload         = &Error{Kind: Upload}
	ErrDuplicateEmail = &Error{Kind: DuplicateEmail}
	ErrValidation     = &Error{Kind: Validation}
	ErrInvalidID      = &Error{Kind: InvalidID}
	ErrNotFound       = &Error{Kind: NotFound}
	ErrInternal       = &Error{Kind: Internal}
)

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// NewValidation builds a Validation error carrying per-field messages.
func NewValidation(msg string, details map[string]string) *Error {
	return &Error{Kind: Validation, Message: msg, Details: details}
}

// KindOf reports the Kind of err. Untagged errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// As returns the *Error in err's chain, or an Internal wrapper around err.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(Internal, "internal error", err)
}
