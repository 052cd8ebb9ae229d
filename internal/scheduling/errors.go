package scheduling

import "errors"

// Kind classifies service errors for the HTTP boundary.
type Kind string

const (
	KindConflict   Kind = "conflict"
	KindValidation Kind = "validation"
	KindStorage    Kind = "storage"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func conflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func storageError(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

func IsConflict(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindConflict
}

func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindValidation
}

func IsStorage(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindStorage
}
