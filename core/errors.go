package core

import "github.com/pkg/errors"

// FieldError reports a problem with a single input field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries the field errors of a rejected input.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// shutdown marks a failure the app cannot recover from; the server should
// stop taking requests when it sees one.
type shutdown struct{ message string }

func NewShutdownError(msg string) error { return &shutdown{message: msg} }

func (s shutdown) Error() string { return s.message }

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
