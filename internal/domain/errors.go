package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a job failed
type ErrorKind string

const (
	ErrorMissingURL            ErrorKind = "missing_url"
	ErrorMissingDestination    ErrorKind = "missing_destination"
	ErrorInvalidOptions        ErrorKind = "invalid_options"
	ErrorMetadataFetch         ErrorKind = "metadata_fetch_error"
	ErrorEngine                ErrorKind = "engine_error"
	ErrorCancellationRequested ErrorKind = "cancellation_requested"
)

// IsInputError reports whether the kind is detected before any execution starts
func (k ErrorKind) IsInputError() bool {
	return k == ErrorMissingURL || k == ErrorMissingDestination
}

// JobError is a classified job failure. Message keeps the underlying cause text.
type JobError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// NewJobError creates a classified error wrapping cause
func NewJobError(kind ErrorKind, cause error) *JobError {
	e := &JobError{Kind: kind, Cause: cause}
	if cause != nil {
		e.Message = cause.Error()
	}
	return e
}

// Errorf creates a classified error from a format string
func Errorf(kind ErrorKind, format string, args ...interface{}) *JobError {
	return NewJobError(kind, fmt.Errorf(format, args...))
}

func (e *JobError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *JobError) Unwrap() error {
	return e.Cause
}

// Is matches any JobError of the same kind, so sentinels work with errors.Is
func (e *JobError) Is(target error) bool {
	var t *JobError
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// Sentinels for errors.Is
var (
	ErrMissingURL            = &JobError{Kind: ErrorMissingURL}
	ErrMissingDestination    = &JobError{Kind: ErrorMissingDestination}
	ErrInvalidOptions        = &JobError{Kind: ErrorInvalidOptions}
	ErrMetadataFetch         = &JobError{Kind: ErrorMetadataFetch}
	ErrEngine                = &JobError{Kind: ErrorEngine}
	ErrCancellationRequested = &JobError{Kind: ErrorCancellationRequested}
)

// KindOf returns the classification of err, or "" if it is not a JobError
func KindOf(err error) ErrorKind {
	var je *JobError
	if errors.As(err, &je) {
		return je.Kind
	}
	return ""
}
