package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError indicates that the referenced entity does not exist.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// ConflictError indicates a duplicate action: already enrolled, already
// submitted, already marked, already claimed.
type ConflictError struct {
	Message string
}

func NewConflictError(msg string) error {
	return &ConflictError{Message: msg}
}

func (err ConflictError) Error() string {
	return err.Message
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

// ForbiddenError indicates a role or ownership violation.
type ForbiddenError struct {
	Message string
}

func NewForbiddenError(msg string) error {
	return &ForbiddenError{Message: msg}
}

func (err ForbiddenError) Error() string {
	return err.Message
}

func IsForbidden(err error) bool {
	_, ok := errors.Cause(err).(*ForbiddenError)
	return ok
}

// UpstreamError indicates that an external provider was unreachable, errored
// or timed out.
type UpstreamError struct {
	Provider string
	Err      error
}

func NewUpstreamError(provider string, err error) error {
	return &UpstreamError{Provider: provider, Err: err}
}

func (err UpstreamError) Error() string {
	if err.Err == nil {
		return err.Provider + " unavailable"
	}
	return err.Provider + ": " + err.Err.Error()
}

func IsUpstream(err error) bool {
	_, ok := errors.Cause(err).(*UpstreamError)
	return ok
}

// BackendUnavailableError indicates that the database pool is exhausted or
// the backing store is unreachable.
type BackendUnavailableError struct {
	Err error
}

func NewBackendUnavailableError(err error) error {
	return &BackendUnavailableError{Err: err}
}

func (err BackendUnavailableError) Error() string {
	if err.Err == nil {
		return "backend unavailable"
	}
	return "backend unavailable: " + err.Err.Error()
}

func IsBackendUnavailable(err error) bool {
	_, ok := errors.Cause(err).(*BackendUnavailableError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
