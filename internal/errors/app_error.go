package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError and decides its HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind onto a response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AppError is a classified error carrying a machine-readable code, a message
// safe to show to clients and optional structured details.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError by code so sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy with the given details attached.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap returns a copy with err as the underlying cause.
func (e *AppError) Wrap(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

func newError(kind Kind, code, message string, details map[string]interface{}) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, Details: details}
}

func Validation(code, message string, details map[string]interface{}) *AppError {
	return newError(KindValidation, code, message, details)
}

func Authentication(code, message string) *AppError {
	return newError(KindAuthentication, code, message, nil)
}

func Authorization(code, message string) *AppError {
	return newError(KindAuthorization, code, message, nil)
}

func NotFound(code, message string) *AppError {
	return newError(KindNotFound, code, message, nil)
}

func Conflict(code, message string) *AppError {
	return newError(KindConflict, code, message, nil)
}

// Upstream marks a failure of an external provider. cause is kept for logs only.
func Upstream(code, message string, cause error) *AppError {
	e := newError(KindUpstream, code, message, nil)
	e.Err = cause
	return e
}

func Internal(message string, cause error) *AppError {
	e := newError(KindInternal, InternalServerError, message, nil)
	e.Err = cause
	return e
}

// As extracts the AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
