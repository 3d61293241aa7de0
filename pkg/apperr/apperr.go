// Package apperr defines the error taxonomy shared by all domain services.
// Services classify failures by kind; handlers translate kinds onto HTTP
// status codes in one place.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping and caller branching.
type Kind int

const (
	// KindValidation marks malformed input or a missing required field.
	KindValidation Kind = iota + 1
	// KindNotFound marks a referenced entity that is absent or soft-deleted.
	KindNotFound
	// KindConflict marks an invalid state transition, e.g. double submission.
	KindConflict
	// KindAuthorization marks a cross-tenant or insufficient-role access attempt.
	KindAuthorization
	// KindStorage marks a persistence failure passed through verbatim.
	KindStorage
	// KindExternal marks an AI/transcription/fax provider failure.
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAuthorization:
		return "authorization"
	case KindStorage:
		return "storage"
	case KindExternal:
		return "external"
	}
	return "unknown"
}

// Error is a classified error. It wraps an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg != "" {
			return e.Msg + ": " + e.Err.Error()
		}
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so errors.Is(err, apperr.Conflict("")) style
// comparisons work across wrapped chains.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func Authorization(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Msg: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence-layer failure.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Msg: "storage", Err: err}
}

// External wraps a third-party service failure. The service name prefixes the
// message so operators can tell providers apart in logs.
func External(service string, err error) *Error {
	return &Error{Kind: KindExternal, Msg: service, Err: err}
}

// KindOf returns the Kind of err, or 0 when err carries no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err is classified as k.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }

// HTTPStatus maps an error onto the HTTP status code the API surfaces.
// Unclassified errors map to 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindAuthorization:
		return http.StatusForbidden
	case KindStorage, KindExternal:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
