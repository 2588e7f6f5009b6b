package apperr

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an error at a boundary (API handler, gateway call).
type Kind string

const (
	KindValidation      Kind = "validation_failed"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindUnauthenticated Kind = "unauthenticated"
	KindUpstream        Kind = "upstream_failed"
	KindInternal        Kind = "internal_error"
)

// TryAgainMessage is what callers see for transient upstream failures.
const TryAgainMessage = "something went wrong, please try again"

// Error is the translated form of any failure that crosses a boundary.
type Error struct {
	Kind    Kind
	Field   string // validation only
	Message string
	Status  int // upstream only: status code reported by the third party
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

// Upstream wraps a third-party failure. status is the upstream HTTP status, or 0 when the
// third party could not be reached or answered with something unusable.
func Upstream(status int, msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Status: status, Message: msg, Err: err}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// As extracts an *Error from err; ok is false for unclassified errors.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}

// HTTPStatus maps an error to the status code returned to API callers.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUpstream:
		if e.Status >= 400 {
			return e.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as a JSON error body. Internal and unclassified errors are logged and
// their detail is withheld from the caller.
func Respond(c *gin.Context, err error) {
	status := HTTPStatus(err)
	e, ok := As(err)
	if !ok {
		log.Printf("[api] %s %s: unhandled error: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(status, gin.H{"error": KindInternal, "message": "internal error"})
		return
	}

	body := gin.H{"error": e.Kind}
	switch e.Kind {
	case KindInternal:
		log.Printf("[api] %s %s: %v", c.Request.Method, c.FullPath(), err)
		body["message"] = fmt.Sprintf("%s failed", orDefault(e.Message, "request"))
	case KindUpstream:
		log.Printf("[api] %s %s: upstream: %v", c.Request.Method, c.FullPath(), err)
		body["message"] = TryAgainMessage
	default:
		body["message"] = e.Message
	}
	if e.Field != "" {
		body["field"] = e.Field
	}
	c.AbortWithStatusJSON(status, body)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
