package errors

import (
	"errors"
	"fmt"
	"strings"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// ValidationError rejects a user action before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// NetworkError means the request did not produce a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: backend unavailable: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-success response that carried a body.
type ServerError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: server responded %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: server responded %d: %s", e.Op, e.StatusCode, body)
}

// ErrStale matches every StaleResponseError via errors.Is.
var ErrStale = errors.New("stale response")

// StaleResponseError is returned when a response belongs to a conversation that
// is no longer active. It is never shown to the user.
type StaleResponseError struct {
	ConversationId int64
	ActiveId       int64
}

func (e *StaleResponseError) Error() string {
	return fmt.Sprintf("stale response for conversation %d (active: %d)", e.ConversationId, e.ActiveId)
}

func (e *StaleResponseError) Is(target error) bool { return target == ErrStale }

// IsStale reports whether err is (or wraps) a StaleResponseError.
func IsStale(err error) bool { return errors.Is(err, ErrStale) }
