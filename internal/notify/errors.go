package notify

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTransport marks failures where no response was received from the
// backend at all (connection refused, timeout, DNS).
var ErrTransport = errors.New("network error")

// Validation sentinels for locally detected problems.
var (
	ErrRequired     = errors.New("required field missing")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidValue = errors.New("invalid value")
)

// GatewayError is a non-2xx response from the backend. Message holds the
// server-provided {message} body field when there was one.
type GatewayError struct {
	Op      string
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

// ValidationError wraps a validation sentinel with the offending field.
type ValidationError struct {
	Err   error
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err.Error())
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Required builds a ValidationError for a missing field.
func Required(field string) error {
	return &ValidationError{Err: ErrRequired, Field: field}
}

// IsEmptyResult reports whether err is the backend's fixed "no records"
// response for a list endpoint, which callers treat as an empty page.
func IsEmptyResult(err error, emptyMessage string) bool {
	if err == nil || emptyMessage == "" {
		return false
	}
	var gw *GatewayError
	if !errors.As(err, &gw) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(gw.Message), emptyMessage)
}

// Describe turns err into the user-facing text for a notification.
// Gateway errors use the server message, falling back to fallback.
func Describe(err error, fallback string) string {
	var (
		gw *GatewayError
		ve *ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return describeValidation(ve)
	case errors.Is(err, ErrTransport):
		return "Network error"
	case errors.As(err, &gw) && strings.TrimSpace(gw.Message) != "":
		return gw.Message
	case fallback != "":
		return fallback
	default:
		return "Something went wrong"
	}
}

func describeValidation(ve *ValidationError) string {
	switch {
	case errors.Is(ve.Err, ErrRequired) && ve.Field != "":
		return ve.Field + " is required"
	case errors.Is(ve.Err, ErrInvalidEmail):
		return "Please enter a valid email address"
	default:
		return ve.Error()
	}
}
