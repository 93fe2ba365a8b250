package core

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers. The transport layer maps each kind
// onto one HTTP status; the string values are part of the API contract.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindNotFound           Kind = "not_found"
	KindUnsupportedMedia   Kind = "unsupported_media"
	KindExtractionFailed   Kind = "extraction_failed"
	KindStorageUnavailable Kind = "storage_unavailable"
)

// Error is a classified domain error: a stable kind plus a human-readable
// message, optionally wrapping an underlying cause.
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

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or "" when err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func UnsupportedMediaf(format string, args ...any) *Error {
	return &Error{Kind: KindUnsupportedMedia, Message: fmt.Sprintf(format, args...)}
}

// ExtractionFailed wraps a staging, service or malformed-response failure
// from the receipt pipeline. The cause stays opaque to callers.
func ExtractionFailed(msg string, err error) *Error {
	return &Error{Kind: KindExtractionFailed, Message: msg, Err: err}
}

// StorageUnavailable wraps a store-connectivity failure. Callers may retry
// the whole request; the core never retries internally.
func StorageUnavailable(msg string, err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Message: msg, Err: err}
}

// Common validation failures, comparable with errors.Is.
var (
	ErrMissingUser   = Validationf("missing user id")
	ErrInvalidType   = Validationf("invalid transaction type")
	ErrInvalidAmount = Validationf("invalid amount")
	ErrInvalidDate   = Validationf("invalid date")
)
