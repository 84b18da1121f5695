// Package errs defines the closed service-level error taxonomy surfaced by
// the data-access core, plus the single classifier that maps raw engine
// failures onto it.
//
// Every repository operation returns either a nil error or a *ServiceError.
// Callers branch on the kind (via the Is* helpers) to pick behavior; the HTTP
// layer uses it to pick a status code. Raw engine messages are preserved in
// the wrapped cause for diagnostics but are never meant for untrusted
// callers: for KindDatabase the boundary must render a generic message.
package errs

import (
	"errors"
	"fmt"
)

// Kind enumerates the closed set of service error categories.
type Kind int

const (
	// KindDatabase is any engine failure not covered by a more specific kind.
	KindDatabase Kind = iota
	// KindConfig is a missing or invalid startup configuration value.
	KindConfig
	// KindConnection is a pool build or connection acquisition failure.
	KindConnection
	// KindConflict is a unique-constraint violation on insert or update.
	KindConflict
	// KindNotFound is a singular lookup that matched zero rows.
	KindNotFound
	// KindValidation is a business precondition failing inside a unit of work.
	KindValidation
)

// String returns a stable lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindConnection:
		return "connection"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "database"
	}
}

// ServiceError is the tagged outcome of a failed operation. Message is safe
// to show for every kind except KindDatabase, whose detail stays in logs.
type ServiceError struct {
	Kind    Kind
	Message string
	// Err is the underlying cause, when one exists.
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// Config reports a missing or invalid configuration value. Fatal to the
// caller that requested pool creation; never retried.
func Config(format string, args ...any) *ServiceError {
	return &ServiceError{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

// Connection wraps a pool-build or connection-acquisition failure.
func Connection(msg string, cause error) *ServiceError {
	return &ServiceError{Kind: KindConnection, Message: msg, Err: cause}
}

// Conflict wraps a unique-constraint violation.
func Conflict(msg string, cause error) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: msg, Err: cause}
}

// NotFound reports a singular lookup that matched no rows.
func NotFound(format string, args ...any) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation reports a business precondition failure raised inside a
// transaction's unit of work. It triggers rollback when returned from one.
func Validation(format string, args ...any) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Database wraps any other engine failure. The message carries engine detail
// for logs; the HTTP boundary renders a generic message instead.
func Database(msg string, cause error) *ServiceError {
	return &ServiceError{Kind: KindDatabase, Message: msg, Err: cause}
}

// KindOf extracts the kind of err. The second return is false when err is nil
// or not a *ServiceError.
func KindOf(err error) (Kind, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return KindDatabase, false
}

func is(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool { return is(err, KindConfig) }

// IsConnection reports whether err is a connection/pool failure.
func IsConnection(err error) bool { return is(err, KindConnection) }

// IsConflict reports whether err is a uniqueness conflict.
func IsConflict(err error) bool { return is(err, KindConflict) }

// IsNotFound reports whether err is a missing-row error.
func IsNotFound(err error) bool { return is(err, KindNotFound) }

// IsValidation reports whether err is a business validation failure.
func IsValidation(err error) bool { return is(err, KindValidation) }

// IsDatabase reports whether err is a generic engine failure.
func IsDatabase(err error) bool { return is(err, KindDatabase) }
