package provider

import (
	"errors"
	"fmt"
)

// Kind is the normalized failure taxonomy shared by every provider.
type Kind string

const (
	// KindUserNotFound indicates no account exists for the supplied email
	KindUserNotFound Kind = "user_not_found"

	// KindWrongPassword indicates the credentials did not match
	KindWrongPassword Kind = "wrong_password"

	// KindWeakPassword indicates the password was rejected at registration
	KindWeakPassword Kind = "weak_password"

	// KindEmailAlreadyInUse indicates an account already owns the email
	KindEmailAlreadyInUse Kind = "email_already_in_use"

	// KindInvalidEmail indicates the email was rejected as malformed
	KindInvalidEmail Kind = "invalid_email"

	// KindGeneric covers every failure without a more specific kind
	KindGeneric Kind = "generic"

	// KindUserNotLoggedIn indicates the operation requires an authenticated principal
	KindUserNotLoggedIn Kind = "user_not_logged_in"
)

// Kinds lists every member of the taxonomy.
func Kinds() []Kind {
	return []Kind{
		KindUserNotFound,
		KindWrongPassword,
		KindWeakPassword,
		KindEmailAlreadyInUse,
		KindInvalidEmail,
		KindGeneric,
		KindUserNotLoggedIn,
	}
}

// Error is the only runtime failure type that crosses the facade boundary.
// The native cause is kept as text for logs; it is not reachable through
// errors.As so callers cannot branch on provider-specific types.
type Error struct {
	Kind     Kind
	Provider Name
	Op       string
	cause    string
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Provider != "" {
		msg = fmt.Sprintf("%s %s [%s]", e.Provider, e.Op, e.Kind)
	}
	if e.cause != "" {
		return msg + ": " + e.cause
	}
	return msg
}

// Is matches any *Error of the same Kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NewError creates a normalized provider error. A nil cause is allowed.
func NewError(kind Kind, name Name, op string, cause error) *Error {
	e := &Error{Kind: kind, Provider: name, Op: op}
	if cause != nil {
		e.cause = cause.Error()
	}
	return e
}

// KindOf extracts the taxonomy kind from err. Anything that is not a
// normalized *Error reports KindGeneric.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindGeneric
}

// Sentinels for errors.Is comparisons.
var (
	ErrUserNotFound       = &Error{Kind: KindUserNotFound}
	ErrWrongPassword      = &Error{Kind: KindWrongPassword}
	ErrWeakPassword       = &Error{Kind: KindWeakPassword}
	ErrEmailAlreadyInUse  = &Error{Kind: KindEmailAlreadyInUse}
	ErrInvalidEmail       = &Error{Kind: KindInvalidEmail}
	ErrGeneric            = &Error{Kind: KindGeneric}
	ErrUserNotLoggedIn    = &Error{Kind: KindUserNotLoggedIn}
	ErrProviderNotFound   = errors.New("provider not found")
	ErrUnimplemented      = errors.New("operation not supported by provider")
	ErrNotInitialized     = errors.New("provider used before Initialize")
	errDuplicateProvider  = errors.New("provider already registered")
	errNilProviderFactory = errors.New("provider factory is required")
)

// UnimplementedError reports a contract operation the adapter does not support.
type UnimplementedError struct {
	Provider Name
	Op       string
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, ErrUnimplemented)
}

func (e *UnimplementedError) Is(target error) bool {
	return target == ErrUnimplemented
}

// IsUnimplemented reports whether err signals an unsupported operation.
func IsUnimplemented(err error) bool {
	return errors.Is(err, ErrUnimplemented)
}

// MustBeInitialized panics with ErrNotInitialized when ready is false.
// Using an adapter before Initialize is a programming error, not a domain failure.
func MustBeInitialized(name Name, ready bool) {
	if !ready {
		panic(fmt.Errorf("%s: %w", name, ErrNotInitialized))
	}
}
