package provider

import (
	"context"
	"fmt"
	"strings"

	"authbridge/internal/auth/models"
)

// Name identifies a backing identity service.
type Name string

const (
	NameFirebase Name = "firebase"
	NameSupabase Name = "supabase"
)

// Names lists the providers this module ships adapters for.
func Names() []Name {
	return []Name{NameFirebase, NameSupabase}
}

// ParseName validates a configured provider name.
func ParseName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Names() {
		if n == known {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrProviderNotFound, s)
}

// Operation names used for errors, logs, metrics and spans.
const (
	OpInitialize        = "initialize"
	OpCurrentUser       = "current_user"
	OpCreateUser        = "create_user"
	OpEmailVerification = "email_verification"
	OpLogIn             = "log_in"
	OpLogOut            = "log_out"
	OpPasswordReset     = "password_reset"
)

// Provider is the capability set every backing identity service adapter
// implements. The facade implements it too, so the two are interchangeable.
//
// Initialize must be called before any other method; adapters panic with
// ErrNotInitialized otherwise. Runtime failures are always *Error values.
type Provider interface {
	// Name returns the identifier the provider was registered under
	Name() Name

	// Initialize performs one-time setup of the underlying client
	Initialize(ctx context.Context) error

	// CurrentUser returns the cached principal without a network call
	CurrentUser(ctx context.Context) (*models.User, error)

	// CreateUser registers a new account
	CreateUser(ctx context.Context, email, password string) (*models.User, error)

	// EmailVerification sends a verification message to the current principal
	EmailVerification(ctx context.Context) error

	// LogIn authenticates an existing account
	LogIn(ctx context.Context, email, password string) (*models.User, error)

	// LogOut clears the current principal
	LogOut(ctx context.Context) error

	// PasswordReset starts the password-reset flow for email
	PasswordReset(ctx context.Context, email string) error
}

// UnimplementedProvider can be embedded by adapters that only support part of
// the contract. Every operation fails with an *UnimplementedError.
type UnimplementedProvider struct {
	ProviderName Name
}

func (u UnimplementedProvider) Name() Name { return u.ProviderName }

func (u UnimplementedProvider) Initialize(context.Context) error {
	return u.unimplemented(OpInitialize)
}

func (u UnimplementedProvider) CurrentUser(context.Context) (*models.User, error) {
	return nil, u.unimplemented(OpCurrentUser)
}

func (u UnimplementedProvider) CreateUser(context.Context, string, string) (*models.User, error) {
	return nil, u.unimplemented(OpCreateUser)
}

func (u UnimplementedProvider) EmailVerification(context.Context) error {
	return u.unimplemented(OpEmailVerification)
}

func (u UnimplementedProvider) LogIn(context.Context, string, string) (*models.User, error) {
	return nil, u.unimplemented(OpLogIn)
}

func (u UnimplementedProvider) LogOut(context.Context) error {
	return u.unimplemented(OpLogOut)
}

func (u UnimplementedProvider) PasswordReset(context.Context, string) error {
	return u.unimplemented(OpPasswordReset)
}

func (u UnimplementedProvider) unimplemented(op string) error {
	return &UnimplementedError{Provider: u.ProviderName, Op: op}
}
