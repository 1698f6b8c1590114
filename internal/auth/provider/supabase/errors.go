package supabase

import (
	"errors"

	"authbridge/internal/auth/provider"
)

const (
	StatusEmailAlreadyInUse = 1001
	StatusWeakPassword      = 1002
	StatusInvalidEmail      = 1003
)

var statusKinds = map[int]provider.Kind{
	StatusEmailAlreadyInUse: provider.KindEmailAlreadyInUse,
	StatusWeakPassword:      provider.KindWeakPassword,
	StatusInvalidEmail:      provider.KindInvalidEmail,
}

// codeKinds maps GoTrue error_code values. Current GoTrue puts the HTTP
// status in the body code, so these carry the meaning for both registration
// and sign-in failures.
var codeKinds = map[string]provider.Kind{
	"weak_password":         provider.KindWeakPassword,
	"user_already_exists":   provider.KindEmailAlreadyInUse,
	"email_exists":          provider.KindEmailAlreadyInUse,
	"email_address_invalid": provider.KindInvalidEmail,
	"validation_failed":     provider.KindInvalidEmail,
	"invalid_credentials":   provider.KindWrongPassword,
	"user_not_found":        provider.KindUserNotFound,
}

func kindFor(e *APIError) provider.Kind {
	if kind, ok := statusKinds[e.Status]; ok {
		return kind
	}
	if kind, ok := codeKinds[e.Code]; ok {
		return kind
	}
	return provider.KindGeneric
}

func normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNoSession) {
		return provider.NewError(provider.KindUserNotLoggedIn, provider.NameSupabase, op, err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return provider.NewError(kindFor(apiErr), provider.NameSupabase, op, err)
	}
	return provider.NewError(provider.KindGeneric, provider.NameSupabase, op, err)
}
