package firebase

import (
	"errors"

	"authbridge/internal/auth/provider"
)

// errorKinds is the only place firebase failure semantics are interpreted.
var errorKinds = map[string]provider.Kind{
	"email-already-in-use": provider.KindEmailAlreadyInUse,
	"weak-password":        provider.KindWeakPassword,
	"invalid-email":        provider.KindInvalidEmail,
	"user-not-found":       provider.KindUserNotFound,
	"wrong-password":       provider.KindWrongPassword,
	"invalid-credential":   provider.KindWrongPassword,
	"invalid-user-token":   provider.KindUserNotLoggedIn,
	"user-token-expired":   provider.KindUserNotLoggedIn,
}

// kindForCode maps an SDK-style error code; unknown codes are generic.
func kindForCode(code string) provider.Kind {
	if kind, ok := errorKinds[code]; ok {
		return kind
	}
	return provider.KindGeneric
}

func normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNoSession) {
		return provider.NewError(provider.KindUserNotLoggedIn, provider.NameFirebase, op, err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return provider.NewError(kindForCode(apiErr.Code), provider.NameFirebase, op, err)
	}
	return provider.NewError(provider.KindGeneric, provider.NameFirebase, op, err)
}
