// Package contract holds reusable test suites every provider adapter must pass.
package contract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authbridge/internal/auth/provider"
)

// Call invokes one contract operation and returns its error.
type Call func(ctx context.Context, p provider.Provider) error

// CreateUser returns a Call registering email/password.
func CreateUser(email, password string) Call {
	return func(ctx context.Context, p provider.Provider) error {
		_, err := p.CreateUser(ctx, email, password)
		return err
	}
}

// LogIn returns a Call authenticating email/password.
func LogIn(email, password string) Call {
	return func(ctx context.Context, p provider.Provider) error {
		_, err := p.LogIn(ctx, email, password)
		return err
	}
}

// ErrorContractTest validates that provider errors follow the taxonomy
type ErrorContractTest struct {
	Name         string
	Provider     provider.Provider
	Call         Call
	ExpectedKind provider.Kind
}

// Run executes an error contract test
func (ect *ErrorContractTest) Run(t *testing.T) {
	t.Run(ect.Name, func(t *testing.T) {
		err := ect.Call(context.Background(), ect.Provider)
		require.Error(t, err, "expected error but got none")

		var pe *provider.Error
		require.True(t, errors.As(err, &pe), "error %T is not normalized: %v", err, err)
		assert.Equal(t, ect.ExpectedKind, pe.Kind)
		assert.Equal(t, ect.Provider.Name(), pe.Provider)
		assert.False(t, provider.IsUnimplemented(err))
	})
}

// ErrorTable runs one ErrorContractTest per row against the same provider.
type ErrorTable struct {
	Provider provider.Provider
	// Arrange scripts the fake backend to fail with the native code before each row runs.
	Arrange func(code string)
	Call    Call
	Rows    map[string]provider.Kind
}

// Run executes every row.
func (et *ErrorTable) Run(t *testing.T) {
	for code, kind := range et.Rows {
		et.Arrange(code)
		test := ErrorContractTest{
			Name:         code,
			Provider:     et.Provider,
			Call:         et.Call,
			ExpectedKind: kind,
		}
		test.Run(t)
	}
}

// UninitializedTest checks that every operation panics with
// provider.ErrNotInitialized when Initialize was never called.
type UninitializedTest struct {
	New func() provider.Provider
}

// Run executes the uninitialized checks
func (ut *UninitializedTest) Run(t *testing.T) {
	ctx := context.Background()
	calls := map[string]Call{
		provider.OpCurrentUser: func(ctx context.Context, p provider.Provider) error {
			_, err := p.CurrentUser(ctx)
			return err
		},
		provider.OpCreateUser: CreateUser("a@x.com", "secret-password"),
		provider.OpEmailVerification: func(ctx context.Context, p provider.Provider) error {
			return p.EmailVerification(ctx)
		},
		provider.OpLogIn: LogIn("a@x.com", "secret-password"),
		provider.OpLogOut: func(ctx context.Context, p provider.Provider) error {
			return p.LogOut(ctx)
		},
		provider.OpPasswordReset: func(ctx context.Context, p provider.Provider) error {
			return p.PasswordReset(ctx, "a@x.com")
		},
	}
	for op, call := range calls {
		t.Run(op, func(t *testing.T) {
			p := ut.New()
			defer func() {
				r := recover()
				require.NotNil(t, r, "expected panic before Initialize")
				err, ok := r.(error)
				require.True(t, ok, "panic value %v is not an error", r)
				assert.ErrorIs(t, err, provider.ErrNotInitialized)
			}()
			_ = call(ctx, p)
		})
	}
}

// SessionTest walks the log-in / current user / log-out lifecycle against an
// initialized provider whose backend accepts Email and Password.
type SessionTest struct {
	Provider provider.Provider
	Email    string
	Password string
}

// Run executes the session lifecycle checks
func (st *SessionTest) Run(t *testing.T) {
	ctx := context.Background()
	p := st.Provider

	t.Run("no principal before log in", func(t *testing.T) {
		_, err := p.CurrentUser(ctx)
		assert.ErrorIs(t, err, provider.ErrUserNotLoggedIn)
	})

	t.Run("email verification without principal is not swallowed", func(t *testing.T) {
		err := p.EmailVerification(ctx)
		assert.ErrorIs(t, err, provider.ErrUserNotLoggedIn)
	})

	t.Run("log in caches the principal", func(t *testing.T) {
		user, err := p.LogIn(ctx, st.Email, st.Password)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, st.Email, user.Email)

		current, err := p.CurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, user, current)
	})

	t.Run("email verification with principal succeeds", func(t *testing.T) {
		assert.NoError(t, p.EmailVerification(ctx))
	})

	t.Run("log out clears the principal", func(t *testing.T) {
		require.NoError(t, p.LogOut(ctx))
		_, err := p.CurrentUser(ctx)
		assert.ErrorIs(t, err, provider.ErrUserNotLoggedIn)
	})
}
