// Package supabase adapts Supabase Auth (GoTrue) to the provider contract.
package supabase

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"authbridge/internal/auth/models"
	"authbridge/internal/auth/provider"
)

// Config holds the project credentials used by Initialize.
type Config struct {
	URL        string
	AnonKey    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Provider implements provider.Provider on top of Client.
type Provider struct {
	cfg     Config
	once    sync.Once
	initErr error
	client  atomic.Pointer[Client]
}

// New returns an uninitialized adapter.
func New(cfg Config) *Provider {
	return &Provider{cfg: cfg}
}

var _ provider.Provider = (*Provider)(nil)

func (p *Provider) Name() provider.Name { return provider.NameSupabase }

// Initialize builds the underlying client exactly once.
func (p *Provider) Initialize(_ context.Context) error {
	p.once.Do(func() {
		client, err := NewClient(p.cfg)
		if err != nil {
			p.initErr = provider.NewError(provider.KindGeneric, provider.NameSupabase, provider.OpInitialize, err)
			return
		}
		p.client.Store(client)
	})
	return p.initErr
}

func (p *Provider) mustClient() *Client {
	c := p.client.Load()
	provider.MustBeInitialized(provider.NameSupabase, c != nil)
	return c
}

// CurrentUser reports the signed-in user. A sign-up still waiting for email
// confirmation is not signed in and yields UserNotLoggedIn.
func (p *Provider) CurrentUser(_ context.Context) (*models.User, error) {
	s := p.mustClient().CurrentSession()
	if s == nil {
		return nil, normalize(provider.OpCurrentUser, ErrNoSession)
	}
	return toUser(s.User), nil
}

// CreateUser registers through /signup.
func (p *Provider) CreateUser(ctx context.Context, email, password string) (*models.User, error) {
	s, err := p.mustClient().SignUp(ctx, email, password)
	if err != nil {
		return nil, normalize(provider.OpCreateUser, err)
	}
	return toUser(s.User), nil
}

// EmailVerification resends the sign-up confirmation to the pending sign-up,
// or to the signed-in user.
func (p *Provider) EmailVerification(ctx context.Context) error {
	return normalize(provider.OpEmailVerification, p.mustClient().ResendSignupConfirmation(ctx))
}

func (p *Provider) LogIn(ctx context.Context, email, password string) (*models.User, error) {
	s, err := p.mustClient().SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, normalize(provider.OpLogIn, err)
	}
	return toUser(s.User), nil
}

// LogOut revokes the session server-side and forgets it locally.
func (p *Provider) LogOut(ctx context.Context) error {
	return normalize(provider.OpLogOut, p.mustClient().SignOut(ctx))
}

func (p *Provider) PasswordReset(ctx context.Context, email string) error {
	return normalize(provider.OpPasswordReset, p.mustClient().ResetPasswordForEmail(ctx, email))
}

func toUser(u AuthUser) *models.User {
	return &models.User{
		ID:              u.ID,
		Email:           u.Email,
		IsEmailVerified: u.EmailConfirmedAt != nil,
	}
}
