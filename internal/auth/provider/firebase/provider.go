// Package firebase adapts the Firebase Authentication (Identity Toolkit)
// service to the provider contract.
package firebase

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"authbridge/internal/auth/models"
	"authbridge/internal/auth/provider"
)

// Config holds the credentials used by Initialize.
type Config struct {
	APIKey     string
	BaseURL    string
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

func (p *Provider) Name() provider.Name { return provider.NameFirebase }

// Initialize builds the underlying client exactly once.
func (p *Provider) Initialize(_ context.Context) error {
	p.once.Do(func() {
		client, err := NewClient(p.cfg)
		if err != nil {
			p.initErr = provider.NewError(provider.KindGeneric, provider.NameFirebase, provider.OpInitialize, err)
			return
		}
		p.client.Store(client)
	})
	return p.initErr
}

func (p *Provider) mustClient() *Client {
	c := p.client.Load()
	provider.MustBeInitialized(provider.NameFirebase, c != nil)
	return c
}

func (p *Provider) CurrentUser(_ context.Context) (*models.User, error) {
	s := p.mustClient().CurrentSession()
	if s == nil {
		return nil, normalize(provider.OpCurrentUser, ErrNoSession)
	}
	return toUser(s), nil
}

func (p *Provider) CreateUser(ctx context.Context, email, password string) (*models.User, error) {
	s, err := p.mustClient().SignUp(ctx, email, password)
	if err != nil {
		return nil, normalize(provider.OpCreateUser, err)
	}
	return toUser(s), nil
}

func (p *Provider) EmailVerification(ctx context.Context) error {
	return normalize(provider.OpEmailVerification, p.mustClient().SendEmailVerification(ctx))
}

func (p *Provider) LogIn(ctx context.Context, email, password string) (*models.User, error) {
	s, err := p.mustClient().SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, normalize(provider.OpLogIn, err)
	}
	return toUser(s), nil
}

// LogOut is local only and succeeds when nobody is signed in.
func (p *Provider) LogOut(_ context.Context) error {
	p.mustClient().SignOut()
	return nil
}

func (p *Provider) PasswordReset(ctx context.Context, email string) error {
	return normalize(provider.OpPasswordReset, p.mustClient().SendPasswordResetEmail(ctx, email))
}

func toUser(s *Session) *models.User {
	return &models.User{
		ID:              s.LocalID,
		Email:           s.Email,
		IsEmailVerified: s.EmailVerified,
	}
}
