package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 10 * time.Second

// ErrNoSession is returned when an operation needs a signed-in user.
var ErrNoSession = errors.New("supabase: no signed-in user")

// APIError is a failed GoTrue response. Status is the numeric code reported
// in the body, falling back to the HTTP status when the body has none.
type APIError struct {
	HTTPStatus int
	Status     int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: status %d: %s", e.Status, e.Message)
}

// AuthUser is the user record returned by GoTrue.
type AuthUser struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
}

// Session is the signed-in user cached after sign-in, or after a sign-up that
// GoTrue confirmed immediately.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         AuthUser
}

// Client talks to the GoTrue REST API under {URL}/auth/v1 and caches the
// current session the way supabase-js does.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu      sync.RWMutex
	session *Session
	// pending is a sign-up still waiting for email confirmation. It has no
	// access token and is never reported as the current session.
	pending *AuthUser
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("supabase: project url is required")
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, errors.New("supabase: anon key is required")
	}
	u, err := url.Parse(strings.TrimSuffix(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("supabase: parse url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: u.String() + "/auth/v1", apiKey: cfg.AnonKey, httpClient: httpClient}, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse covers both shapes GoTrue returns: a full session, or a
// bare user when sign-up still needs confirmation.
type sessionResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	User         *AuthUser `json:"user"`
	AuthUser
}

// SignUp registers a new user.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.startSession(ctx, "/signup", credentials{Email: email, Password: password})
}

// SignInWithPassword signs in an existing user.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	return c.startSession(ctx, "/token?grant_type=password", credentials{Email: email, Password: password})
}

func (c *Client) startSession(ctx context.Context, path string, body credentials) (*Session, error) {
	var res sessionResponse
	if err := c.do(ctx, path, "", body, &res); err != nil {
		return nil, err
	}
	user := res.AuthUser
	if res.User != nil {
		user = *res.User
	}
	if user.ID == "" {
		return nil, fmt.Errorf("supabase: %s: response carried no user", path)
	}
	s := &Session{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken, User: user}
	c.mu.Lock()
	if s.AccessToken == "" {
		c.pending = &user
	} else {
		c.session = s
		c.pending = nil
	}
	c.mu.Unlock()
	return s.clone(), nil
}

// SignOut revokes the access token server-side, then drops the cached session
// and any pending sign-up. Without a cached session nothing is sent.
//
// A 401, 403 or 404 from /logout means the token is already unusable (expired,
// revoked or its user deleted), so the local session is dropped anyway.
// Transport failures and 5xx keep it.
func (c *Client) SignOut(ctx context.Context) error {
	s := c.CurrentSession()
	if s != nil {
		if err := c.do(ctx, "/logout", s.AccessToken, nil, nil); err != nil && !tokenRejected(err) {
			return err
		}
	}
	c.mu.Lock()
	if s != nil && c.session != nil && c.session.User.ID == s.User.ID {
		c.session = nil
	}
	c.pending = nil
	c.mu.Unlock()
	return nil
}

func tokenRejected(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.HTTPStatus {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// ResendSignupConfirmation mails a new confirmation link to the pending
// sign-up, or to the signed-in user when nothing is pending.
func (c *Client) ResendSignupConfirmation(ctx context.Context) error {
	email := c.confirmationEmail()
	if email == "" {
		return ErrNoSession
	}
	body := map[string]string{"type": "signup", "email": email}
	return c.do(ctx, "/resend", "", body, nil)
}

func (c *Client) confirmationEmail() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch {
	case c.pending != nil:
		return c.pending.Email
	case c.session != nil:
		return c.session.User.Email
	}
	return ""
}

// ResetPasswordForEmail mails a password recovery link to email.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	return c.do(ctx, "/recover", "", map[string]string{"email": email}, nil)
}

// CurrentSession returns a copy of the cached session, or nil.
func (c *Client) CurrentSession() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.clone()
}

func (c *Client) do(ctx context.Context, path, bearer string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("supabase: encode %s: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("supabase: new request: %w", err)
	}
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: %s failed: %w", path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("supabase: read %s response: %w", path, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return parseAPIError(res.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("supabase: decode %s response: %w", path, err)
	}
	return nil
}

func parseAPIError(httpStatus int, raw []byte) *APIError {
	var body struct {
		Code             int    `json:"code"`
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(raw, &body)

	e := &APIError{HTTPStatus: httpStatus, Status: body.Code, Code: body.ErrorCode, Message: body.Msg}
	if e.Status == 0 {
		e.Status = httpStatus
	}
	if e.Message == "" {
		e.Message = body.ErrorDescription
	}
	if e.Message == "" {
		e.Message = http.StatusText(httpStatus)
	}
	return e
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
