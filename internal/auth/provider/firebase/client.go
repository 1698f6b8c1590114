package firebase

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

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultBaseURL = "https://identitytoolkit.googleapis.com"
	defaultTimeout = 10 * time.Second

	oobVerifyEmail   = "VERIFY_EMAIL"
	oobPasswordReset = "PASSWORD_RESET"
)

// ErrNoSession is returned when an operation needs a signed-in account.
var ErrNoSession = errors.New("firebase: no signed-in account")

// APIError is a failed Identity Toolkit response. Code is the SDK-style
// error code derived from the server message (e.g. "email-already-in-use").
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("firebase: %s (status %d, %s)", e.Code, e.Status, e.Message)
}

// serverCodes maps Identity Toolkit messages onto the codes the client SDKs expose.
var serverCodes = map[string]string{
	"EMAIL_EXISTS":                "email-already-in-use",
	"WEAK_PASSWORD":               "weak-password",
	"INVALID_EMAIL":               "invalid-email",
	"MISSING_EMAIL":               "invalid-email",
	"EMAIL_NOT_FOUND":             "user-not-found",
	"INVALID_PASSWORD":            "wrong-password",
	"INVALID_LOGIN_CREDENTIALS":   "invalid-credential",
	"USER_DISABLED":               "user-disabled",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "too-many-requests",
	"INVALID_ID_TOKEN":            "invalid-user-token",
	"TOKEN_EXPIRED":               "user-token-expired",
	"OPERATION_NOT_ALLOWED":       "operation-not-allowed",
}

func codeFromMessage(message string) string {
	key, _, _ := strings.Cut(message, " ")
	key = strings.TrimSpace(key)
	if code, ok := serverCodes[key]; ok {
		return code
	}
	return "internal-error"
}

// Session is the account cached after a successful sign-up or sign-in.
type Session struct {
	LocalID       string
	Email         string
	IDToken       string
	RefreshToken  string
	EmailVerified bool
}

// Client talks to the Identity Toolkit REST API and caches the signed-in
// account the way the client SDKs do.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	mu      sync.RWMutex
	session *Session
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("firebase: api key is required")
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("firebase: parse base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{apiKey: cfg.APIKey, baseURL: baseURL, httpClient: httpClient}, nil
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type authResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

type oobRequest struct {
	RequestType string `json:"requestType"`
	IDToken     string `json:"idToken,omitempty"`
	Email       string `json:"email,omitempty"`
}

// SignUp creates an account and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "accounts:signUp", email, password)
}

// SignInWithPassword signs in an existing account.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "accounts:signInWithPassword", email, password)
}

func (c *Client) authenticate(ctx context.Context, method, email, password string) (*Session, error) {
	var res authResponse
	req := credentialsRequest{Email: email, Password: password, ReturnSecureToken: true}
	if err := c.post(ctx, method, req, &res); err != nil {
		return nil, err
	}
	if res.LocalID == "" {
		return nil, fmt.Errorf("firebase: %s: empty localId in response", method)
	}
	s := &Session{
		LocalID:       res.LocalID,
		Email:         res.Email,
		IDToken:       res.IDToken,
		RefreshToken:  res.RefreshToken,
		EmailVerified: emailVerifiedClaim(res.IDToken),
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return s.clone(), nil
}

// SendEmailVerification asks the service to mail a verification link to the
// signed-in account. The cached ID token is never refreshed; once the service
// rejects it the session is dropped and the caller has to sign in again.
func (c *Client) SendEmailVerification(ctx context.Context) error {
	s := c.CurrentSession()
	if s == nil {
		return ErrNoSession
	}
	err := c.post(ctx, "accounts:sendOobCode", oobRequest{RequestType: oobVerifyEmail, IDToken: s.IDToken}, nil)
	if isTokenRejected(err) {
		c.mu.Lock()
		if c.session != nil && c.session.IDToken == s.IDToken {
			c.session = nil
		}
		c.mu.Unlock()
	}
	return err
}

func isTokenRejected(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == "invalid-user-token" || apiErr.Code == "user-token-expired"
}

// SendPasswordResetEmail asks the service to mail a reset link to email.
func (c *Client) SendPasswordResetEmail(ctx context.Context, email string) error {
	return c.post(ctx, "accounts:sendOobCode", oobRequest{RequestType: oobPasswordReset, Email: email}, nil)
}

// CurrentSession returns a copy of the cached session, or nil.
func (c *Client) CurrentSession() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.clone()
}

// SignOut drops the cached session. Identity Toolkit has no server-side sign-out.
func (c *Client) SignOut() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

func (c *Client) post(ctx context.Context, method string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("firebase: encode %s: %w", method, err)
	}
	endpoint := fmt.Sprintf("%s/v1/%s?key=%s", c.baseURL, method, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("firebase: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("firebase: %s failed: %w", method, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("firebase: read %s response: %w", method, err)
	}
	if res.StatusCode != http.StatusOK {
		return parseAPIError(res.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("firebase: decode %s response: %w", method, err)
	}
	return nil
}

func parseAPIError(status int, raw []byte) *APIError {
	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Message == "" {
		return &APIError{Status: status, Message: http.StatusText(status), Code: "internal-error"}
	}
	return &APIError{
		Status:  status,
		Message: envelope.Error.Message,
		Code:    codeFromMessage(envelope.Error.Message),
	}
}

// emailVerifiedClaim reads email_verified from the ID token without verifying
// its signature; the token came straight from the service over TLS.
func emailVerifiedClaim(idToken string) bool {
	if idToken == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return false
	}
	verified, _ := claims["email_verified"].(bool)
	return verified
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
