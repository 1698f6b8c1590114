package firebase

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

type fakeAccount struct {
	localID  string
	password string
	verified bool
}

// fakeBackend mimics the Identity Toolkit endpoints the client uses.
type fakeBackend struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	accounts map[string]*fakeAccount
	failNext string
	oob      []oobRequest
	calls    map[string]int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{t: t, accounts: map[string]*fakeAccount{}, calls: map[string]int{}}
	b.server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) config() Config {
	return Config{APIKey: "test-key", BaseURL: b.server.URL}
}

func (b *fakeBackend) failWith(message string) {
	b.mu.Lock()
	b.failNext = message
	b.mu.Unlock()
}

func (b *fakeBackend) addAccount(email, password string, verified bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[email] = &fakeAccount{localID: fmt.Sprintf("uid-%d", len(b.accounts)+1), password: password, verified: verified}
}

func (b *fakeBackend) oobRequests() []oobRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]oobRequest(nil), b.oob...)
}

func (b *fakeBackend) callCount(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.URL.Query().Get("key") != "test-key" {
		writeFailure(w, http.StatusBadRequest, "API_KEY_INVALID")
		return
	}
	method := strings.TrimPrefix(r.URL.Path, "/v1/")
	b.calls[method]++
	if b.failNext != "" {
		msg := b.failNext
		b.failNext = ""
		writeFailure(w, http.StatusBadRequest, msg)
		return
	}

	switch method {
	case "accounts:signUp":
		var req credentialsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if _, exists := b.accounts[req.Email]; exists {
			writeFailure(w, http.StatusBadRequest, "EMAIL_EXISTS")
			return
		}
		acct := &fakeAccount{localID: fmt.Sprintf("uid-%d", len(b.accounts)+1), password: req.Password}
		b.accounts[req.Email] = acct
		b.writeAuth(w, req.Email, acct)
	case "accounts:signInWithPassword":
		var req credentialsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		acct, ok := b.accounts[req.Email]
		if !ok {
			writeFailure(w, http.StatusBadRequest, "EMAIL_NOT_FOUND")
			return
		}
		if acct.password != req.Password {
			writeFailure(w, http.StatusBadRequest, "INVALID_PASSWORD")
			return
		}
		b.writeAuth(w, req.Email, acct)
	case "accounts:sendOobCode":
		var req oobRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.oob = append(b.oob, req)
		_ = json.NewEncoder(w).Encode(map[string]string{"email": req.Email})
	default:
		writeFailure(w, http.StatusNotFound, "NOT_FOUND")
	}
}

func (b *fakeBackend) writeAuth(w http.ResponseWriter, email string, acct *fakeAccount) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":            acct.localID,
		"email":          email,
		"email_verified": acct.verified,
	}).SignedString([]byte("fake-signing-key"))
	if err != nil {
		b.t.Errorf("sign token: %v", err)
	}
	_ = json.NewEncoder(w).Encode(authResponse{
		LocalID:      acct.localID,
		Email:        email,
		IDToken:      token,
		RefreshToken: "refresh-" + acct.localID,
	})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": status, "message": message},
	})
}
