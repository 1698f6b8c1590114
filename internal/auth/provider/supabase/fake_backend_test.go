package supabase

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeUser struct {
	id        string
	password  string
	confirmed bool
}

// fakeBackend mimics the GoTrue endpoints the client uses.
type fakeBackend struct {
	server *httptest.Server

	mu          sync.Mutex
	users       map[string]*fakeUser
	tokens      map[string]string
	failHTTP    int
	failStatus  int
	failCode    string
	calls       map[string]int
	lastResend  map[string]string
	lastRecover string
	autoConfirm bool
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		users:       map[string]*fakeUser{},
		tokens:      map[string]string{},
		calls:       map[string]int{},
		autoConfirm: true,
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) config() Config {
	return Config{URL: b.server.URL, AnonKey: "anon-key"}
}

// failWith scripts the next response. Numeric codes are sent as the body
// status (and as the HTTP status when they are one), anything else as
// error_code on a 422.
func (b *fakeBackend) failWith(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n, err := strconv.Atoi(code); err == nil {
		b.failHTTP, b.failStatus, b.failCode = http.StatusBadRequest, n, ""
		if n >= 400 && n < 600 {
			b.failHTTP = n
		}
		return
	}
	b.failHTTP, b.failStatus, b.failCode = http.StatusUnprocessableEntity, http.StatusUnprocessableEntity, code
}

// expireTokens invalidates every issued access token, as GoTrue does once
// the JWT lifetime has passed.
func (b *fakeBackend) expireTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.tokens)
}

func (b *fakeBackend) addUser(email, password string, confirmed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[email] = &fakeUser{id: fmt.Sprintf("user-%d", len(b.users)+1), password: password, confirmed: confirmed}
}

func (b *fakeBackend) callCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

func (b *fakeBackend) resendRequest() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastResend
}

func (b *fakeBackend) recoverEmail() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastRecover
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.Header.Get("apikey") != "anon-key" {
		writeFailure(w, http.StatusUnauthorized, 0, "no_api_key", "invalid api key")
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/auth/v1")
	b.calls[path]++
	if b.failStatus != 0 {
		httpStatus, status, code := b.failHTTP, b.failStatus, b.failCode
		b.failHTTP, b.failStatus, b.failCode = 0, 0, ""
		writeFailure(w, httpStatus, status, code, "scripted failure")
		return
	}

	switch path {
	case "/signup":
		var req credentials
		_ = json.NewDecoder(r.Body).Decode(&req)
		if _, exists := b.users[req.Email]; exists {
			writeFailure(w, http.StatusUnprocessableEntity, StatusEmailAlreadyInUse, "user_already_exists", "User already registered")
			return
		}
		u := &fakeUser{id: fmt.Sprintf("user-%d", len(b.users)+1), password: req.Password}
		b.users[req.Email] = u
		if !b.autoConfirm {
			_ = json.NewEncoder(w).Encode(b.authUser(req.Email, u))
			return
		}
		b.writeSession(w, req.Email, u)
	case "/token":
		if r.URL.Query().Get("grant_type") != "password" {
			writeFailure(w, http.StatusBadRequest, 0, "unsupported_grant_type", "bad grant")
			return
		}
		var req credentials
		_ = json.NewDecoder(r.Body).Decode(&req)
		u, ok := b.users[req.Email]
		if !ok || u.password != req.Password {
			writeFailure(w, http.StatusBadRequest, 0, "invalid_credentials", "Invalid login credentials")
			return
		}
		b.writeSession(w, req.Email, u)
	case "/logout":
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if _, ok := b.tokens[token]; !ok {
			writeFailure(w, http.StatusUnauthorized, 0, "bad_jwt", "invalid token")
			return
		}
		delete(b.tokens, token)
		w.WriteHeader(http.StatusNoContent)
	case "/resend":
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.lastResend = req
		_, _ = w.Write([]byte(`{}`))
	case "/recover":
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.lastRecover = req["email"]
		_, _ = w.Write([]byte(`{}`))
	default:
		writeFailure(w, http.StatusNotFound, 0, "not_found", "no route")
	}
}

func (b *fakeBackend) authUser(email string, u *fakeUser) AuthUser {
	au := AuthUser{ID: u.id, Email: email}
	if u.confirmed {
		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		au.EmailConfirmedAt = &at
	}
	return au
}

func (b *fakeBackend) writeSession(w http.ResponseWriter, email string, u *fakeUser) {
	token := fmt.Sprintf("access-%s-%d", u.id, len(b.tokens)+1)
	b.tokens[token] = u.id
	user := b.authUser(email, u)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token":  token,
		"refresh_token": "refresh-" + u.id,
		"user":          user,
	})
}

func writeFailure(w http.ResponseWriter, httpStatus, code int, errorCode, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	body := map[string]any{"msg": msg}
	if code != 0 {
		body["code"] = code
	}
	if errorCode != "" {
		body["error_code"] = errorCode
	}
	_ = json.NewEncoder(w).Encode(body)
}
