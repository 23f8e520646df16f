package acceptance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// fakeAuthBackend emulates the SQL BaaS auth API closely enough for the
// daemon to run against it: password grant, signup with confirmation
// required, OTP verification, recovery and logout.
type fakeAuthBackend struct {
	mu    sync.Mutex
	srv   *httptest.Server
	users map[string]*fakeAccount
	codes map[string]string // email -> pending confirmation code
}

type fakeAccount struct {
	id        string
	password  string
	confirmed bool
}

func newFakeAuthBackend() *fakeAuthBackend {
	b := &fakeAuthBackend{
		users: map[string]*fakeAccount{},
		codes: map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", b.handleToken)
	mux.HandleFunc("/signup", b.handleSignup)
	mux.HandleFunc("/verify", b.handleVerify)
	mux.HandleFunc("/recover", b.handleRecover)
	mux.HandleFunc("/logout", b.handleLogout)

	b.srv = httptest.NewServer(mux)
	return b
}

func (b *fakeAuthBackend) URL() string { return b.srv.URL }

func (b *fakeAuthBackend) Close() { b.srv.Close() }

// Reset drops all accounts between tests.
func (b *fakeAuthBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = map[string]*fakeAccount{}
	b.codes = map[string]string{}
}

// AddConfirmedUser seeds an account that can sign in immediately.
func (b *fakeAuthBackend) AddConfirmedUser(email, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[email] = &fakeAccount{
		id:        fmt.Sprintf("user-%d", len(b.users)+1),
		password:  password,
		confirmed: true,
	}
}

// PendingCode returns the confirmation code "emailed" to an address.
func (b *fakeAuthBackend) PendingCode(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[email]
}

func (b *fakeAuthBackend) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	if r.URL.Query().Get("grant_type") != "password" {
		writeError(w, http.StatusBadRequest, "unsupported grant type")
		return
	}

	b.mu.Lock()
	acct := b.users[req.Email]
	b.mu.Unlock()

	if acct == nil || acct.password != req.Password {
		writeError(w, http.StatusBadRequest, "Invalid login credentials")
		return
	}
	if !acct.confirmed {
		writeError(w, http.StatusBadRequest, "Email not confirmed")
		return
	}

	writeSession(w, acct.id, req.Email)
}

func (b *fakeAuthBackend) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.users[req.Email]; exists {
		writeError(w, http.StatusUnprocessableEntity, "User already registered")
		return
	}

	id := fmt.Sprintf("user-%d", len(b.users)+1)
	b.users[req.Email] = &fakeAccount{id: id, password: req.Password}
	b.codes[req.Email] = "123456"

	// Confirmation required: user only, no tokens.
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         id,
		"email":      req.Email,
		"created_at": time.Now().UTC(),
	})
}

func (b *fakeAuthBackend) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type  string `json:"type"`
		Email string `json:"email"`
		Token string `json:"token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	acct := b.users[req.Email]
	code := b.codes[req.Email]
	if acct != nil && code != "" && code == req.Token {
		acct.confirmed = true
		delete(b.codes, req.Email)
		b.mu.Unlock()
		writeSession(w, acct.id, req.Email)
		return
	}
	b.mu.Unlock()

	writeError(w, http.StatusUnauthorized, "Token has expired or is invalid")
}

func (b *fakeAuthBackend) handleRecover(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (b *fakeAuthBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func writeSession(w http.ResponseWriter, id, email string) {
	now := time.Now().UTC()
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  "at-" + id,
		"token_type":    "bearer",
		"expires_in":    3600,
		"refresh_token": "rt-" + id,
		"user": map[string]any{
			"id":                 id,
			"email":              email,
			"created_at":         now,
			"email_confirmed_at": now,
		},
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error_description": msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
