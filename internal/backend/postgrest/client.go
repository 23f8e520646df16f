package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kitbase/authsync/internal/autherr"
	"github.com/kitbase/authsync/internal/domain"
)

// Client speaks the SQL BaaS auth REST API (password grant, signup, OTP
// verification, recovery, token exchange). It knows nothing about the
// canonical session shape; the adapter owns translation.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

// NewClient creates an auth API client for the given base URL.
func NewClient(baseURL, anonKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// sessionPayload is the backend's native session representation.
type sessionPayload struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	RefreshToken string       `json:"refresh_token"`
	User         *userPayload `json:"user"`
}

// userPayload is the backend's native user representation.
type userPayload struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	CreatedAt        time.Time      `json:"created_at"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
}

// errorPayload covers the error body variants the backend emits.
type errorPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorPayload) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// PasswordGrant signs in with email and password.
func (c *Client) PasswordGrant(ctx context.Context, email, password string) (*sessionPayload, error) {
	out := &sessionPayload{}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RefreshGrant exchanges a refresh token for a fresh session.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*sessionPayload, error) {
	out := &sessionPayload{}
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExchangeCode trades a PKCE / confirmation code for a session.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*sessionPayload, error) {
	out := &sessionPayload{}
	body := map[string]string{"auth_code": code}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=pkce", "", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// signupPayload is returned by /signup: a full session when the instance
// auto-confirms emails, otherwise just the created user.
type signupPayload struct {
	sessionPayload
	userPayload
}

// SignUp registers a new account. session is nil when the backend requires
// email confirmation before issuing tokens.
func (c *Client) SignUp(ctx context.Context, email, password string) (*sessionPayload, *userPayload, error) {
	out := &signupPayload{}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/signup", "", body, out); err != nil {
		return nil, nil, err
	}
	if out.AccessToken != "" {
		s := out.sessionPayload
		return &s, s.User, nil
	}
	u := out.userPayload
	return nil, &u, nil
}

// Verify redeems an emailed OTP code.
func (c *Client) Verify(ctx context.Context, verifyType, email, token string) (*sessionPayload, error) {
	out := &sessionPayload{}
	body := map[string]string{"type": verifyType, "email": email, "token": token}
	if err := c.do(ctx, http.MethodPost, "/verify", "", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Recover requests a password-recovery email.
func (c *Client) Recover(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/recover", "", body, nil)
}

// Logout revokes the session server-side.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

// GetUser fetches the user owning the access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*userPayload, error) {
	out := &userPayload{}
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePassword sets a new password for the authenticated user.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	body := map[string]string{"password": newPassword}
	return c.do(ctx, http.MethodPut, "/user", accessToken, body, nil)
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return autherr.New(autherr.KindNetwork, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return autherr.New(autherr.KindNetwork, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// apiError maps a non-2xx response onto the closed error taxonomy.
func (c *Client) apiError(status int, raw []byte) error {
	var ep errorPayload
	_ = json.Unmarshal(raw, &ep)

	text := ep.text()
	if status == http.StatusTooManyRequests {
		if text == "" {
			text = "Too many requests"
		}
		return autherr.New(autherr.KindRateLimited, text)
	}
	if text == "" {
		text = fmt.Sprintf("auth backend returned status %d", status)
	}
	return autherr.FromVendor(text)
}

// canonicalUser translates the backend's user payload.
func (u *userPayload) canonical() *domain.User {
	if u == nil || u.ID == "" {
		return nil
	}
	user := &domain.User{
		ID:               u.ID,
		Email:            u.Email,
		CreatedAt:        u.CreatedAt,
		EmailConfirmedAt: u.EmailConfirmedAt,
		Provider:         domain.ProviderPostgrest,
	}
	if len(u.UserMetadata) > 0 {
		user.Metadata = map[string]string{}
		for k, v := range u.UserMetadata {
			if s, ok := v.(string); ok {
				user.Metadata[k] = s
			}
		}
	}
	return user
}
