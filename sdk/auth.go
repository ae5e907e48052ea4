package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService handles login, registration, and session lifecycle.
type AuthService struct {
	client *Client
}

// Session is the stored token pair. It is created on login, replaced in
// place by the refresh flow, and destroyed on logout or irrecoverable
// refresh failure.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// ExpiresAt peeks at the access token's exp claim without verifying the
// signature. Display and telemetry only; the server stays authoritative
// and 401 still drives the refresh flow.
func (s *Session) ExpiresAt() (time.Time, bool) {
	if s == nil || s.AccessToken == "" {
		return time.Time{}, false
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(s.AccessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Login exchanges credentials for a token pair and persists it. The
// endpoint takes form-encoded fields named username/password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, NewInvalidRequestError("email and password must not be empty")
	}

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	ctx, cancel := s.client.withRequestTimeout(ctx)
	defer cancel()

	status, body, err := s.client.roundTrip(ctx, http.MethodPost, "/auth/login",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", "")
	if err != nil {
		return nil, err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, apiErrorFromResponse(status, body)
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if session.AccessToken == "" {
		return nil, NewAuthenticationError("login response carried no access token")
	}

	if err := s.client.store.Put(storageKeyAccessToken, session.AccessToken); err != nil {
		return nil, fmt.Errorf("persist access token: %w", err)
	}
	if session.RefreshToken != "" {
		if err := s.client.store.Put(storageKeyRefreshToken, session.RefreshToken); err != nil {
			return nil, fmt.Errorf("persist refresh token: %w", err)
		}
	}
	return &session, nil
}

// Register creates a new account. The caller still logs in afterwards.
func (s *AuthService) Register(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return NewInvalidRequestError("email and password must not be empty")
	}
	body := map[string]string{"email": email, "password": password}
	return s.client.doJSON(ctx, http.MethodPost, "/auth/register", body, nil)
}

// Me fetches the account profile and caches it locally.
func (s *AuthService) Me(ctx context.Context) (*User, error) {
	var user User
	if err := s.client.doJSON(ctx, http.MethodGet, "/auth/users/me", nil, &user); err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(&user); err == nil {
		if err := s.client.store.Put(storageKeyUserData, string(raw)); err != nil {
			s.client.logger.Warn("caching profile failed", "error", err)
		}
	}
	return &user, nil
}

// CachedUser returns the locally cached profile, if any.
func (s *AuthService) CachedUser() (*User, bool) {
	raw, ok, err := s.client.store.Get(storageKeyUserData)
	if err != nil || !ok {
		return nil, false
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false
	}
	return &user, true
}

// CurrentSession returns the stored token pair, if any.
func (s *AuthService) CurrentSession() (*Session, bool) {
	access, ok, err := s.client.store.Get(storageKeyAccessToken)
	if err != nil || !ok || access == "" {
		return nil, false
	}
	refresh, _, _ := s.client.store.Get(storageKeyRefreshToken)
	return &Session{AccessToken: access, RefreshToken: refresh}, true
}

// Logout clears every piece of persisted auth state atomically.
func (s *AuthService) Logout() error {
	return s.client.store.ClearAll()
}
