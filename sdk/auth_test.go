package assistant

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginSendsFormEncodedCredentials(t *testing.T) {
	t.Parallel()

	var gotContentType, gotUsername, gotPassword string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/auth/login")
		}
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotUsername = r.PostFormValue("username")
		gotPassword = r.PostFormValue("password")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Session{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			TokenType:    "bearer",
		})
	}))
	defer server.Close()

	store := NewMemoryStore()
	client := newTestClient(t, server, store)

	session, err := client.Auth.Login(context.Background(), "user@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q, want form encoding", gotContentType)
	}
	if gotUsername != "user@example.com" {
		t.Errorf("username = %q, want %q", gotUsername, "user@example.com")
	}
	if gotPassword != "hunter2" {
		t.Errorf("password = %q, want %q", gotPassword, "hunter2")
	}
	if session.AccessToken != "access-1" {
		t.Errorf("AccessToken = %q, want %q", session.AccessToken, "access-1")
	}

	access, ok, _ := store.Get(storageKeyAccessToken)
	if !ok || access != "access-1" {
		t.Errorf("stored access token = %q, want %q", access, "access-1")
	}
	refresh, ok, _ := store.Get(storageKeyRefreshToken)
	if !ok || refresh != "refresh-1" {
		t.Errorf("stored refresh token = %q, want %q", refresh, "refresh-1")
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect username or password"})
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)

	_, err := client.Auth.Login(context.Background(), "user@example.com", "wrong")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Login() error = %T, want *Error", err)
	}
	if apiErr.Type != ErrAuthentication {
		t.Errorf("error type = %q, want %q", apiErr.Type, ErrAuthentication)
	}
	if apiErr.Message != "Incorrect username or password" {
		t.Errorf("message = %q, want server detail", apiErr.Message)
	}
}

func TestLoginValidatesInput(t *testing.T) {
	t.Parallel()

	client := NewClient(WithBaseURL("http://localhost:0"))
	if _, err := client.Auth.Login(context.Background(), "", "pw"); err == nil {
		t.Error("Login with empty email: error = nil, want invalid request")
	}
	if _, err := client.Auth.Login(context.Background(), "a@b.c", ""); err == nil {
		t.Error("Login with empty password: error = nil, want invalid request")
	}
}

func TestMeCachesProfile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/users/me" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/auth/users/me")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(User{UserID: 5, Email: "user@example.com"})
	}))
	defer server.Close()

	store := NewMemoryStore()
	seedTokens(t, store, "access-1", "refresh-1")
	client := newTestClient(t, server, store)

	user, err := client.Auth.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if user.UserID != 5 {
		t.Errorf("UserID = %d, want 5", user.UserID)
	}

	cached, ok := client.Auth.CachedUser()
	if !ok {
		t.Fatal("CachedUser() ok = false, want true")
	}
	if cached.Email != "user@example.com" {
		t.Errorf("cached email = %q, want %q", cached.Email, "user@example.com")
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	seedTokens(t, store, "access-1", "refresh-1")
	if err := store.Put(storageKeyUserData, `{"id":1}`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Put(storageKeyAssistants, `[]`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	client := NewClient(WithBaseURL("http://localhost:0"), WithCredentialStore(store))
	if err := client.Auth.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	for _, key := range []string{storageKeyAccessToken, storageKeyRefreshToken, storageKeyUserData, storageKeyAssistants} {
		if _, ok, _ := store.Get(key); ok {
			t.Errorf("key %q survived logout", key)
		}
	}
	if _, ok := client.Auth.CurrentSession(); ok {
		t.Error("CurrentSession() ok = true after logout")
	}
}

func unverifiedToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	return fmt.Sprintf("%s.%s.sig", header, base64.RawURLEncoding.EncodeToString(payload))
}

func TestSessionExpiresAt(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(30 * time.Minute).Unix()
	session := &Session{AccessToken: unverifiedToken(t, map[string]any{"exp": exp})}

	got, ok := session.ExpiresAt()
	if !ok {
		t.Fatal("ExpiresAt() ok = false, want true")
	}
	if got.Unix() != exp {
		t.Errorf("ExpiresAt() = %v, want unix %d", got, exp)
	}

	if _, ok := (&Session{AccessToken: "not-a-jwt"}).ExpiresAt(); ok {
		t.Error("ExpiresAt() ok = true for garbage token")
	}
	if _, ok := (&Session{AccessToken: unverifiedToken(t, map[string]any{"sub": "x"})}).ExpiresAt(); ok {
		t.Error("ExpiresAt() ok = true for token without exp")
	}
}

func TestEmbedBootstrapIsUnauthenticated(t *testing.T) {
	t.Parallel()

	var gotAuthorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed/assistant/acme-support" {
			t.Errorf("path = %q, want embed bootstrap path", r.URL.Path)
		}
		gotAuthorization = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":              9,
			"name":            "Acme Support",
			"assistant_image": "avatar.png",
			"video_1":         "bg.mp4",
			"message_welcome": "Hi, how can I help?",
		})
	}))
	defer server.Close()

	store := NewMemoryStore()
	seedTokens(t, store, "access-1", "refresh-1")
	client := newTestClient(t, server, store)

	a, err := client.Assistants.EmbedBootstrap(context.Background(), "acme-support")
	if err != nil {
		t.Fatalf("EmbedBootstrap() error = %v", err)
	}
	if gotAuthorization != "" {
		t.Errorf("Authorization = %q, want empty", gotAuthorization)
	}
	if a.ID != 9 || a.Name != "Acme Support" {
		t.Errorf("assistant = %+v, want id 9 name Acme Support", a)
	}
	if a.WelcomeMessage != "Hi, how can I help?" {
		t.Errorf("WelcomeMessage = %q, want welcome text", a.WelcomeMessage)
	}
	if a.AvatarImage != "avatar.png" || a.BackgroundVideo != "bg.mp4" {
		t.Errorf("media refs = %q/%q, want avatar.png/bg.mp4", a.AvatarImage, a.BackgroundVideo)
	}
}
