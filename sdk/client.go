// Package assistant provides the Go client for the assistant platform:
// authenticated REST access to assistants, knowledge bases, and
// conversation history, plus the real-time chat session engine.
package assistant

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Client is the main entry point for the SDK.
type Client struct {
	Auth          *AuthService
	Assistants    *AssistantsService
	Knowledge     *KnowledgeService
	Conversations *ConversationsService

	// Internal
	baseURL        string
	wsURL          string
	httpClient     *http.Client
	requestTimeout time.Duration
	store          CredentialStore
	logger         *slog.Logger

	// Single-flight token refresh. All 401s observed while a refresh is
	// pending join refreshWaiters and settle with its outcome.
	refreshMu      sync.Mutex
	refreshing     bool
	refreshWaiters []chan refreshOutcome
}

// NewClient creates a new client. The base URL resolves as explicit
// option > ASSISTANT_BASE_URL > built-in default.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        envOr(envBaseURL, defaultBaseURL),
		requestTimeout: defaultRequestTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = newDefaultHTTPClient()
	}
	if c.store == nil {
		c.store = NewMemoryStore()
	}
	if c.wsURL == "" {
		c.wsURL = envOr(envWebSocketURL, deriveWebSocketURL(c.baseURL))
	}

	c.Auth = &AuthService{client: c}
	c.Assistants = &AssistantsService{client: c}
	c.Knowledge = &KnowledgeService{client: c}
	c.Conversations = &ConversationsService{client: c}
	return c
}

// BaseURL returns the resolved platform base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) accessToken() string {
	v, ok, err := c.store.Get(storageKeyAccessToken)
	if err != nil {
		c.logger.Warn("credential store read failed", "key", storageKeyAccessToken, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}
