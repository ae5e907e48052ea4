package assistant

import (
	"log/slog"
	"net/http"
	"time"
)

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets the platform base URL, overriding ASSISTANT_BASE_URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithWebSocketURL sets the chat channel base URL explicitly. When unset
// it is derived from the base URL (http -> ws, https -> wss).
func WithWebSocketURL(url string) ClientOption {
	return func(c *Client) {
		c.wsURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRequestTimeout sets the fixed timeout applied to non-streaming
// requests that carry no caller deadline.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.requestTimeout = d
	}
}

// WithCredentialStore sets the persistence layer for tokens and caches.
func WithCredentialStore(store CredentialStore) ClientOption {
	return func(c *Client) {
		c.store = store
	}
}

// WithLogger sets the logger for the client.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}
