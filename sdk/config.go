package assistant

import (
	"os"
	"strings"
	"time"
)

// Built-in defaults. Resolution order everywhere is explicit option >
// environment > built-in default.
const (
	defaultBaseURL        = "http://localhost:36100"
	defaultRequestTimeout = 10 * time.Second

	envBaseURL      = "ASSISTANT_BASE_URL"
	envWebSocketURL = "ASSISTANT_WS_URL"
)

func envOr(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

// deriveWebSocketURL maps the HTTP base URL onto the websocket scheme.
func deriveWebSocketURL(baseURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	switch {
	case strings.HasPrefix(trimmed, "https://"):
		return "wss://" + strings.TrimPrefix(trimmed, "https://")
	case strings.HasPrefix(trimmed, "http://"):
		return "ws://" + strings.TrimPrefix(trimmed, "http://")
	default:
		return trimmed
	}
}
