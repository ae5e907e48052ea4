package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type refreshOutcome struct {
	token string
	err   error
}

// doJSON issues an authenticated JSON request and decodes the response
// into out (out may be nil). A 401 on a first attempt triggers the
// refresh flow and exactly one replay; a 401 on a replay fails outright.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	return c.doRaw(ctx, method, path, payload, "application/json", out)
}

// doRaw is the shared request path. contentType is empty for bodyless
// requests.
func (c *Client) doRaw(ctx context.Context, method, path string, payload []byte, contentType string, out any) error {
	run := func(ctx context.Context, token string) (int, []byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		return c.roundTrip(ctx, method, path, reader, contentType, token)
	}
	return c.withAuthRetry(ctx, run, out)
}

// requestRunner performs one HTTP exchange with the given bearer token.
type requestRunner func(ctx context.Context, token string) (status int, body []byte, err error)

// withAuthRetry runs the request, handling 401 via the single-flight
// refresh queue. The replay is marked by construction: it happens at
// most once, after a successful refresh, with the new token.
func (c *Client) withAuthRetry(ctx context.Context, run requestRunner, out any) error {
	ctx, cancel := c.withRequestTimeout(ctx)
	defer cancel()

	status, body, err := run(ctx, c.accessToken())
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		token, refreshErr := c.refreshAccessToken(ctx)
		if refreshErr != nil {
			return refreshErr
		}
		status, body, err = run(ctx, token)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			// Already retried once; never loop.
			return apiErrorFromResponse(status, body)
		}
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return apiErrorFromResponse(status, body)
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) withRequestTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}

// roundTrip performs one HTTP exchange. Transport-level failures come
// back as *TransportError; any received response is returned as-is.
func (c *Client) roundTrip(ctx context.Context, method, path string, body io.Reader, contentType, token string) (int, []byte, error) {
	url := c.apiURL(path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Op: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Op: method, URL: url, Err: err}
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) apiURL(path string) string {
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// refreshAccessToken exchanges the stored refresh token for a new access
// token. At most one exchange is in flight at any time; callers arriving
// while one is pending wait on it and share its outcome.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	if c.refreshing {
		ch := make(chan refreshOutcome, 1)
		c.refreshWaiters = append(c.refreshWaiters, ch)
		c.refreshMu.Unlock()
		select {
		case outcome := <-ch:
			return outcome.token, outcome.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.refreshing = true
	c.refreshMu.Unlock()

	token, err := c.exchangeRefreshToken(ctx)

	c.refreshMu.Lock()
	waiters := c.refreshWaiters
	c.refreshWaiters = nil
	c.refreshing = false
	c.refreshMu.Unlock()

	for _, ch := range waiters {
		ch <- refreshOutcome{token: token, err: err}
	}
	return token, err
}

// exchangeRefreshToken performs the actual refresh call. Missing token,
// transport failure, and server rejection all route to the same path:
// clear every piece of local auth state and force re-login.
func (c *Client) exchangeRefreshToken(ctx context.Context) (string, error) {
	refreshToken, ok, err := c.store.Get(storageKeyRefreshToken)
	if err != nil || !ok || refreshToken == "" {
		c.clearAuthState()
		return "", ErrNotAuthenticated
	}

	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return "", fmt.Errorf("encode refresh request: %w", err)
	}
	status, body, err := c.roundTrip(ctx, http.MethodPost, "/auth/refresh", bytes.NewReader(payload), "application/json", "")
	if err != nil {
		c.clearAuthState()
		return "", ErrNotAuthenticated
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		c.clearAuthState()
		return "", ErrNotAuthenticated
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.AccessToken == "" {
		c.clearAuthState()
		return "", ErrNotAuthenticated
	}
	if err := c.store.Put(storageKeyAccessToken, result.AccessToken); err != nil {
		return "", fmt.Errorf("persist access token: %w", err)
	}
	return result.AccessToken, nil
}

func (c *Client) clearAuthState() {
	if err := c.store.ClearAll(); err != nil {
		c.logger.Warn("clearing local auth state failed", "error", err)
	}
}

// apiErrorFromResponse maps a non-2xx response to a typed *Error. The
// backend reports failures as {"detail": "..."}.
func apiErrorFromResponse(status int, body []byte) error {
	message := strings.TrimSpace(string(body))
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && strings.TrimSpace(detail.Detail) != "" {
		message = strings.TrimSpace(detail.Detail)
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Type: errorTypeForStatus(status), Message: message, Status: status}
}
