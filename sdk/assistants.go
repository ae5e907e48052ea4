package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// AssistantsService manages configured assistants.
type AssistantsService struct {
	client *Client
}

// Create registers a new assistant for the authenticated user.
func (s *AssistantsService) Create(ctx context.Context, params *AssistantParams) (*Assistant, error) {
	if params == nil || params.Name == "" {
		return nil, NewInvalidRequestError("assistant name must not be empty")
	}
	var created Assistant
	if err := s.client.doJSON(ctx, http.MethodPost, "/assistant/create", params, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces an assistant's editable configuration.
func (s *AssistantsService) Update(ctx context.Context, id int, params *AssistantParams) (*Assistant, error) {
	if params == nil {
		return nil, NewInvalidRequestError("params must not be nil")
	}
	var updated Assistant
	path := fmt.Sprintf("/assistant/%d", id)
	if err := s.client.doJSON(ctx, http.MethodPut, path, params, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Get fetches one assistant by id.
func (s *AssistantsService) Get(ctx context.Context, id int) (*Assistant, error) {
	var out Assistant
	if err := s.client.doJSON(ctx, http.MethodGet, fmt.Sprintf("/assistant/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an assistant and its knowledge base.
func (s *AssistantsService) Delete(ctx context.Context, id int) error {
	return s.client.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/assistant/%d", id), nil, nil)
}

// ListForUser fetches the user's assistants and refreshes the local cache.
func (s *AssistantsService) ListForUser(ctx context.Context, userID int) ([]Assistant, error) {
	var list []Assistant
	path := fmt.Sprintf("/user/%d/assistants", userID)
	if err := s.client.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(list); err == nil {
		if err := s.client.store.Put(storageKeyAssistants, string(raw)); err != nil {
			s.client.logger.Warn("caching assistant list failed", "error", err)
		}
	}
	return list, nil
}

// CachedList returns the locally cached assistant list, if any.
func (s *AssistantsService) CachedList() ([]Assistant, bool) {
	raw, ok, err := s.client.store.Get(storageKeyAssistants)
	if err != nil || !ok {
		return nil, false
	}
	var list []Assistant
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, false
	}
	return list, true
}

// EmbedBootstrap fetches the public snapshot for an assistant by its
// embed link. Embed contexts call this unauthenticated before opening
// the chat channel.
func (s *AssistantsService) EmbedBootstrap(ctx context.Context, link string) (*Assistant, error) {
	if link == "" {
		return nil, NewInvalidRequestError("embed link must not be empty")
	}
	ctx, cancel := s.client.withRequestTimeout(ctx)
	defer cancel()

	status, body, err := s.client.roundTrip(ctx, http.MethodGet, "/api/embed/assistant/"+link, nil, "", "")
	if err != nil {
		return nil, err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, apiErrorFromResponse(status, body)
	}
	var out Assistant
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode embed bootstrap: %w", err)
	}
	return &out, nil
}
