package assistant

import (
	"context"
	"fmt"
	"net/http"
)

// ConversationsService reads conversation history for the console.
type ConversationsService struct {
	client *Client
}

// List fetches the conversations customers have had with an assistant.
func (s *ConversationsService) List(ctx context.Context, assistantID int) ([]Conversation, error) {
	var out []Conversation
	path := fmt.Sprintf("/user/%d/conversations", assistantID)
	if err := s.client.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Messages fetches the stored messages of one conversation.
func (s *ConversationsService) Messages(ctx context.Context, conversationID int) ([]ConversationMessage, error) {
	var out []ConversationMessage
	path := fmt.Sprintf("/conversation/%d/messages", conversationID)
	if err := s.client.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
