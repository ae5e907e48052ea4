package assistant

import "time"

// User is the account profile returned by /auth/users/me.
type User struct {
	UserID    int       `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Assistant is the configuration snapshot for one bot. It is immutable
// for the duration of a chat session; the client holds a read-only copy.
type Assistant struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	WelcomeMessage  string `json:"message_welcome,omitempty"`
	FallbackMessage string `json:"message_fallback,omitempty"`
	AvatarImage     string `json:"assistant_image,omitempty"`
	BackgroundVideo string `json:"video_1,omitempty"`
	Language        string `json:"language,omitempty"`
	Link            string `json:"link,omitempty"`
	Status          bool   `json:"status,omitempty"`
}

// AssistantParams is the mutable subset accepted by create/update.
type AssistantParams struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	WelcomeMessage  string `json:"message_welcome,omitempty"`
	FallbackMessage string `json:"message_fallback,omitempty"`
	Language        string `json:"language,omitempty"`
	Status          *bool  `json:"status,omitempty"`
}

// KnowledgeDocument is one entry in an assistant's knowledge base.
type KnowledgeDocument struct {
	ID         int       `json:"id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	Summary    string    `json:"summary,omitempty"`
	Keywords   string    `json:"keywords,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	TokenCount int       `json:"token_count,omitempty"`
	UploadDate time.Time `json:"upload_date"`
}

// Conversation is one anonymous customer's thread with an assistant.
type Conversation struct {
	ConversationID int       `json:"conversation_id"`
	AssistantID    int       `json:"assistant_id"`
	CustomerID     string    `json:"customer_id"`
	CustomerName   string    `json:"customer_name,omitempty"`
	CustomerEmail  string    `json:"customer_email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationMessage is one stored message within a conversation.
type ConversationMessage struct {
	MessageID int       `json:"message_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
