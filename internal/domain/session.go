package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultSessionTitle is the title of a session with no messages yet
	DefaultSessionTitle = "New Discussion"

	// MaxTitleLength caps the title derived from the first user message
	MaxTitleLength = 30
)

// ChatSession represents one persisted conversation thread
type ChatSession struct {
	ID        string    `json:"id" validate:"required"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages" validate:"dive"`
	CreatedAt int64     `json:"createdAt"`
}

// NewChatSession creates an empty session with the default title
func NewChatSession(now time.Time) ChatSession {
	return ChatSession{
		ID:        uuid.NewString(),
		Title:     DefaultSessionTitle,
		Messages:  []Message{},
		CreatedAt: now.UnixMilli(),
	}
}

// Clone returns a deep copy safe to hand out of the store
func (s ChatSession) Clone() ChatSession {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}

// LastMessage returns the newest message, if any
func (s ChatSession) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// TitleFromContent derives a session title from the first user message.
// Truncation counts characters, not bytes.
func TitleFromContent(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxTitleLength {
		return content
	}
	return string(runes[:MaxTitleLength])
}
