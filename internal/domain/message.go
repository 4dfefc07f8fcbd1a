package domain

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one entry of a chat session. Content of the trailing assistant
// message changes while a response streams in and is fixed afterwards.
type Message struct {
	ID        string      `json:"id" validate:"required"`
	Role      MessageRole `json:"role" validate:"required,oneof=user assistant"`
	Content   string      `json:"content"`
	Timestamp int64       `json:"timestamp"`
}

// NewMessage builds a message stamped with the current time. IDs are ULIDs so
// they sort in creation order.
func NewMessage(role MessageRole, content string) Message {
	return NewMessageAt(role, content, time.Now())
}

// NewMessageAt is NewMessage with an explicit clock reading.
func NewMessageAt(role MessageRole, content string, at time.Time) Message {
	return Message{
		ID:        ulid.Make().String(),
		Role:      role,
		Content:   content,
		Timestamp: at.UnixMilli(),
	}
}

// IsPending reports whether the message is an assistant slot still waiting
// for its first streamed text.
func (m Message) IsPending() bool {
	return m.Role == RoleAssistant && m.Content == ""
}

// Time returns the message timestamp as a time.Time
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}
