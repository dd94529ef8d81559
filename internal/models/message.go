package models

import "time"

// Message captures a single turn within a chat. Immutable once stored.

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Message struct {
	ID        int64             `json:"id"`
	ChatID    string            `json:"chat_id"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	Metadata  *ResponseMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
