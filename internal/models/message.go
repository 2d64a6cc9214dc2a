package models

import "time"

// Message roles. The wire protocol only knows these two.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message in a conversation log. The log is
// append-only during a session and ordered chronologically.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
