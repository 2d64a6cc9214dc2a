package models

import "time"

// ChatSummary describes one prior conversation of the active user, as listed
// by the remote service. Name and avatar are denormalized so an existing chat
// can be reopened without re-fetching the character.
type ChatSummary struct {
	CharacterID     string    `json:"characterId"`
	CharacterName   string    `json:"characterName"`
	AvatarURL       string    `json:"avatarUrl,omitempty"`
	ConversationID  string    `json:"conversationId"`
	LastMessage     string    `json:"lastMessage,omitempty"`
	LastMessageTime time.Time `json:"lastMessageTime,omitempty"`
}

// ChatHandle is the remote service's answer to a new-chat request: the bound
// conversation plus enough information to decide whether history must be
// loaded.
type ChatHandle struct {
	ConversationID    string `json:"conversationId"`
	IsNewConversation bool   `json:"isNewConversation"`
	MessageCount      int    `json:"messageCount"`
}
