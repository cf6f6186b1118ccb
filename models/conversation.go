package models

import "time"

// ConversationTurn is one question/answer exchange of a stored conversation.
// Storage, pagination, and user scoping belong to the persistence
// collaborator; the core only reads an ordered slice of turns.
type ConversationTurn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// Role tags a chat message with its speaker.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a tagged chat message sent to a generation backend.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
