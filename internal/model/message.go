package model

import (
	"time"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAI
}

// Message is a single entry in a chat. Messages are written in pairs, one
// user message followed by one ai message.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TurnEvent is published after a turn has been persisted.
type TurnEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ChatID      string    `json:"chat_id"`
	Kind        string    `json:"kind"`
	UserMessage string    `json:"user_message_id"`
	AIMessage   string    `json:"ai_message_id"`
	CreatedAt   time.Time `json:"created_at"`
}
