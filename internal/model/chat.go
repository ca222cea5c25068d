// Package model defines data structures for the civic assistant.
package model

import (
	"time"
)

const (
	// DefaultChatTitle is used for chats created without a title.
	DefaultChatTitle = "New Conversation"
	// ImageChatTitle is used for chats lazily created by an image upload.
	ImageChatTitle = "Image Analysis"
)

// Chat represents a conversation owned by a single user.
type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateChatRequest is the request to create a new chat.
type CreateChatRequest struct {
	Title string `json:"title,omitempty"`
}

// DeleteChatResponse is returned after a chat is deleted.
type DeleteChatResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}
