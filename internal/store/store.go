// Package store persists chats, messages and user profiles.
//
// Every chat-scoped backend call carries the caller's user id and filters on
// it; Conversations adds a single ownership guard in front of message access
// so that no operation can reach another user's chat.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/civic-ai/civic-backend/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist for the given owner.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("store: duplicate key")
)

// Backend is the table-scoped contract implemented by the concrete stores.
type Backend interface {
	// InsertChat stores a new chat.
	InsertChat(ctx context.Context, chat *model.Chat) error

	// FindChat returns the chat only when it belongs to userID.
	FindChat(ctx context.Context, userID, chatID string) (*model.Chat, error)

	// ListChats returns the user's chats, most recently updated first.
	ListChats(ctx context.Context, userID string) ([]model.Chat, error)

	// DeleteChat removes the chat and its messages.
	DeleteChat(ctx context.Context, userID, chatID string) error

	// TouchChat sets the chat's updated timestamp.
	TouchChat(ctx context.Context, userID, chatID string, at time.Time) error

	// InsertMessages stores messages in the given order.
	InsertMessages(ctx context.Context, msgs []model.Message) error

	// ListMessages returns a chat's messages in chronological order.
	ListMessages(ctx context.Context, chatID string) ([]model.Message, error)

	// InsertProfile stores a user profile. ErrDuplicate on a taken id or email.
	InsertProfile(ctx context.Context, user *model.User) error

	// FindProfile returns the profile for userID.
	FindProfile(ctx context.Context, userID string) (*model.User, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close()
}
