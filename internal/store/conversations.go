package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/civic-ai/civic-backend/internal/model"
	apperrors "github.com/civic-ai/civic-backend/pkg/errors"
	"github.com/civic-ai/civic-backend/pkg/metrics"
)

// Conversations is the conversation store adapter used by the services.
type Conversations struct {
	backend Backend
	now     func() time.Time
}

// NewConversations wraps a backend.
func NewConversations(backend Backend) *Conversations {
	return &Conversations{
		backend: backend,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Turn is the pair of messages written by SaveTurn.
type Turn struct {
	User model.Message
	AI   model.Message
}

// owned is the ownership guard shared by every chat-scoped operation. Both a
// missing chat and a chat owned by someone else yield ErrChatNotFound.
func (c *Conversations) owned(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	if userID == "" {
		return nil, apperrors.ErrChatNotFound
	}
	if _, err := uuid.Parse(chatID); err != nil {
		return nil, apperrors.ErrChatNotFound
	}
	chat, err := c.backend.FindChat(ctx, userID, chatID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.ErrChatNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load chat", err)
	}
	if chat.UserID != userID {
		return nil, apperrors.ErrChatNotFound
	}
	return chat, nil
}

// ListChats returns the user's chats, most recently updated first.
func (c *Conversations) ListChats(ctx context.Context, userID string) ([]model.Chat, error) {
	chats, err := c.backend.ListChats(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list chats", err)
	}
	if chats == nil {
		chats = []model.Chat{}
	}
	return chats, nil
}

// CreateChat creates a chat owned by userID. A blank title becomes
// model.DefaultChatTitle.
func (c *Conversations) CreateChat(ctx context.Context, userID, title string) (*model.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = model.DefaultChatTitle
	}
	now := c.now()
	chat := &model.Chat{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.backend.InsertChat(ctx, chat); err != nil {
		return nil, apperrors.Internal("failed to create chat", err)
	}
	return chat, nil
}

// Messages returns the chat's messages in chronological order.
func (c *Conversations) Messages(ctx context.Context, userID, chatID string) ([]model.Message, error) {
	if _, err := c.owned(ctx, userID, chatID); err != nil {
		return nil, err
	}
	msgs, err := c.backend.ListMessages(ctx, chatID)
	if err != nil {
		return nil, apperrors.Internal("failed to list messages", err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

// DeleteChat deletes the chat and, through the backend, its messages.
func (c *Conversations) DeleteChat(ctx context.Context, userID, chatID string) error {
	if _, err := c.owned(ctx, userID, chatID); err != nil {
		return err
	}
	err := c.backend.DeleteChat(ctx, userID, chatID)
	if errors.Is(err, ErrNotFound) {
		return apperrors.ErrChatNotFound
	}
	if err != nil {
		return apperrors.Internal("failed to delete chat", err)
	}
	return nil
}

// SaveTurn writes a user message and its ai reply, then bumps the chat's
// updated timestamp. The steps are not atomic: the messages may be stored
// even when the timestamp update fails.
func (c *Conversations) SaveTurn(ctx context.Context, userID, chatID, userContent, aiContent string) (*Turn, error) {
	if _, err := c.owned(ctx, userID, chatID); err != nil {
		return nil, err
	}

	now := c.now()
	turn := &Turn{
		User: model.Message{
			ID:        uuid.Must(uuid.NewV7()).String(),
			ChatID:    chatID,
			Sender:    model.SenderUser,
			Content:   userContent,
			CreatedAt: now,
		},
		AI: model.Message{
			ID:        uuid.Must(uuid.NewV7()).String(),
			ChatID:    chatID,
			Sender:    model.SenderAI,
			Content:   aiContent,
			CreatedAt: now,
		},
	}

	if err := c.backend.InsertMessages(ctx, []model.Message{turn.User, turn.AI}); err != nil {
		return nil, apperrors.Internal("failed to save messages", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(model.SenderUser)).Inc()
	metrics.MessagesTotal.WithLabelValues(string(model.SenderAI)).Inc()

	if err := c.backend.TouchChat(ctx, userID, chatID, now); err != nil {
		return turn, apperrors.Internal("failed to update chat timestamp", err)
	}
	return turn, nil
}

// CreateProfile stores the mirrored profile of a new account.
func (c *Conversations) CreateProfile(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = c.now()
	}
	err := c.backend.InsertProfile(ctx, user)
	if errors.Is(err, ErrDuplicate) {
		return apperrors.ErrEmailTaken
	}
	if err != nil {
		return apperrors.Internal("failed to create profile", err)
	}
	return nil
}

// Profile returns the mirrored profile for userID.
func (c *Conversations) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := c.backend.FindProfile(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.ErrProfileNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load profile", err)
	}
	return user, nil
}

// Ping checks the backend.
func (c *Conversations) Ping(ctx context.Context) error {
	if err := c.backend.Ping(ctx); err != nil {
		return fmt.Errorf("store ping: %w", err)
	}
	return nil
}
