package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-ai/civic-backend/internal/model"
	apperrors "github.com/civic-ai/civic-backend/pkg/errors"
)

func newTestConversations() (*Conversations, *MemoryBackend) {
	backend := NewMemoryBackend()
	c := NewConversations(backend)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return c, backend
}

func TestCreateChatDefaultsTitle(t *testing.T) {
	c, _ := newTestConversations()

	chat, err := c.CreateChat(context.Background(), "alice", "   ")
	require.NoError(t, err)

	assert.Equal(t, model.DefaultChatTitle, chat.Title)
	assert.Equal(t, "alice", chat.UserID)
	_, err = uuid.Parse(chat.ID)
	assert.NoError(t, err)
}

func TestListChatsNewestFirst(t *testing.T) {
	c, _ := newTestConversations()
	ctx := context.Background()

	first, err := c.CreateChat(ctx, "alice", "first")
	require.NoError(t, err)
	second, err := c.CreateChat(ctx, "alice", "second")
	require.NoError(t, err)
	_, err = c.CreateChat(ctx, "bob", "bob's")
	require.NoError(t, err)

	chats, err := c.ListChats(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, second.ID, chats[0].ID)

	_, err = c.SaveTurn(ctx, "alice", first.ID, "q", "a")
	require.NoError(t, err)

	chats, err = c.ListChats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, chats[0].ID)
}

func TestListChatsEmptyIsNotNil(t *testing.T) {
	c, _ := newTestConversations()

	chats, err := c.ListChats(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, chats)
	assert.Empty(t, chats)
}

func TestSaveTurnOrdersUserBeforeAI(t *testing.T) {
	c, _ := newTestConversations()
	ctx := context.Background()
	chat, err := c.CreateChat(ctx, "alice", "t")
	require.NoError(t, err)

	turn, err := c.SaveTurn(ctx, "alice", chat.ID, "How do I apply?", "# Apply online")
	require.NoError(t, err)
	assert.Equal(t, turn.User.CreatedAt, turn.AI.CreatedAt)

	msgs, err := c.Messages(ctx, "alice", chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.SenderUser, msgs[0].Sender)
	assert.Equal(t, "How do I apply?", msgs[0].Content)
	assert.Equal(t, model.SenderAI, msgs[1].Sender)
	assert.Equal(t, "# Apply online", msgs[1].Content)

	again, err := c.Messages(ctx, "alice", chat.ID)
	require.NoError(t, err)
	assert.Equal(t, msgs, again)
}

func TestOwnershipGuard(t *testing.T) {
	c, _ := newTestConversations()
	ctx := context.Background()
	chat, err := c.CreateChat(ctx, "alice", "private")
	require.NoError(t, err)

	_, err = c.Messages(ctx, "bob", chat.ID)
	assert.ErrorIs(t, err, apperrors.ErrChatNotFound)

	err = c.DeleteChat(ctx, "bob", chat.ID)
	assert.ErrorIs(t, err, apperrors.ErrChatNotFound)

	_, err = c.SaveTurn(ctx, "bob", chat.ID, "q", "a")
	assert.ErrorIs(t, err, apperrors.ErrChatNotFound)

	_, err = c.Messages(ctx, "bob", uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrChatNotFound)

	_, err = c.Messages(ctx, "alice", "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrChatNotFound)

	msgs, err := c.Messages(ctx, "alice", chat.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDeleteChatCascades(t *testing.T) {
	c, backend := newTestConversations()
	ctx := context.Background()
	chat, err := c.CreateChat(ctx, "alice", "t")
	require.NoError(t, err)
	_, err = c.SaveTurn(ctx, "alice", chat.ID, "q", "a")
	require.NoError(t, err)

	require.NoError(t, c.DeleteChat(ctx, "alice", chat.ID))

	leftover, err := backend.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	assert.Empty(t, leftover)

	_, err = c.Messages(ctx, "alice", chat.ID)
	assert.ErrorIs(t, err, apperrors.ErrChatNotFound)
}

func TestProfiles(t *testing.T) {
	c, _ := newTestConversations()
	ctx := context.Background()

	_, err := c.Profile(ctx, "u1")
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)

	user := &model.User{ID: "u1", Email: "a@example.com", Name: "A"}
	require.NoError(t, c.CreateProfile(ctx, user))
	assert.False(t, user.CreatedAt.IsZero())

	got, err := c.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	err = c.CreateProfile(ctx, &model.User{ID: "u2", Email: "A@example.com", Name: "B"})
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
}

type brokenBackend struct {
	*MemoryBackend
	failInsertMessages bool
	failTouch          bool
	failFind           bool
}

func (b *brokenBackend) InsertMessages(ctx context.Context, msgs []model.Message) error {
	if b.failInsertMessages {
		return errors.New("connection reset")
	}
	return b.MemoryBackend.InsertMessages(ctx, msgs)
}

func (b *brokenBackend) TouchChat(ctx context.Context, userID, chatID string, at time.Time) error {
	if b.failTouch {
		return errors.New("connection reset")
	}
	return b.MemoryBackend.TouchChat(ctx, userID, chatID, at)
}

func (b *brokenBackend) FindChat(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	if b.failFind {
		return nil, errors.New("timeout")
	}
	return b.MemoryBackend.FindChat(ctx, userID, chatID)
}

func TestSaveTurnPartialFailure(t *testing.T) {
	backend := &brokenBackend{MemoryBackend: NewMemoryBackend(), failTouch: true}
	c := NewConversations(backend)
	ctx := context.Background()
	chat, err := c.CreateChat(ctx, "alice", "t")
	require.NoError(t, err)

	turn, err := c.SaveTurn(ctx, "alice", chat.ID, "q", "a")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(err))
	require.NotNil(t, turn)

	msgs, err := c.Messages(ctx, "alice", chat.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestSaveTurnInsertFailure(t *testing.T) {
	backend := &brokenBackend{MemoryBackend: NewMemoryBackend(), failInsertMessages: true}
	c := NewConversations(backend)
	ctx := context.Background()
	chat, err := c.CreateChat(ctx, "alice", "t")
	require.NoError(t, err)

	turn, err := c.SaveTurn(ctx, "alice", chat.ID, "q", "a")
	assert.Nil(t, turn)
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(err))
}

func TestGuardReportsBackendFailureAsInternal(t *testing.T) {
	backend := &brokenBackend{MemoryBackend: NewMemoryBackend(), failFind: true}
	c := NewConversations(backend)

	_, err := c.Messages(context.Background(), "alice", uuid.NewString())
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(err))
}
