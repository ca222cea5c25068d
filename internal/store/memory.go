package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/civic-ai/civic-backend/internal/model"
)

// MemoryBackend keeps everything in process memory. It is used when no
// database is configured and in tests.
type MemoryBackend struct {
	mu       sync.RWMutex
	chats    map[string]*model.Chat
	messages map[string][]model.Message
	profiles map[string]*model.User
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		chats:    make(map[string]*model.Chat),
		messages: make(map[string][]model.Message),
		profiles: make(map[string]*model.User),
	}
}

func (m *MemoryBackend) InsertChat(_ context.Context, chat *model.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.chats[chat.ID]; exists {
		return ErrDuplicate
	}
	c := *chat
	m.chats[chat.ID] = &c
	return nil
}

func (m *MemoryBackend) FindChat(_ context.Context, userID, chatID string) (*model.Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chat, exists := m.chats[chatID]
	if !exists || chat.UserID != userID {
		return nil, ErrNotFound
	}
	c := *chat
	return &c, nil
}

func (m *MemoryBackend) ListChats(_ context.Context, userID string) ([]model.Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chats := make([]model.Chat, 0)
	for _, chat := range m.chats {
		if chat.UserID == userID {
			chats = append(chats, *chat)
		}
	}
	sort.Slice(chats, func(i, j int) bool {
		if chats[i].UpdatedAt.Equal(chats[j].UpdatedAt) {
			return chats[i].ID > chats[j].ID
		}
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

func (m *MemoryBackend) DeleteChat(_ context.Context, userID, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	chat, exists := m.chats[chatID]
	if !exists || chat.UserID != userID {
		return ErrNotFound
	}
	delete(m.chats, chatID)
	delete(m.messages, chatID)
	return nil
}

func (m *MemoryBackend) TouchChat(_ context.Context, userID, chatID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	chat, exists := m.chats[chatID]
	if !exists || chat.UserID != userID {
		return ErrNotFound
	}
	chat.UpdatedAt = at
	return nil
}

func (m *MemoryBackend) InsertMessages(_ context.Context, msgs []model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, msg := range msgs {
		if _, exists := m.chats[msg.ChatID]; !exists {
			return ErrNotFound
		}
	}
	for _, msg := range msgs {
		m.messages[msg.ChatID] = append(m.messages[msg.ChatID], msg)
	}
	return nil
}

func (m *MemoryBackend) ListMessages(_ context.Context, chatID string) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.messages[chatID]
	msgs := make([]model.Message, len(stored))
	copy(msgs, stored)
	// Stable keeps insertion order for equal timestamps.
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

func (m *MemoryBackend) InsertProfile(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.profiles[user.ID]; exists {
		return ErrDuplicate
	}
	for _, p := range m.profiles {
		if strings.EqualFold(p.Email, user.Email) {
			return ErrDuplicate
		}
	}
	u := *user
	m.profiles[user.ID] = &u
	return nil
}

func (m *MemoryBackend) FindProfile(_ context.Context, userID string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, exists := m.profiles[userID]
	if !exists {
		return nil, ErrNotFound
	}
	u := *p
	return &u, nil
}

func (m *MemoryBackend) Ping(context.Context) error {
	return nil
}

func (m *MemoryBackend) Close() {}
