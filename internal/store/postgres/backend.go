package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/civic-ai/civic-backend/internal/model"
	"github.com/civic-ai/civic-backend/internal/store"
)

const uniqueViolation = "23505"

// Backend is the Postgres store.Backend.
type Backend struct {
	*DB
}

// NewBackend wraps an open DB.
func NewBackend(db *DB) *Backend {
	return &Backend{DB: db}
}

func (b *Backend) InsertChat(ctx context.Context, chat *model.Chat) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO chats (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		chat.ID, chat.UserID, chat.Title, chat.CreatedAt, chat.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

func (b *Backend) FindChat(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	var chat model.Chat
	err := b.pool.QueryRow(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM chats
		WHERE id = $1 AND user_id = $2`,
		chatID, userID,
	).Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find chat: %w", err)
	}
	return &chat, nil
}

func (b *Backend) ListChats(ctx context.Context, userID string) ([]model.Chat, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM chats
		WHERE user_id = $1
		ORDER BY updated_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := make([]model.Chat, 0)
	for rows.Next() {
		var chat model.Chat
		if err := rows.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return chats, nil
}

func (b *Backend) DeleteChat(ctx context.Context, userID, chatID string) error {
	tag, err := b.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1 AND user_id = $2`, chatID, userID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (b *Backend) TouchChat(ctx context.Context, userID, chatID string, at time.Time) error {
	tag, err := b.pool.Exec(ctx, `UPDATE chats SET updated_at = $3 WHERE id = $1 AND user_id = $2`, chatID, userID, at)
	if err != nil {
		return fmt.Errorf("touch chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// InsertMessages sends one INSERT per message in a single batch; the seq
// column preserves their order.
func (b *Backend) InsertMessages(ctx context.Context, msgs []model.Message) error {
	batch := &pgx.Batch{}
	for _, msg := range msgs {
		batch.Queue(`
			INSERT INTO messages (id, chat_id, sender, content, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			msg.ID, msg.ChatID, string(msg.Sender), msg.Content, msg.CreatedAt,
		)
	}

	results := b.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range msgs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}
	return nil
}

func (b *Backend) ListMessages(ctx context.Context, chatID string) ([]model.Message, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT id, chat_id, sender, content, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC, seq ASC`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]model.Message, 0)
	for rows.Next() {
		var msg model.Message
		var sender string
		if err := rows.Scan(&msg.ID, &msg.ChatID, &sender, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Sender = model.Sender(sender)
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

func (b *Backend) InsertProfile(ctx context.Context, user *model.User) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO profiles (id, email, name, created_at)
		VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, user.Name, user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (b *Backend) FindProfile(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := b.pool.QueryRow(ctx, `
		SELECT id, email, name, created_at
		FROM profiles
		WHERE id = $1`,
		userID,
	).Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ store.Backend = (*Backend)(nil)
