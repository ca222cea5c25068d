package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/civic-ai/civic-backend/internal/model"
)

const (
	// StreamName is the name of the turn event stream.
	StreamName = "CIVIC"

	// SubjectPrefix is the prefix for all turn subjects.
	SubjectPrefix = "civic"
)

// TurnPublisher publishes persisted turns to JetStream.
type TurnPublisher struct {
	js jetstream.JetStream
}

// NewTurnPublisher creates a publisher on the client's JetStream context.
func NewTurnPublisher(client *Client) *TurnPublisher {
	return &TurnPublisher{js: client.JetStream()}
}

// EnsureStream creates the turn stream if it does not exist yet.
func (p *TurnPublisher) EnsureStream(ctx context.Context) error {
	_, err := p.js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Persisted query and image turns",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// TurnSubject returns the subject for a turn in a user's chat.
func TurnSubject(userID, chatID string) string {
	return fmt.Sprintf("%s.%s.%s.turn", SubjectPrefix, token(userID), token(chatID))
}

// PublishTurn publishes event. The event id doubles as the JetStream
// message id so redelivered publishes are deduplicated.
func (p *TurnPublisher) PublishTurn(ctx context.Context, event *model.TurnEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	_, err = p.js.Publish(ctx, TurnSubject(event.UserID, event.ChatID), data, jetstream.WithMsgID(event.ID))
	if err != nil {
		return fmt.Errorf("failed to publish turn: %w", err)
	}
	return nil
}

// token makes s safe for use as a single subject token.
func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}
