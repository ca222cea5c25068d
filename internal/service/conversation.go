// Package service provides the business logic behind the HTTP surface.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/civic-ai/civic-backend/internal/model"
	"github.com/civic-ai/civic-backend/internal/store"
	apperrors "github.com/civic-ai/civic-backend/pkg/errors"
	"github.com/civic-ai/civic-backend/pkg/logger"
	"github.com/civic-ai/civic-backend/pkg/metrics"
	"github.com/civic-ai/civic-backend/pkg/tracing"
)

var tracer = tracing.Tracer("github.com/civic-ai/civic-backend/internal/service")

// Chat origins used in metrics.
const (
	originExplicit = "explicit"
	originQuery    = "query"
	originImage    = "image"
)

// TurnPublisher receives persisted turns.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, event *model.TurnEvent) error
}

// ConversationService handles chat operations for the authenticated user.
type ConversationService struct {
	store     *store.Conversations
	publisher TurnPublisher
	logger    *logger.Logger
}

// NewConversationService creates a conversation service. publisher may be
// nil.
func NewConversationService(conversations *store.Conversations, publisher TurnPublisher, log *logger.Logger) *ConversationService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ConversationService{
		store:     conversations,
		publisher: publisher,
		logger:    log,
	}
}

// List returns the user's chats, most recently updated first.
func (s *ConversationService) List(ctx context.Context, userID string) ([]model.Chat, error) {
	return s.store.ListChats(ctx, userID)
}

// Create creates an empty chat.
func (s *ConversationService) Create(ctx context.Context, userID string, req *model.CreateChatRequest) (*model.Chat, error) {
	title := ""
	if req != nil {
		title = req.Title
	}
	chat, err := s.store.CreateChat(ctx, userID, title)
	if err != nil {
		return nil, err
	}
	metrics.ChatsTotal.WithLabelValues(originExplicit).Inc()

	s.logger.Info("chat created",
		zap.String("chat_id", chat.ID),
		zap.String("user_id", userID),
	)
	return chat, nil
}

// Messages returns a chat's messages in chronological order.
func (s *ConversationService) Messages(ctx context.Context, userID, chatID string) ([]model.Message, error) {
	return s.store.Messages(ctx, userID, chatID)
}

// Delete removes a chat and its messages.
func (s *ConversationService) Delete(ctx context.Context, userID, chatID string) error {
	if err := s.store.DeleteChat(ctx, userID, chatID); err != nil {
		return err
	}
	s.logger.Info("chat deleted",
		zap.String("chat_id", chatID),
		zap.String("user_id", userID),
	)
	return nil
}

// ParseChatID normalizes an optional chat id from a request body. A nil or
// blank id means "start a new chat".
func ParseChatID(chatID *string) (*string, error) {
	if chatID == nil {
		return nil, nil
	}
	id := strings.TrimSpace(*chatID)
	if id == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrInvalidChatID
	}
	return &id, nil
}

// ensureChat returns chatID when set and otherwise creates a chat titled
// title. A failed creation is logged and yields nil: the turn is answered
// but not stored.
func (s *ConversationService) ensureChat(ctx context.Context, userID string, chatID *string, title, origin string) *string {
	if chatID != nil {
		return chatID
	}

	ctx, span := tracer.Start(ctx, "conversation.ensure_chat")
	defer span.End()

	chat, err := s.store.CreateChat(ctx, userID, title)
	if err != nil {
		span.RecordError(err)
		metrics.RecordPersistenceFailure(metrics.StepCreateChat)
		s.logger.Error("failed to create chat, continuing without persistence",
			zap.String("user_id", userID),
			zap.String("origin", origin),
			zap.Error(err),
		)
		return nil
	}
	metrics.ChatsTotal.WithLabelValues(origin).Inc()
	span.SetAttributes(attribute.String("chat.id", chat.ID))
	return &chat.ID
}
