package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civic-ai/civic-backend/internal/model"
	"github.com/civic-ai/civic-backend/pkg/metrics"
)

// Turn kinds carried by published events.
const (
	KindQuery = "query"
	KindImage = "image"
)

// recordTurn stores a user message and its ai reply in chatID. Nothing is
// stored without a chat. Failures are logged and swallowed.
func (s *ConversationService) recordTurn(ctx context.Context, userID string, chatID *string, kind, userText, aiText string) {
	if chatID == nil {
		return
	}

	ctx, span := tracer.Start(ctx, "conversation.record_turn")
	defer span.End()

	turn, err := s.store.SaveTurn(ctx, userID, *chatID, userText, aiText)
	if err != nil {
		span.RecordError(err)
		metrics.RecordPersistenceFailure(metrics.StepSaveTurn)
		s.logger.Error("failed to save turn",
			zap.String("user_id", userID),
			zap.String("chat_id", *chatID),
			zap.String("kind", kind),
			zap.Error(err),
		)
	}
	if turn == nil {
		return
	}

	s.publish(ctx, &model.TurnEvent{
		ID:          uuid.Must(uuid.NewV7()).String(),
		UserID:      userID,
		ChatID:      *chatID,
		Kind:        kind,
		UserMessage: turn.User.ID,
		AIMessage:   turn.AI.ID,
		CreatedAt:   time.Now().UTC(),
	})
}

func (s *ConversationService) publish(ctx context.Context, event *model.TurnEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTurn(ctx, event); err != nil {
		metrics.RecordPersistenceFailure(metrics.StepPublish)
		s.logger.Warn("failed to publish turn event",
			zap.String("chat_id", event.ChatID),
			zap.Error(err),
		)
	}
}
