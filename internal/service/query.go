package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/civic-ai/civic-backend/internal/explain"
	"github.com/civic-ai/civic-backend/internal/model"
	apperrors "github.com/civic-ai/civic-backend/pkg/errors"
)

// titleWords is the number of question words used as a chat title.
const titleWords = 5

// QueryService answers plain-text questions.
type QueryService struct {
	conversations *ConversationService
	generator     *explain.Generator
	now           func() time.Time
}

// NewQueryService creates a query service.
func NewQueryService(conversations *ConversationService, generator *explain.Generator) *QueryService {
	return &QueryService{
		conversations: conversations,
		generator:     generator,
		now:           time.Now,
	}
}

// Ask runs one query turn: ensure a chat, explain, persist, respond. Only
// input validation can fail it.
func (s *QueryService) Ask(ctx context.Context, userID string, req *model.QueryRequest) (*model.QueryResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, apperrors.ErrEmptyQuestion
	}
	chatID, err := ParseChatID(req.ChatID)
	if err != nil {
		return nil, err
	}
	language := normalizeLanguage(req.Language)

	ctx, span := tracer.Start(ctx, "query.ask")
	defer span.End()
	span.SetAttributes(
		attribute.String("language", language),
		attribute.Bool("chat.supplied", chatID != nil),
	)

	chatID = s.conversations.ensureChat(ctx, userID, chatID, ChatTitle(question), originQuery)

	answer := s.generator.Generate(ctx, req.Question, language)

	s.conversations.recordTurn(ctx, userID, chatID, KindQuery, req.Question, answer)

	return &model.QueryResponse{
		Answer:    answer,
		Language:  language,
		UserID:    userID,
		ChatID:    chatID,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Status:    model.StatusSuccess,
	}, nil
}

// ChatTitle derives a chat title from the first five words of question.
func ChatTitle(question string) string {
	words := strings.Fields(question)
	if len(words) == 0 {
		return model.DefaultChatTitle
	}
	if len(words) <= titleWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:titleWords], " ") + "..."
}

func normalizeLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return model.DefaultLanguage
	}
	return language
}
