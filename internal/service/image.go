package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/civic-ai/civic-backend/internal/config"
	"github.com/civic-ai/civic-backend/internal/explain"
	"github.com/civic-ai/civic-backend/internal/model"
	"github.com/civic-ai/civic-backend/internal/ocr"
	apperrors "github.com/civic-ai/civic-backend/pkg/errors"
	"github.com/civic-ai/civic-backend/pkg/logger"
)

// uploadExcerptLimit bounds the extracted text quoted in the stored user
// message.
const uploadExcerptLimit = 500

// ImageService extracts and explains text from uploaded document images.
type ImageService struct {
	conversations *ConversationService
	generator     *explain.Generator
	extractor     ocr.Extractor
	mode          string
	maxBytes      int64
	logger        *logger.Logger
}

// ImageOptions configures an ImageService.
type ImageOptions struct {
	// Mode is config.ImageModeOCR or config.ImageModeVision.
	Mode string
	// Extractor is required in OCR mode.
	Extractor ocr.Extractor
	// MaxBytes limits the upload size; zero means unlimited.
	MaxBytes int64
}

// NewImageService creates an image service.
func NewImageService(conversations *ConversationService, generator *explain.Generator, opts ImageOptions, log *logger.Logger) *ImageService {
	if opts.Mode == "" {
		opts.Mode = config.ImageModeOCR
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &ImageService{
		conversations: conversations,
		generator:     generator,
		extractor:     opts.Extractor,
		mode:          opts.Mode,
		maxBytes:      opts.MaxBytes,
		logger:        log,
	}
}

// Analyze runs one image turn.
func (s *ImageService) Analyze(ctx context.Context, userID string, upload *model.ImageUpload, language string, chatID *string) (*model.OCRResponse, error) {
	if !ocr.IsImageContentType(upload.ContentType) {
		return nil, apperrors.ErrNotAnImage
	}
	if len(upload.Data) == 0 {
		return nil, apperrors.ErrEmptyUpload
	}
	if s.maxBytes > 0 && int64(len(upload.Data)) > s.maxBytes {
		return nil, apperrors.ErrUploadTooLarge
	}
	chatID, err := ParseChatID(chatID)
	if err != nil {
		return nil, err
	}
	language = normalizeLanguage(language)

	ctx, span := tracer.Start(ctx, "image.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("image.mode", s.mode),
		attribute.Int("image.bytes", len(upload.Data)),
		attribute.String("language", language),
	)

	chatID = s.conversations.ensureChat(ctx, userID, chatID, model.ImageChatTitle, originImage)

	png, err := ocr.Prepare(upload.Data)
	if err != nil {
		s.logger.Info("rejected undecodable upload",
			zap.String("filename", upload.Filename),
			zap.String("content_type", upload.ContentType),
			zap.Error(err),
		)
		return nil, apperrors.ErrImageUnprocessable
	}

	var extracted, explanation string
	if s.mode == config.ImageModeVision {
		result := s.generator.GenerateFromImage(ctx, png, "image/png", language)
		extracted, explanation = result.ExtractedText, result.Explanation
	} else {
		extracted, err = s.extract(ctx, png)
		if err != nil {
			return nil, err
		}
		explanation = s.generator.Generate(ctx, extracted, language)
	}

	s.conversations.recordTurn(ctx, userID, chatID, KindImage, uploadSummary(upload.Filename, extracted), explanation)

	return &model.OCRResponse{
		ExtractedText: extracted,
		AIExplanation: explanation,
		Language:      language,
		Status:        model.StatusSuccess,
		ChatID:        chatID,
	}, nil
}

func (s *ImageService) extract(ctx context.Context, png []byte) (string, error) {
	if s.extractor == nil {
		return "", apperrors.ErrExtractionFailed(errors.New("no OCR engine configured"))
	}
	text, err := s.extractor.Extract(ctx, png)
	if err != nil {
		s.logger.Error("text extraction failed", zap.Error(err))
		return "", apperrors.ErrExtractionFailed(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.ErrNoReadableText
	}
	return text, nil
}

// uploadSummary is the user message stored for an image turn.
func uploadSummary(filename, extracted string) string {
	if filename == "" {
		filename = "image"
	}
	return fmt.Sprintf("Uploaded image: %s\n\nExtracted text:\n%s", filename, explain.Truncate(extracted, uploadExcerptLimit))
}
