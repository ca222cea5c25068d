// Package explain turns government and legal text into plain-language
// explanations. Generation never fails from the caller's point of view: any
// backend failure is replaced by a deterministic fallback explanation.
package explain

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/civic-ai/civic-backend/internal/llm"
	"github.com/civic-ai/civic-backend/pkg/logger"
	"github.com/civic-ai/civic-backend/pkg/metrics"
)

// Placeholders used for the extracted-text field when the vision backend
// cannot supply one.
const (
	ExtractionErrorText       = "[Text extraction error: the AI response could not be parsed]"
	ExtractionUnavailableText = "[Text extraction unavailable: the AI service could not be reached]"
)

// Backend produces an explanation for text.
type Backend interface {
	Name() string
	Explain(ctx context.Context, text, language string) (string, error)
}

// VisionBackend additionally reads an image and returns the model's raw
// answer to the combined extract-and-explain prompt.
type VisionBackend interface {
	Backend
	ExplainImage(ctx context.Context, image []byte, mimeType, language string) (string, error)
}

// ImageResult is the outcome of the combined extract-and-explain call.
type ImageResult struct {
	ExtractedText string
	Explanation   string
}

// Generator wraps a Backend and substitutes the fallback on failure.
type Generator struct {
	backend  Backend
	fallback Fallback
	logger   *logger.Logger
}

// NewGenerator creates a generator. A nil backend means every explanation is
// a fallback.
func NewGenerator(backend Backend, log *logger.Logger) *Generator {
	if backend == nil {
		backend = Fallback{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{
		backend: backend,
		logger:  log,
	}
}

// BackendName returns the name of the configured backend.
func (g *Generator) BackendName() string {
	return g.backend.Name()
}

// Generate returns an explanation for text in language.
func (g *Generator) Generate(ctx context.Context, text, language string) string {
	start := time.Now()

	out, err := g.backend.Explain(ctx, text, language)
	if err == nil && strings.TrimSpace(out) != "" {
		outcome := metrics.OutcomeGenerated
		if _, ok := g.backend.(Fallback); ok {
			outcome = metrics.OutcomeFallback
		}
		metrics.RecordExplanation(g.backend.Name(), outcome, time.Since(start).Seconds())
		return out
	}

	g.logger.Warn("explanation backend failed, using fallback",
		zap.String("backend", g.backend.Name()),
		zap.Error(err),
	)
	metrics.RecordExplanation(g.backend.Name(), metrics.OutcomeFallback, time.Since(start).Seconds())
	out, _ = g.fallback.Explain(ctx, text, language)
	return out
}

// SupportsImages reports whether GenerateFromImage can reach a model.
func (g *Generator) SupportsImages() bool {
	_, ok := g.backend.(VisionBackend)
	return ok
}

// GenerateFromImage extracts text from an image and explains it in a single
// model call. It never fails; see ExtractionErrorText and
// ExtractionUnavailableText for the degraded results.
func (g *Generator) GenerateFromImage(ctx context.Context, image []byte, mimeType, language string) ImageResult {
	start := time.Now()

	vision, ok := g.backend.(VisionBackend)
	if !ok {
		metrics.RecordExplanation(g.backend.Name(), metrics.OutcomeFallback, time.Since(start).Seconds())
		return g.unavailable(language)
	}

	raw, err := vision.ExplainImage(ctx, image, mimeType, language)
	if err != nil || strings.TrimSpace(raw) == "" {
		g.logger.Warn("vision backend failed, using fallback",
			zap.String("backend", vision.Name()),
			zap.Error(err),
		)
		metrics.RecordExplanation(vision.Name(), metrics.OutcomeFallback, time.Since(start).Seconds())
		return g.unavailable(language)
	}

	result, ok := ParseImageResult(raw)
	if !ok {
		g.logger.Warn("vision response was not valid JSON, returning raw output",
			zap.String("backend", vision.Name()),
		)
		metrics.RecordExplanation(vision.Name(), metrics.OutcomeUnparsed, time.Since(start).Seconds())
		return result
	}

	metrics.RecordExplanation(vision.Name(), metrics.OutcomeGenerated, time.Since(start).Seconds())
	return result
}

func (g *Generator) unavailable(language string) ImageResult {
	explanation, _ := g.fallback.Explain(context.Background(), ExtractionUnavailableText, language)
	return ImageResult{
		ExtractedText: ExtractionUnavailableText,
		Explanation:   explanation,
	}
}

// ParseImageResult decodes the model's JSON answer. Markdown code fences and
// text around the object are tolerated. When decoding fails the raw output
// becomes the explanation, the extracted text is ExtractionErrorText and ok
// is false.
func ParseImageResult(raw string) (ImageResult, bool) {
	var parsed struct {
		ExtractedText string `json:"extracted_text"`
		Explanation   string `json:"explanation"`
	}

	body := strings.TrimSpace(raw)
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	if err := json.Unmarshal([]byte(body), &parsed); err != nil || strings.TrimSpace(parsed.Explanation) == "" {
		return ImageResult{
			ExtractedText: ExtractionErrorText,
			Explanation:   strings.TrimSpace(raw),
		}, false
	}

	return ImageResult{
		ExtractedText: strings.TrimSpace(parsed.ExtractedText),
		Explanation:   strings.TrimSpace(parsed.Explanation),
	}, true
}

// LLMBackend explains text through an llm.Client.
type LLMBackend struct {
	client llm.Client
}

// NewLLMBackend returns a Backend for client. When the client accepts images
// the result also implements VisionBackend.
func NewLLMBackend(client llm.Client) Backend {
	b := &LLMBackend{client: client}
	if client.SupportsVision() {
		return &llmVisionBackend{LLMBackend: b}
	}
	return b
}

// Name returns the provider name.
func (b *LLMBackend) Name() string {
	return b.client.Name()
}

// Explain asks the model for a plain-language explanation.
func (b *LLMBackend) Explain(ctx context.Context, text, language string) (string, error) {
	resp, err := b.client.Complete(ctx, &llm.CompletionRequest{
		System:      systemPrompt,
		Prompt:      textPrompt(text, language),
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

type llmVisionBackend struct {
	*LLMBackend
}

func (b *llmVisionBackend) ExplainImage(ctx context.Context, image []byte, mimeType, language string) (string, error) {
	resp, err := b.client.Complete(ctx, &llm.CompletionRequest{
		System:      systemPrompt,
		Prompt:      imagePrompt(language),
		Images:      []llm.Image{{MIMEType: mimeType, Data: image}},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
