// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrVisionUnsupported is returned when a request carries images but the
// provider cannot accept them.
var ErrVisionUnsupported = errors.New("llm: provider does not accept images")

// ErrEmptyResponse is returned when the provider answered without content.
var ErrEmptyResponse = errors.New("llm: empty response")

// Image is an inline image attached to a completion request.
type Image struct {
	MIMEType string
	Data     []byte
}

// CompletionRequest represents a single-turn completion request.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	Images      []Image
	MaxTokens   int
	Temperature float64
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// SupportsVision reports whether requests may carry images.
	SupportsVision() bool
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Options configures a provider client.
type Options struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	BaseURL string
}

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, opts Options) (Client, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiClient(opts)
	case ProviderOpenAI:
		return NewOpenAIClient(opts)
	case ProviderAnthropic:
		return NewAnthropicClient(opts)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

const defaultMaxTokens = 2048
