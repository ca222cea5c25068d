package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiCompleteSendsInlineImage(t *testing.T) {
	var got geminiGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "hello "}, {"text": "world"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 3}
		}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(Options{APIKey: "secret", Model: "models/gemini-test", BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), &CompletionRequest{
		System: "be brief",
		Prompt: "describe",
		Images: []Image{{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello world", resp.Content)
	assert.Equal(t, 12, resp.TokensIn)
	assert.Equal(t, 3, resp.TokensOut)
	assert.Equal(t, "STOP", resp.StopReason)

	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Equal(t, "describe", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.Contents[0].Parts[1].InlineData)
	assert.Equal(t, "image/png", got.Contents[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, "AQID", got.Contents[0].Parts[1].InlineData.Data)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be brief", got.SystemInstruction.Parts[0].Text)
}

func TestGeminiCompleteReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"message": "API key not valid"}}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(Options{APIKey: "bad", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), &CompletionRequest{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGeminiTransportErrorOmitsKey(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client, err := NewGeminiClient(Options{APIKey: "SECRET-KEY-123", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), &CompletionRequest{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini request")
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestGeminiCompleteEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(Options{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), &CompletionRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewClientRejectsMissingKeyAndUnknownProvider(t *testing.T) {
	_, err := NewClient(ProviderOpenAI, Options{})
	assert.Error(t, err)

	_, err = NewClient(ProviderAnthropic, Options{})
	assert.Error(t, err)

	_, err = NewClient(Provider("cohere"), Options{APIKey: "k"})
	assert.Error(t, err)
}

func TestAnthropicRejectsImages(t *testing.T) {
	client, err := NewAnthropicClient(Options{APIKey: "k"})
	require.NoError(t, err)
	assert.False(t, client.SupportsVision())

	_, err = client.Complete(context.Background(), &CompletionRequest{
		Prompt: "x",
		Images: []Image{{MIMEType: "image/png", Data: []byte{1}}},
	})
	assert.ErrorIs(t, err, ErrVisionUnsupported)
}

func TestOpenAIUserMessageWithImage(t *testing.T) {
	msg := userMessage(&CompletionRequest{
		Prompt: "read this",
		Images: []Image{{MIMEType: "image/jpeg", Data: []byte{1, 2, 3}}},
	})

	assert.Empty(t, msg.Content)
	require.Len(t, msg.MultiContent, 2)
	assert.Equal(t, "read this", msg.MultiContent[0].Text)
	require.NotNil(t, msg.MultiContent[1].ImageURL)
	assert.Equal(t, "data:image/jpeg;base64,AQID", msg.MultiContent[1].ImageURL.URL)
}
