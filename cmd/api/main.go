// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/civic-ai/civic-backend/internal/config"
	"github.com/civic-ai/civic-backend/internal/explain"
	"github.com/civic-ai/civic-backend/internal/handler"
	"github.com/civic-ai/civic-backend/internal/identity"
	"github.com/civic-ai/civic-backend/internal/llm"
	natsclient "github.com/civic-ai/civic-backend/internal/nats"
	"github.com/civic-ai/civic-backend/internal/ocr"
	"github.com/civic-ai/civic-backend/internal/service"
	"github.com/civic-ai/civic-backend/internal/store"
	"github.com/civic-ai/civic-backend/internal/store/postgres"
	"github.com/civic-ai/civic-backend/pkg/logger"
	"github.com/civic-ai/civic-backend/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "civic-backend", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Conversation store
	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer backend.Close()
	conversations := store.NewConversations(backend)

	// Identity provider
	provider, err := identity.NewClient(identity.Config{
		BaseURL:        cfg.SupabaseURL,
		AnonKey:        cfg.SupabaseAnonKey,
		ServiceRoleKey: cfg.SupabaseServiceRoleKey,
		JWTSecret:      cfg.SupabaseJWTSecret,
		Timeout:        cfg.IdentityTimeout,
	})
	if err != nil {
		log.Fatal("failed to create identity client", zap.Error(err))
	}
	if !provider.HasAdmin() {
		log.Warn("SUPABASE_SERVICE_ROLE_KEY not set, signup will not auto-confirm email")
	}

	// Explanation generator
	var explainBackend explain.Backend
	llmClient, err := newLLMClient(cfg)
	switch {
	case err != nil:
		log.Warn("failed to create LLM client, using fallback explanations", zap.Error(err))
	case llmClient == nil:
		log.Warn("no LLM credentials configured, using fallback explanations")
	default:
		explainBackend = explain.NewLLMBackend(llmClient)
		log.Info("LLM backend configured",
			zap.String("provider", llmClient.Name()),
			zap.Bool("vision", llmClient.SupportsVision()),
		)
	}
	generator := explain.NewGenerator(explainBackend, log)
	log.Info("explanation generator ready",
		zap.String("backend", generator.BackendName()),
		zap.Bool("images", generator.SupportsImages()),
	)

	// Turn events
	var publisher service.TurnPublisher
	var natsConn handler.Connectivity
	if cfg.NATSURL != "" {
		natsClient, err := natsclient.Connect(natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		turns := natsclient.NewTurnPublisher(natsClient)
		if err := turns.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		publisher = turns
		natsConn = natsClient
	}

	// Image pipeline
	imageOpts := service.ImageOptions{
		Mode:     cfg.ImageMode,
		MaxBytes: cfg.MaxUploadBytes,
	}
	if cfg.ImageMode == config.ImageModeOCR {
		tess := ocr.NewTesseract(cfg.OCRCommand, cfg.OCRLanguage, cfg.OCRTimeout, log)
		if !tess.Available() {
			log.Warn("OCR engine not found, image uploads will fail", zap.String("command", cfg.OCRCommand))
		}
		imageOpts.Extractor = tess
	} else if !generator.SupportsImages() {
		log.Warn("vision mode without a vision-capable LLM, image uploads will return fallback explanations")
	}

	// Services
	conversationSvc := service.NewConversationService(conversations, publisher, log)
	svcs := handler.Services{
		Auth:          service.NewAuthService(provider, conversations, log),
		Conversations: conversationSvc,
		Query:         service.NewQueryService(conversationSvc, generator),
		Images:        service.NewImageService(conversationSvc, generator, imageOpts, log),
	}

	router := handler.NewRouter(svcs, handler.NewHealthHandler(conversations, natsConn), handler.RouterConfig{
		CORSOrigins:       cfg.CORSOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		MaxUploadBytes:    cfg.MaxUploadBytes,
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	if cfg.LogFormat == "console" {
		return logger.NewDevelopment()
	}
	return logger.New(cfg.LogLevel)
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Backend, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, conversations are kept in memory")
		return store.NewMemoryBackend(), nil
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	return postgres.NewBackend(db), nil
}

// newLLMClient builds the client named by LLM_PROVIDER, or the first
// provider with a configured key. It returns nil when none is configured.
func newLLMClient(cfg *config.Config) (llm.Client, error) {
	keys := map[llm.Provider]llm.Options{
		llm.ProviderGemini:    {APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel, Timeout: cfg.LLMTimeout},
		llm.ProviderOpenAI:    {APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel, Timeout: cfg.LLMTimeout},
		llm.ProviderAnthropic: {APIKey: cfg.AnthropicAPIKey, Model: cfg.AnthropicModel, Timeout: cfg.LLMTimeout},
	}

	if cfg.LLMProvider != "" {
		provider := llm.Provider(cfg.LLMProvider)
		opts, ok := keys[provider]
		if !ok {
			return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
		}
		if opts.APIKey == "" {
			return nil, fmt.Errorf("LLM_PROVIDER %q has no API key", cfg.LLMProvider)
		}
		return llm.NewClient(provider, opts)
	}

	for _, provider := range []llm.Provider{llm.ProviderGemini, llm.ProviderOpenAI, llm.ProviderAnthropic} {
		if opts := keys[provider]; opts.APIKey != "" {
			return llm.NewClient(provider, opts)
		}
	}
	return nil, nil
}
