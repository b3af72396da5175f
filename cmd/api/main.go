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

	"github.com/eventcorner/assistant/internal/analyzer"
	"github.com/eventcorner/assistant/internal/config"
	"github.com/eventcorner/assistant/internal/handler"
	"github.com/eventcorner/assistant/internal/interpret"
	"github.com/eventcorner/assistant/internal/llm"
	natsclient "github.com/eventcorner/assistant/internal/nats"
	"github.com/eventcorner/assistant/internal/service"
	"github.com/eventcorner/assistant/pkg/logger"
	"github.com/eventcorner/assistant/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.FromEnv(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting API server", zap.String("service", cfg.ServiceName))

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "event-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// NATS is optional; it backs the NATS analyzer and the draft stream.
	var natsClient *natsclient.Client
	if cfg.NATSEnabled() {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			Name:     cfg.ServiceName,
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
	}

	var streamManager *natsclient.StreamManager
	var publisher service.DraftPublisher
	if cfg.DraftsEnabled {
		if natsClient == nil {
			log.Fatal("DRAFTS_ENABLED requires NATS_URL")
		}
		streamManager = natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure draft stream", zap.Error(err))
		}
		publisher = streamManager
	}

	engine, err := llm.NewClient(ctx, llm.Config{
		Provider: llm.Provider(cfg.LLMProvider),
		Model:    cfg.LLMModel,
		APIKey:   engineAPIKey(cfg),
		BaseURL:  cfg.LLMBaseURL,
		Timeout:  cfg.LLMTimeout,
	})
	if err != nil {
		log.Fatal("failed to create completion engine client", zap.Error(err))
	}
	log.Info("completion engine configured",
		zap.String("provider", engine.Name()),
		zap.String("endpoint", engine.Endpoint()),
	)

	bannerAnalyzer := newAnalyzer(cfg, natsClient, log)
	cache, err := analyzer.NewResultCache(cfg.AnalyzerCacheSize)
	if err != nil {
		log.Fatal("failed to create analyzer cache", zap.Error(err))
	}

	conversationSvc := service.NewConversationService(engine, interpret.New(log), publisher, service.ConversationOptions{
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	}, log)
	bannerSvc := service.NewBannerService(bannerAnalyzer, cache, cfg.AnalyzerOCRBackend, cfg.UploadTempDir, log)

	handlers := handler.Handlers{
		Health:       handler.NewHealthHandler(cfg.ServiceName, bannerSvc, natsClient),
		Conversation: handler.NewConversationHandler(conversationSvc, log),
		Analyze:      handler.NewAnalyzeHandler(bannerSvc, cfg.UploadMaxBytes, log),
	}
	if streamManager != nil {
		handlers.Drafts = handler.NewDraftHandler(streamManager, log)
	}

	router := handler.NewRouter(handler.RouterOptions{
		Logger:             log,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRequests:  cfg.RateLimitRequests,
		RateLimitWindow:    cfg.RateLimitWindow,
	}, handlers)

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

func engineAPIKey(cfg *config.Config) string {
	switch llm.Provider(cfg.LLMProvider) {
	case llm.ProviderOpenAI:
		return cfg.OpenAIAPIKey
	case llm.ProviderAnthropic:
		return cfg.AnthropicAPIKey
	case llm.ProviderGemini:
		return cfg.GeminiAPIKey
	default:
		return ""
	}
}

// newAnalyzer builds the configured analyzer. A failure leaves the service
// running without one, so /analyze answers 503 and /health reports it.
func newAnalyzer(cfg *config.Config, natsClient *natsclient.Client, log *logger.Logger) analyzer.Analyzer {
	switch cfg.AnalyzerBackend {
	case analyzer.BackendNone:
		log.Info("banner analyzer disabled")
		return nil
	case analyzer.BackendNATS:
		if natsClient == nil {
			log.Error("ANALYZER_BACKEND=nats requires NATS_URL, banner analysis disabled")
			return nil
		}
		a, err := analyzer.NewNATSAnalyzer(natsClient.Conn(), cfg.AnalyzerNATSSubject, cfg.AnalyzerOCRBackend, cfg.AnalyzerTimeout)
		if err != nil {
			log.Error("failed to create NATS analyzer, banner analysis disabled", zap.Error(err))
			return nil
		}
		log.Info("banner analyzer ready", zap.String("backend", a.Backend()), zap.String("subject", cfg.AnalyzerNATSSubject))
		return a
	case analyzer.BackendCommand, "":
		a, err := analyzer.NewCommandAnalyzer(cfg.AnalyzerCommand, cfg.AnalyzerOCRBackend, cfg.AnalyzerTimeout)
		if err != nil {
			log.Error("failed to create command analyzer, banner analysis disabled", zap.Error(err))
			return nil
		}
		log.Info("banner analyzer ready", zap.String("backend", a.Backend()), zap.Strings("command", cfg.AnalyzerCommand))
		return a
	default:
		log.Error("unknown analyzer backend, banner analysis disabled", zap.String("backend", cfg.AnalyzerBackend))
		return nil
	}
}
