// Package llm provides completion engine client interfaces and implementations.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
	// JSONMode asks the engine to emit a single JSON object.
	JSONMode bool
}

// ChatMessage represents a chat message for the engine.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
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

// Client is the interface for completion engine providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Endpoint returns where the engine is reached, for diagnostics.
	Endpoint() string
}

// Provider is the type of completion engine provider.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// Config selects and configures a provider.
type Config struct {
	Provider Provider
	Model    string
	APIKey   string
	// BaseURL overrides the provider endpoint; required for Ollama.
	BaseURL string
	// Timeout bounds one HTTP exchange with the engine.
	Timeout time.Duration
}

// NewClient creates a new completion engine client based on provider.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case ProviderOllama, "":
		return NewOllamaClient(cfg.BaseURL, cfg.Model, httpClient)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, httpClient)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.Model, httpClient)
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, httpClient)
	default:
		return nil, fmt.Errorf("unknown completion engine provider %q", cfg.Provider)
	}
}
