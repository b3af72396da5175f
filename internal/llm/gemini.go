package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	genai "google.golang.org/genai"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"
	geminiEndpoint     = "https://generativelanguage.googleapis.com"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey, model string, httpClient *http.Client) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

// Name returns the provider name.
func (g *GeminiClient) Name() string {
	return string(ProviderGemini)
}

// Endpoint returns the API host.
func (g *GeminiClient) Endpoint() string {
	return geminiEndpoint
}

// Complete sends the conversation to Gemini. System turns become the system
// instruction; assistant turns map to the "model" role.
func (g *GeminiClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = g.model
	}

	var system []*genai.Part
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		part := &genai.Part{Text: msg.Content}
		switch msg.Role {
		case "system":
			system = append(system, part)
		case "assistant":
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{part}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{part}})
		}
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{Parts: system}
	}
	if req.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := g.cli.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}

	out := &CompletionResponse{Model: model}
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		var content strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			content.WriteString(part.Text)
		}
		out.Content = content.String()
		out.StopReason = string(resp.Candidates[0].FinishReason)
	}
	if resp.UsageMetadata != nil {
		out.TokensIn = int(resp.UsageMetadata.PromptTokenCount)
		out.TokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	out.LatencyMs = time.Since(start).Milliseconds()
	return out, nil
}
