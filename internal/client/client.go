// Package client is a typed HTTP client for the assistant API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eventcorner/assistant/internal/model"
)

// DefaultBaseURL is where the API listens by default.
const DefaultBaseURL = "http://localhost:5001"

// APIError is a non-2xx reply from the API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Detail)
}

// Client talks to the assistant API.
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

// New creates a client for baseURL. The timeout covers one whole exchange,
// including the engine call made by the server.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Converse sends one event conversation turn with the full history.
func (c *Client) Converse(ctx context.Context, history []model.ConversationTurn, message string) (model.Decision, error) {
	var resp model.EventConversationResponse
	err := c.postJSON(ctx, "/create-event-conversation", &model.EventConversationRequest{
		Message:             message,
		ConversationHistory: history,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("create-event-conversation: response carries no result")
	}
	return resp.Result, nil
}

// Chat sends a free-form message.
func (c *Client) Chat(ctx context.Context, message, chatContext string) (string, error) {
	req := &model.ChatRequest{Message: message}
	if chatContext != "" {
		req.Context = &chatContext
	}
	var resp model.ChatResponse
	if err := c.postJSON(ctx, "/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// Analyze uploads a banner image and returns the analyzer's JSON.
func (c *Client) Analyze(ctx context.Context, path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("analyze: reading %s: %w", path, err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	header.Set("Content-Type", http.DetectContentType(data))
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("analyze: creating form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("analyze: writing form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("analyze: closing form: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/analyze", mw.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// Health fetches GET /health.
func (c *Client) Health(ctx context.Context) (*model.HealthResponse, error) {
	raw, err := c.do(ctx, http.MethodGet, "/health", "", nil)
	if err != nil {
		return nil, err
	}
	var health model.HealthResponse
	if err := json.Unmarshal(raw, &health); err != nil {
		return nil, fmt.Errorf("health: unmarshaling JSON: %w", err)
	}
	return &health, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshaling request: %w", path, err)
	}
	raw, err := c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: unmarshaling JSON: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	rsp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: issuing HTTP %s request to `%s`: %w", path, method, c.BaseURL, err)
	}
	defer rsp.Body.Close()

	data, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading response body: %w", path, err)
	}

	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		var apiErr model.ErrorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Detail != "" {
			return nil, &APIError{StatusCode: rsp.StatusCode, Detail: apiErr.Detail}
		}
		return nil, &APIError{StatusCode: rsp.StatusCode, Detail: http.StatusText(rsp.StatusCode)}
	}
	return data, nil
}
