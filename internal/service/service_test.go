package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventcorner/assistant/internal/analyzer"
	"github.com/eventcorner/assistant/internal/llm"
	"github.com/eventcorner/assistant/internal/model"
	"github.com/eventcorner/assistant/internal/prompt"
	"github.com/eventcorner/assistant/pkg/logger"
)

type fakeEngine struct {
	content string
	err     error

	mu       sync.Mutex
	calls    int
	requests []*llm.CompletionRequest
	ctxErrs  []error
}

func (f *fakeEngine) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.requests = append(f.requests, req)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content, TokensIn: 10, TokensOut: 5}, nil
}

func (f *fakeEngine) Name() string     { return "ollama" }
func (f *fakeEngine) Endpoint() string { return "http://localhost:11434/v1" }

type fakePublisher struct {
	err    error
	drafts []*model.EventDraft
}

func (f *fakePublisher) PublishDraft(_ context.Context, d *model.EventDraft) error {
	f.drafts = append(f.drafts, d)
	return f.err
}

const completionOutput = `{
	"needs_clarification": false,
	"event_data": {
		"title": "React Workshop",
		"description": "Hands-on React",
		"category": "workshop",
		"venue_type": "online",
		"venue_name": "Zoom",
		"timeslots": [{"title": "Session", "start": "2025-01-15T14:00:00+06:00", "end": "2025-01-15T16:00:00+06:00"}]
	},
	"confidence": 0.9,
	"message": "Looks good!"
}`

func newConversation(engine llm.Client, pub DraftPublisher) *ConversationService {
	return NewConversationService(engine, nil, pub, ConversationOptions{Model: "llama3.2", MaxTokens: 512, Temperature: 0.2}, nil)
}

func TestHandleTurn_RejectsEmptyMessage(t *testing.T) {
	engine := &fakeEngine{content: completionOutput}
	svc := newConversation(engine, nil)

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := svc.HandleTurn(context.Background(), nil, msg)
		require.Error(t, err)
		var se *Error
		require.True(t, errors.As(err, &se))
		assert.Equal(t, KindInvalidInput, se.Kind)
		assert.Equal(t, "Message is required", se.Detail)
	}
	assert.Zero(t, engine.calls)
}

func TestHandleTurn_RejectsUnknownRole(t *testing.T) {
	engine := &fakeEngine{content: completionOutput}
	svc := newConversation(engine, nil)

	_, err := svc.HandleTurn(context.Background(), []model.ConversationTurn{{Role: "tool", Content: "x"}}, "hi")
	assert.True(t, IsKind(err, KindInvalidInput))
	assert.Zero(t, engine.calls)
}

func TestHandleTurn_ComposesAndUsesJSONMode(t *testing.T) {
	engine := &fakeEngine{content: `{"needs_clarification": true, "question": "When is it?", "extracted_so_far": {"title": "React Workshop"}, "missing_fields": ["timeslots"], "confidence": 0.5}`}
	svc := newConversation(engine, nil)

	history := []model.ConversationTurn{
		{Role: model.RoleUser, Content: "I want to host a React workshop"},
		{Role: model.RoleAssistant, Content: "Will it be online?"},
	}
	d, err := svc.HandleTurn(context.Background(), history, "Yes, on Zoom")
	require.NoError(t, err)

	c, ok := d.(*model.Clarification)
	require.True(t, ok)
	assert.Equal(t, "When is it?", c.Question)

	require.Equal(t, 1, engine.calls)
	req := engine.requests[0]
	assert.True(t, req.JSONMode)
	assert.Equal(t, "llama3.2", req.Model)
	assert.Equal(t, 512, req.MaxTokens)
	assert.Equal(t, prompt.Compose(history, "Yes, on Zoom"), req.Messages)
}

func TestHandleTurn_MalformedOutputFallsBack(t *testing.T) {
	svc := newConversation(&fakeEngine{content: "Sure, here is your event!"}, nil)

	d, err := svc.HandleTurn(context.Background(), nil, "party")
	require.NoError(t, err)
	assert.Equal(t, model.FallbackClarification(), d)
}

func TestHandleTurn_PublishesCompletion(t *testing.T) {
	pub := &fakePublisher{}
	svc := newConversation(&fakeEngine{content: completionOutput}, pub)

	ctx := logger.ContextWithCorrelationID(context.Background(), "req-42")
	d, err := svc.HandleTurn(ctx, nil, "React workshop on Zoom, Jan 15 2-4pm")
	require.NoError(t, err)
	c, ok := d.(*model.Completion)
	require.True(t, ok)

	require.Len(t, pub.drafts, 1)
	assert.Equal(t, c.EventData, pub.drafts[0].Event)
	assert.Equal(t, "req-42", pub.drafts[0].CorrelationID)
	assert.Equal(t, 0.9, pub.drafts[0].Confidence)
	assert.NotEmpty(t, pub.drafts[0].ID)
}

func TestHandleTurn_PublishFailureKeepsDecision(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: no responders")}
	svc := newConversation(&fakeEngine{content: completionOutput}, pub)

	d, err := svc.HandleTurn(context.Background(), nil, "React workshop")
	require.NoError(t, err)
	assert.False(t, d.NeedsClarification())
}

func TestHandleTurn_DoesNotPublishClarification(t *testing.T) {
	pub := &fakePublisher{}
	svc := newConversation(&fakeEngine{content: "not json"}, pub)

	_, err := svc.HandleTurn(context.Background(), nil, "hello")
	require.NoError(t, err)
	assert.Empty(t, pub.drafts)
}

func TestHandleTurn_EngineFailures(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	cases := []struct {
		name   string
		engine *fakeEngine
		kind   Kind
		detail string
	}{
		{"connection refused", &fakeEngine{err: fmt.Errorf("post: %w", refused)}, KindBackendUnavailable, "Ollama is not running at http://localhost:11434/v1"},
		{"dns", &fakeEngine{err: &net.DNSError{Err: "no such host", Name: "ollama"}}, KindBackendUnavailable, "Ollama is not running at http://localhost:11434/v1"},
		{"other", &fakeEngine{err: errors.New("model not found")}, KindBackendError, "Event conversation failed: model not found"},
		{"empty content", &fakeEngine{content: "  "}, KindBackendError, "Empty response from model"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newConversation(tc.engine, nil)
			_, err := svc.HandleTurn(context.Background(), nil, "workshop")

			var se *Error
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tc.kind, se.Kind)
			assert.Equal(t, tc.detail, se.Detail)
			assert.Equal(t, 1, tc.engine.calls, "engine is called exactly once")
		})
	}
}

func TestHandleTurn_EngineCallSurvivesCancellation(t *testing.T) {
	engine := &fakeEngine{content: completionOutput}
	svc := newConversation(engine, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.HandleTurn(ctx, nil, "workshop")
	require.NoError(t, err)
	assert.NoError(t, engine.ctxErrs[0])
}

func TestChat(t *testing.T) {
	engine := &fakeEngine{content: "Try the Robotics Expo this weekend!"}
	svc := newConversation(engine, nil)

	reply, err := svc.Chat(context.Background(), "any tech events?", "user is in Dhaka")
	require.NoError(t, err)
	assert.Equal(t, "Try the Robotics Expo this weekend!", reply)

	req := engine.requests[0]
	assert.False(t, req.JSONMode)
	assert.Equal(t, prompt.ComposeChat("any tech events?", "user is in Dhaka"), req.Messages)
}

func TestChat_Failures(t *testing.T) {
	svc := newConversation(&fakeEngine{err: errors.New("read: Connection reset by peer")}, nil)
	_, err := svc.Chat(context.Background(), "hi", "")
	assert.True(t, IsKind(err, KindBackendUnavailable))

	svc = newConversation(&fakeEngine{err: errors.New("bad gateway")}, nil)
	_, err = svc.Chat(context.Background(), "hi", "")
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Chat failed: bad gateway", se.Detail)

	_, err = svc.Chat(context.Background(), " ", "")
	assert.True(t, IsKind(err, KindInvalidInput))
}

func TestKindStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindInvalidInput.Status())
	assert.Equal(t, http.StatusServiceUnavailable, KindBackendUnavailable.Status())
	assert.Equal(t, http.StatusInternalServerError, KindBackendError.Status())
	assert.Equal(t, http.StatusInternalServerError, KindAnalyzerFailure.Status())
	assert.Equal(t, http.StatusServiceUnavailable, KindAnalyzerUnavailable.Status())
}

type fakeAnalyzer struct {
	result json.RawMessage
	err    error

	calls     int
	path      string
	staged    []byte
	stagedErr error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, path string) (json.RawMessage, error) {
	f.calls++
	f.path = path
	f.staged, f.stagedErr = os.ReadFile(path)
	return f.result, f.err
}

func (f *fakeAnalyzer) Backend() string { return "fake" }

func pngUpload(data string) Upload {
	return Upload{Filename: "banner.png", ContentType: "image/png", Data: []byte(data)}
}

func TestExtract_RejectsNonImageBeforeAnalyzer(t *testing.T) {
	a := &fakeAnalyzer{result: json.RawMessage(`{}`)}
	svc := NewBannerService(a, nil, "easy", t.TempDir(), nil)

	_, err := svc.Extract(context.Background(), Upload{Filename: "doc.pdf", ContentType: "application/pdf", Data: []byte("%PDF")})
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindInvalidInput, se.Kind)
	assert.Equal(t, "File must be an image", se.Detail)
	assert.Zero(t, a.calls)

	_, err = NewBannerService(nil, nil, "", "", nil).Extract(context.Background(), Upload{ContentType: "text/plain"})
	assert.True(t, IsKind(err, KindInvalidInput))
}

func TestExtract_NoAnalyzer(t *testing.T) {
	svc := NewBannerService(nil, nil, "easy", "", nil)
	assert.False(t, svc.AnalyzerLoaded())
	assert.Empty(t, svc.OCRBackend())

	_, err := svc.Extract(context.Background(), pngUpload("img"))
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindAnalyzerUnavailable, se.Kind)
	assert.Equal(t, "Analyzer not initialized", se.Detail)
}

func TestExtract_ReturnsAnalyzerOutputAndRemovesTempFile(t *testing.T) {
	out := json.RawMessage(`{"title":"Hackathon 2025","category":"competition","venue_type":"in person","raw_text":"..."}`)
	a := &fakeAnalyzer{result: out}
	dir := t.TempDir()
	svc := NewBannerService(a, nil, "easy", dir, nil)

	got, err := svc.Extract(context.Background(), pngUpload("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, string(out), string(got))

	require.NoError(t, a.stagedErr)
	assert.Equal(t, "png-bytes", string(a.staged))
	_, statErr := os.Stat(a.path)
	assert.True(t, os.IsNotExist(statErr), "temp file must be removed")
}

func TestExtract_AnalyzerFailureRemovesTempFile(t *testing.T) {
	a := &fakeAnalyzer{err: errors.New("OCR model crashed")}
	svc := NewBannerService(a, nil, "easy", t.TempDir(), nil)

	_, err := svc.Extract(context.Background(), pngUpload("x"))
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindAnalyzerFailure, se.Kind)
	assert.Equal(t, "Analysis failed: OCR model crashed", se.Detail)

	_, statErr := os.Stat(a.path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtract_RejectsNonObjectOutput(t *testing.T) {
	for _, out := range []string{`[1,2]`, `null`, `"text"`, `not json`} {
		svc := NewBannerService(&fakeAnalyzer{result: json.RawMessage(out)}, nil, "", t.TempDir(), nil)
		_, err := svc.Extract(context.Background(), pngUpload("x"))
		assert.True(t, IsKind(err, KindAnalyzerFailure), out)
	}
}

func TestExtract_CachesByImageBytes(t *testing.T) {
	a := &fakeAnalyzer{result: json.RawMessage(`{"title":"Expo"}`)}
	cache, err := analyzer.NewResultCache(4)
	require.NoError(t, err)
	svc := NewBannerService(a, cache, "easy", t.TempDir(), nil)

	first, err := svc.Extract(context.Background(), pngUpload("same"))
	require.NoError(t, err)
	second, err := svc.Extract(context.Background(), Upload{Filename: "other.jpg", ContentType: "image/jpeg", Data: []byte("same")})
	require.NoError(t, err)

	assert.Equal(t, 1, a.calls)
	assert.Equal(t, string(first), string(second))

	_, err = svc.Extract(context.Background(), pngUpload("different"))
	require.NoError(t, err)
	assert.Equal(t, 2, a.calls)
}

func TestCheckFields(t *testing.T) {
	fields, err := objectFields(json.RawMessage(`{"category":"party","venue_type":"online","title":"x"}`))
	require.NoError(t, err)
	findings := checkFields(fields)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0], `category "party"`)
}

func TestIsImageContentType(t *testing.T) {
	cases := []struct {
		contentType string
		want        bool
	}{
		{"image/png", true},
		{"image/jpeg; charset=binary", true},
		{"IMAGE/GIF", true},
		{"application/pdf", false},
		{"text/plain", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isImageContentType(tc.contentType), tc.contentType)
	}
}
