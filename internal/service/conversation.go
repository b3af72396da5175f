// Package service holds the conversation and banner extraction flows.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/eventcorner/assistant/internal/interpret"
	"github.com/eventcorner/assistant/internal/llm"
	"github.com/eventcorner/assistant/internal/model"
	"github.com/eventcorner/assistant/internal/prompt"
	"github.com/eventcorner/assistant/pkg/logger"
	"github.com/eventcorner/assistant/pkg/metrics"
)

const (
	flowEvent = "event"
	flowChat  = "chat"
)

var tracer = otel.Tracer("github.com/eventcorner/assistant/internal/service")

// DraftPublisher receives every completed event record.
type DraftPublisher interface {
	PublishDraft(ctx context.Context, draft *model.EventDraft) error
}

// ConversationOptions tunes engine calls.
type ConversationOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// ConversationService runs the stateless slot-filling protocol and the free
// chat flow against one completion engine.
type ConversationService struct {
	engine      llm.Client
	interpreter *interpret.Interpreter
	publisher   DraftPublisher
	opts        ConversationOptions
	logger      *logger.Logger
}

// NewConversationService creates a conversation service. publisher may be nil.
func NewConversationService(
	engine llm.Client,
	interpreter *interpret.Interpreter,
	publisher DraftPublisher,
	opts ConversationOptions,
	log *logger.Logger,
) *ConversationService {
	if log == nil {
		log = logger.NewNop()
	}
	if interpreter == nil {
		interpreter = interpret.New(log)
	}
	return &ConversationService{
		engine:      engine,
		interpreter: interpreter,
		publisher:   publisher,
		opts:        opts,
		logger:      log,
	}
}

// HandleTurn processes one event conversation turn. The caller supplies the
// whole history on every call; nothing is kept between calls.
func (s *ConversationService) HandleTurn(ctx context.Context, history []model.ConversationTurn, message string) (model.Decision, error) {
	if err := model.ValidateMessageContent(message); err != nil {
		return nil, invalidInput(err.Error())
	}
	turns, err := model.ValidateHistory(history)
	if err != nil {
		return nil, invalidInput(err.Error())
	}

	correlationID := logger.CorrelationIDFromContext(ctx)
	log := s.logger.WithCorrelationID(correlationID)

	content, err := s.complete(ctx, flowEvent, prompt.Compose(turns, message), true)
	if err != nil {
		se := classifyEngineError(s.engine, "Event conversation failed", err)
		log.Error("event conversation failed",
			zap.String("kind", se.Kind.String()),
			zap.Int("history_len", len(turns)),
			zap.Error(err),
		)
		return nil, se
	}
	if strings.TrimSpace(content) == "" {
		return nil, &Error{Kind: KindBackendError, Detail: "Empty response from model"}
	}

	decision := s.interpreter.Interpret(content)
	kind := model.DecisionKind(decision)
	metrics.DecisionsTotal.WithLabelValues(kind).Inc()
	log.Info("event conversation turn",
		zap.String("decision", kind),
		zap.Int("history_len", len(turns)),
		zap.Float64("confidence", decision.DecisionConfidence()),
	)

	if completion, ok := decision.(*model.Completion); ok {
		s.publishDraft(ctx, correlationID, completion, log)
	}
	return decision, nil
}

// Chat answers a free-form message. chatContext, when non-empty, is passed to
// the engine as extra system context.
func (s *ConversationService) Chat(ctx context.Context, message, chatContext string) (string, error) {
	if err := model.ValidateMessageContent(message); err != nil {
		return "", invalidInput(err.Error())
	}

	log := s.logger.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	content, err := s.complete(ctx, flowChat, prompt.ComposeChat(message, chatContext), false)
	if err != nil {
		se := classifyEngineError(s.engine, "Chat failed", err)
		log.Error("chat failed", zap.String("kind", se.Kind.String()), zap.Error(err))
		return "", se
	}
	if strings.TrimSpace(content) == "" {
		return "", &Error{Kind: KindBackendError, Detail: "Empty response from model"}
	}
	return content, nil
}

// complete makes exactly one engine call. The call is detached from the
// caller's cancellation; only the engine client's own timeout applies.
func (s *ConversationService) complete(ctx context.Context, flow string, messages []llm.ChatMessage, jsonMode bool) (string, error) {
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "engine.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("engine.provider", s.engine.Name()),
		attribute.String("engine.flow", flow),
		attribute.Int("engine.messages", len(messages)),
	)

	start := time.Now()
	resp, err := s.engine.Complete(ctx, &llm.CompletionRequest{
		Model:       s.opts.Model,
		Messages:    messages,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
		JSONMode:    jsonMode,
	})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "engine call failed")
		metrics.RecordEngineCall(s.engine.Name(), flow, "error", elapsed, 0, 0)
		return "", err
	}

	span.SetAttributes(
		attribute.Int("engine.tokens_in", resp.TokensIn),
		attribute.Int("engine.tokens_out", resp.TokensOut),
	)
	metrics.RecordEngineCall(s.engine.Name(), flow, "success", elapsed, resp.TokensIn, resp.TokensOut)
	return resp.Content, nil
}

func (s *ConversationService) publishDraft(ctx context.Context, correlationID string, c *model.Completion, log *logger.Logger) {
	if s.publisher == nil {
		return
	}
	draft := &model.EventDraft{
		ID:            uuid.Must(uuid.NewV7()).String(),
		CorrelationID: correlationID,
		Event:         c.EventData,
		Confidence:    c.Confidence,
		Warnings:      c.Warnings,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.publisher.PublishDraft(context.WithoutCancel(ctx), draft); err != nil {
		metrics.DraftsPublished.WithLabelValues("error").Inc()
		log.Warn("failed to publish event draft", zap.String("draft_id", draft.ID), zap.Error(err))
		return
	}
	metrics.DraftsPublished.WithLabelValues("success").Inc()
}
