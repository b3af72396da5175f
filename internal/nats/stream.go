package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/eventcorner/assistant/internal/model"
)

const (
	// StreamName is the name of the event drafts stream.
	StreamName = "EVENT_DRAFTS"

	// SubjectPrefix is the prefix for all draft subjects.
	SubjectPrefix = "events.draft"

	uncategorized = "uncategorized"
)

// StreamManager publishes completed event records to JetStream so that
// downstream services can turn them into events.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the drafts stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Event records completed by the conversational assistant",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// DraftSubject returns the subject a draft of the given category is
// published on.
func DraftSubject(category model.Category) string {
	token := strings.ToLower(strings.TrimSpace(string(category)))
	if token == "" || strings.ContainsAny(token, ".*> \t") {
		token = uncategorized
	}
	return SubjectPrefix + "." + token
}

// PublishDraft publishes a completed event record. The draft ID is used as
// the JetStream message ID so that a retried publish is deduplicated.
func (m *StreamManager) PublishDraft(ctx context.Context, draft *model.EventDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	_, err = m.client.JetStream().Publish(ctx, DraftSubject(draft.Event.Category), data, jetstream.WithMsgID(draft.ID))
	if err != nil {
		return fmt.Errorf("failed to publish draft: %w", err)
	}

	return nil
}

// RecentDrafts returns up to limit drafts, oldest first, published after
// afterSequence. An empty category matches every category.
func (m *StreamManager) RecentDrafts(ctx context.Context, category model.Category, afterSequence uint64, limit int) ([]model.EventDraft, uint64, bool, error) {
	js := m.client.JetStream()

	filterSubject := SubjectPrefix + ".>"
	if category != "" {
		filterSubject = DraftSubject(category)
	}

	consumerConfig := jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{filterSubject},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	}
	if afterSequence > 0 {
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = afterSequence + 1
	}

	consumer, err := js.OrderedConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to fetch drafts: %w", err)
	}

	var drafts []model.EventDraft
	var lastSequence uint64
	for msg := range batch.Messages() {
		if meta, err := msg.Metadata(); err == nil {
			lastSequence = meta.Sequence.Stream
		}

		var draft model.EventDraft
		if err := json.Unmarshal(msg.Data(), &draft); err != nil {
			continue
		}
		drafts = append(drafts, draft)
	}

	// A short page ends with the fetch wait running out.
	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, nats.ErrTimeout) {
		return nil, 0, false, fmt.Errorf("batch error: %w", err)
	}

	return drafts, lastSequence, len(drafts) == limit, nil
}
