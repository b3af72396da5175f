package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natstest "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventcorner/assistant/internal/model"
	"github.com/eventcorner/assistant/pkg/logger"
)

func TestDraftSubject(t *testing.T) {
	assert.Equal(t, "events.draft.workshop", DraftSubject(model.CategoryWorkshop))
	assert.Equal(t, "events.draft.charity", DraftSubject(" Charity "))
	assert.Equal(t, "events.draft.uncategorized", DraftSubject(""))
	assert.Equal(t, "events.draft.uncategorized", DraftSubject("a.b"))
	assert.Equal(t, "events.draft.uncategorized", DraftSubject("*"))
}

// runJetStream starts an in-process server with JetStream enabled and returns
// a connected client.
func runJetStream(t *testing.T) *Client {
	t.Helper()
	opts := natstest.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	srv := natstest.RunServer(&opts)
	t.Cleanup(srv.Shutdown)

	client, err := Connect(context.Background(), Config{Name: "drafts-test", URL: srv.ClientURL()}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func newDraft(t *testing.T, id, eventJSON string) *model.EventDraft {
	t.Helper()
	var event model.EventRecord
	require.NoError(t, json.Unmarshal([]byte(eventJSON), &event))
	return &model.EventDraft{
		ID:         id,
		Event:      event,
		Confidence: 0.9,
		CreatedAt:  time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestEnsureStream_CreatesOnce(t *testing.T) {
	client := runJetStream(t)
	mgr := NewStreamManager(client)
	ctx := context.Background()

	require.NoError(t, mgr.EnsureStream(ctx))
	require.NoError(t, mgr.EnsureStream(ctx))

	stream, err := client.JetStream().Stream(ctx, StreamName)
	require.NoError(t, err)
	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{SubjectPrefix + ".>"}, info.Config.Subjects)
}

func TestPublishDraft_DeduplicatesByID(t *testing.T) {
	client := runJetStream(t)
	mgr := NewStreamManager(client)
	ctx := context.Background()
	require.NoError(t, mgr.EnsureStream(ctx))

	draft := newDraft(t, "draft-1", `{"title": "React Workshop", "category": "workshop"}`)
	require.NoError(t, mgr.PublishDraft(ctx, draft))
	require.NoError(t, mgr.PublishDraft(ctx, draft))

	stream, err := client.JetStream().Stream(ctx, StreamName)
	require.NoError(t, err)
	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.State.Msgs)

	msg, err := stream.GetLastMsgForSubject(ctx, "events.draft.workshop")
	require.NoError(t, err)
	assert.Equal(t, "draft-1", msg.Header.Get("Nats-Msg-Id"))
}

func TestRecentDrafts(t *testing.T) {
	client := runJetStream(t)
	mgr := NewStreamManager(client)
	ctx := context.Background()
	require.NoError(t, mgr.EnsureStream(ctx))

	for _, d := range []*model.EventDraft{
		newDraft(t, "d-1", `{"title": "React Workshop", "category": "workshop", "organizer": "Dhaka JS"}`),
		newDraft(t, "d-2", `{"title": "Charity Run", "category": "charity"}`),
		newDraft(t, "d-3", `{"title": "Go Workshop", "category": "workshop"}`),
	} {
		require.NoError(t, mgr.PublishDraft(ctx, d))
	}

	t.Run("all categories", func(t *testing.T) {
		drafts, last, hasMore, err := mgr.RecentDrafts(ctx, "", 0, 10)
		require.NoError(t, err)
		require.Len(t, drafts, 3)
		assert.Equal(t, []string{"d-1", "d-2", "d-3"}, draftIDs(drafts))
		assert.Equal(t, uint64(3), last)
		assert.False(t, hasMore)

		data, err := json.Marshal(drafts[0].Event)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"organizer":"Dhaka JS"`)
	})

	t.Run("category filter", func(t *testing.T) {
		drafts, _, hasMore, err := mgr.RecentDrafts(ctx, model.CategoryWorkshop, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"d-1", "d-3"}, draftIDs(drafts))
		assert.False(t, hasMore)
	})

	t.Run("pages by sequence", func(t *testing.T) {
		drafts, last, hasMore, err := mgr.RecentDrafts(ctx, "", 0, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"d-1", "d-2"}, draftIDs(drafts))
		assert.Equal(t, uint64(2), last)
		assert.True(t, hasMore)

		drafts, last, hasMore, err = mgr.RecentDrafts(ctx, "", last, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"d-3"}, draftIDs(drafts))
		assert.Equal(t, uint64(3), last)
		assert.False(t, hasMore)
	})
}

func draftIDs(drafts []model.EventDraft) []string {
	ids := make([]string, len(drafts))
	for i, d := range drafts {
		ids[i] = d.ID
	}
	return ids
}
