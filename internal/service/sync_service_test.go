package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"pagefiber-be/internal/dto"
	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisherService struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (f *fakePublisherService) Publish(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return nil
}

type syncFixture struct {
	store  *store
	cache  *fakeCache
	queue  *fakePublisherService
	events *fakeEvents
	svc    ISyncService
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		store:  newStore(),
		cache:  newFakeCache(),
		queue:  &fakePublisherService{},
		events: &fakeEvents{},
	}
	f.svc = NewSyncService(f.store, f.cache, f.queue, f.events, logger.NewNopLogger())
	return f
}

func syncRequest(externalId, slug, content string) *dto.SyncPageRequest {
	return &dto.SyncPageRequest{
		ExternalId: externalId,
		Slug:       slug,
		Title:      "Title " + slug,
		Content:    json.RawMessage(content),
		Published:  true,
	}
}

func TestSyncServiceUpsert(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()
	content := `[{"type":"heading_1","text":"Intro"},{"type":"bulleted_list_item","text":"one"},{"type":"bulleted_list_item","text":"two"}]`

	res, err := f.svc.Upsert(ctx, syncRequest("ext-1", "intro", content))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, 3, res.Blocks)

	page := f.store.pages[res.Id]
	require.NotNil(t, page)
	assert.Equal(t, "Intro\none\ntwo", page.PlainText)
	assert.JSONEq(t, content, string(page.Content))

	t.Run("resync bumps version", func(t *testing.T) {
		again, err := f.svc.Upsert(ctx, syncRequest("ext-1", "intro", content))
		require.NoError(t, err)
		assert.Equal(t, res.Id, again.Id)
		assert.Equal(t, 2, again.Version)
	})

	assert.Equal(t, []uuid.UUID{res.Id, res.Id}, f.cache.invalidated)
	assert.Equal(t, []string{events.PageSynced, events.PageSynced}, f.events.Types())

	require.Len(t, f.queue.payloads, 2)
	var msg dto.PublishEmbedPageMessage
	require.NoError(t, json.Unmarshal(f.queue.payloads[1], &msg))
	assert.Equal(t, res.Id, msg.PageId)
	assert.Equal(t, 2, msg.Version)
}

func TestSyncServiceUnwrapsStringContent(t *testing.T) {
	f := newSyncFixture()

	res, err := f.svc.Upsert(context.Background(), syncRequest("ext-1", "page", `"[{\"type\":\"paragraph\",\"text\":\"hi\"}]"`))

	require.NoError(t, err)
	assert.Equal(t, 1, res.Blocks)
	assert.JSONEq(t, `[{"type":"paragraph","text":"hi"}]`, string(f.store.pages[res.Id].Content))
}

func TestSyncServiceMalformedContentStoresEmptyPage(t *testing.T) {
	f := newSyncFixture()

	res, err := f.svc.Upsert(context.Background(), syncRequest("ext-1", "page", `{"unexpected":true}`))

	require.NoError(t, err)
	assert.Zero(t, res.Blocks)
	assert.Empty(t, f.store.pages[res.Id].PlainText)
}

func TestSyncServiceSlugTaken(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	_, err := f.svc.Upsert(ctx, syncRequest("ext-1", "same", `[]`))
	require.NoError(t, err)

	_, err = f.svc.Upsert(ctx, syncRequest("ext-2", "same", `[]`))
	assert.True(t, errors.Is(err, ErrSlugTaken))
}

func TestSyncServiceDelete(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	res, err := f.svc.Upsert(ctx, syncRequest("ext-1", "gone", `[]`))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, res.Id))
	assert.NotContains(t, f.store.pages, res.Id)
	assert.Equal(t, 1, f.store.commits)
	assert.Contains(t, f.events.Types(), events.PageDeleted)

	err = f.svc.Delete(ctx, res.Id)
	assert.True(t, errors.Is(err, ErrPageNotFound))
}

func TestStoredContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "array kept", in: `[1]`, want: `[1]`},
		{name: "string unwrapped", in: `"[1]"`, want: `[1]`},
		{name: "non json string kept", in: `"hello"`, want: `"hello"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(storedContent(json.RawMessage(tt.in))))
		})
	}
}
