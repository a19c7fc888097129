package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"pagefiber-be/internal/dto"
	"pagefiber-be/internal/entity"
	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "EMBED_PAGE_CONTENT"

func newTestConsumer(s *store, embedder *fakeEmbedder, ev *fakeEvents, sub *gochannel.GoChannel) *consumerService {
	log := logger.NewNopLogger()
	cs := NewConsumerService(sub, testTopic, s, NewPageRenderer(nil, nil, log), embedder, ev, ChunkOptions{Size: 200, Overlap: 20}, log).(*consumerService)
	cs.initialDelay = time.Millisecond
	return cs
}

func (s *store) embeddingsFor(page *entity.Page) []*entity.PageEmbedding {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.PageEmbedding
	for _, e := range s.embeddings {
		if e.PageId == page.Id {
			out = append(out, e)
		}
	}
	return out
}

func TestConsumerServiceEmbedsPublishedMessages(t *testing.T) {
	page := paragraphPage("guide", "Guide", "hello world", true)
	s := newStore(page)
	ev := &fakeEvents{}
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cs := newTestConsumer(s, &fakeEmbedder{}, ev, pubSub)
	require.NoError(t, cs.Consume(ctx))

	payload, err := json.Marshal(dto.PublishEmbedPageMessage{PageId: page.Id, Version: page.Version})
	require.NoError(t, err)
	require.NoError(t, NewPublisherService(testTopic, pubSub).Publish(ctx, payload))

	assert.Eventually(t, func() bool {
		return len(s.embeddingsFor(page)) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		types := ev.Types()
		return len(types) == 1 && types[0] == events.PageEmbedded
	}, time.Second, 10*time.Millisecond)

	doc := s.embeddingsFor(page)[0].Document
	assert.True(t, strings.HasPrefix(doc, "# Guide"))
	assert.Contains(t, doc, "hello world")
}

func TestConsumerServiceReplacesEmbeddings(t *testing.T) {
	page := paragraphPage("guide", "Guide", strings.Repeat("word ", 100), true)
	s := newStore(page)
	s.embeddings = []*entity.PageEmbedding{{PageId: page.Id, Document: "old"}}
	cs := newTestConsumer(s, &fakeEmbedder{}, &fakeEvents{}, nil)

	n, err := cs.embedPage(context.Background(), dto.PublishEmbedPageMessage{PageId: page.Id, Version: 1})

	require.NoError(t, err)
	assert.Greater(t, n, 1)
	rows := s.embeddingsFor(page)
	assert.Len(t, rows, n)
	for i, row := range rows {
		assert.Equal(t, i, row.ChunkIndex)
		assert.NotEqual(t, "old", row.Document)
	}
}

func TestConsumerServiceSkips(t *testing.T) {
	page := paragraphPage("guide", "Guide", "hello", true)
	page.Version = 3
	embedder := &fakeEmbedder{}
	cs := newTestConsumer(newStore(page), embedder, &fakeEvents{}, nil)
	ctx := context.Background()

	t.Run("stale version", func(t *testing.T) {
		n, err := cs.embedPage(ctx, dto.PublishEmbedPageMessage{PageId: page.Id, Version: 2})
		require.NoError(t, err)
		assert.Equal(t, -1, n)
	})

	t.Run("deleted page", func(t *testing.T) {
		n, err := cs.embedPage(ctx, dto.PublishEmbedPageMessage{PageId: paragraphPage("x", "X", "x", true).Id, Version: 1})
		require.NoError(t, err)
		assert.Equal(t, -1, n)
	})

	assert.Zero(t, embedder.Calls())
}

func TestConsumerServiceRetriesProvider(t *testing.T) {
	page := paragraphPage("guide", "Guide", "hello", true)

	t.Run("recovers within attempts", func(t *testing.T) {
		s := newStore(page)
		embedder := &fakeEmbedder{fail: 2}
		cs := newTestConsumer(s, embedder, &fakeEvents{}, nil)

		n, err := cs.embedPage(context.Background(), dto.PublishEmbedPageMessage{PageId: page.Id, Version: 1})

		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, 3, embedder.Calls())
	})

	t.Run("keeps old rows when provider stays down", func(t *testing.T) {
		s := newStore(page)
		s.embeddings = []*entity.PageEmbedding{{PageId: page.Id, Document: "old"}}
		embedder := &fakeEmbedder{err: errors.New("down")}
		cs := newTestConsumer(s, embedder, &fakeEvents{}, nil)

		_, err := cs.embedPage(context.Background(), dto.PublishEmbedPageMessage{PageId: page.Id, Version: 1})

		require.Error(t, err)
		assert.Equal(t, 3, embedder.Calls())
		require.Len(t, s.embeddingsFor(page), 1)
		assert.Equal(t, "old", s.embeddingsFor(page)[0].Document)
	})
}
