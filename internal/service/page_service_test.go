package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pagefiber-be/internal/dto"
	"pagefiber-be/internal/entity"
	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/internal/repository/contract"
	"pagefiber-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paragraphPage(slug, title, text string, published bool) *entity.Page {
	return &entity.Page{
		Id:        uuid.New(),
		Slug:      slug,
		Title:     title,
		Content:   []byte(`[{"type":"paragraph","text":"` + text + `"}]`),
		PlainText: text,
		Published: published,
		Version:   1,
	}
}

func newTestPageService(s *store, embedder *fakeEmbedder) IPageService {
	log := logger.NewNopLogger()
	var provider embedding.EmbeddingProvider
	if embedder != nil {
		provider = embedder
	}
	return NewPageService(s, NewPageRenderer(newFakeCache(), nil, log), provider, SearchOptions{Threshold: 0.5, Limit: 2}, log)
}

func TestPageServiceShow(t *testing.T) {
	s := newStore(
		paragraphPage("guide", "Guide", "hello", true),
		paragraphPage("draft", "Draft", "wip", false),
	)
	svc := newTestPageService(s, nil)
	ctx := context.Background()

	t.Run("published page", func(t *testing.T) {
		res, err := svc.Show(ctx, "guide")
		require.NoError(t, err)
		assert.Equal(t, "Guide", res.Title)
		require.Len(t, res.Document.Nodes, 1)
		assert.Equal(t, "hello", res.Document.Nodes[0].PlainText())
	})

	t.Run("unpublished page is hidden", func(t *testing.T) {
		_, err := svc.Show(ctx, "draft")
		assert.True(t, errors.Is(err, ErrPageNotFound))
	})

	t.Run("unknown slug", func(t *testing.T) {
		_, err := svc.Show(ctx, "nope")
		assert.True(t, errors.Is(err, ErrPageNotFound))
	})
}

func TestPageServicePreviewIgnoresPublished(t *testing.T) {
	draft := paragraphPage("draft", "Draft", "wip", false)
	svc := newTestPageService(newStore(draft), nil)

	res, err := svc.Preview(context.Background(), draft.Id)

	require.NoError(t, err)
	assert.Equal(t, "draft", res.Slug)
}

func TestPageServiceExports(t *testing.T) {
	svc := newTestPageService(newStore(paragraphPage("guide", "Guide", "hello", true)), nil)
	ctx := context.Background()

	html, err := svc.HTML(ctx, "guide")
	require.NoError(t, err)
	assert.Contains(t, html, "<title>Guide</title>")
	assert.Contains(t, html, "<p>hello</p>")

	md, err := svc.Markdown(ctx, "guide")
	require.NoError(t, err)
	assert.Equal(t, "# Guide\n\nhello\n", md)
}

func TestPageServiceList(t *testing.T) {
	s := newStore(
		paragraphPage("a", "A", "x", true),
		paragraphPage("b", "B", "x", true),
		paragraphPage("c", "C", "x", true),
		paragraphPage("d", "D", "x", false),
	)
	svc := newTestPageService(s, nil)

	res, err := svc.List(context.Background(), &dto.ListPagesRequest{Limit: 2, Offset: 1})

	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, 2, res.Limit)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "b", res.Items[0].Slug)
	assert.Equal(t, "c", res.Items[1].Slug)
}

func TestPageServiceSearchFilters(t *testing.T) {
	s := newStore(
		paragraphPage("docs/install", "Install", "setup steps", true),
		paragraphPage("docs/usage", "Usage", "how to use", true),
		paragraphPage("blog/post", "Install notes", "setup story", true),
	)
	svc := newTestPageService(s, &fakeEmbedder{})

	results, err := svc.Search(context.Background(), "/slug:docs/ setup")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "docs/install", results[0].Slug)
	assert.Equal(t, searchTypeLiteralFilter, results[0].SearchType)
	assert.Nil(t, results[0].RelevanceScore)
}

func TestPageServiceSearchShortQueryIsLiteral(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc := newTestPageService(newStore(paragraphPage("go", "Go", "gophers", true)), embedder)

	results, err := svc.Search(context.Background(), "go")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, searchTypeLiteral, results[0].SearchType)
	assert.Zero(t, embedder.Calls())
}

func TestPageServiceSemanticSearch(t *testing.T) {
	first := paragraphPage("first", "First", "alpha", true)
	second := paragraphPage("second", "Second", "beta", true)
	hidden := paragraphPage("hidden", "Hidden", "gamma", false)
	s := newStore(first, second, hidden)
	s.scored = []*contract.ScoredPageEmbedding{
		{Embedding: &entity.PageEmbedding{PageId: second.Id}, Similarity: 0.9},
		{Embedding: &entity.PageEmbedding{PageId: hidden.Id}, Similarity: 0.85},
		{Embedding: &entity.PageEmbedding{PageId: second.Id}, Similarity: 0.8},
		{Embedding: &entity.PageEmbedding{PageId: first.Id}, Similarity: 0.7},
		{Embedding: &entity.PageEmbedding{PageId: first.Id}, Similarity: 0.1},
	}
	svc := newTestPageService(s, &fakeEmbedder{})

	results, err := svc.Search(context.Background(), "how do pages work")

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "second", results[0].Slug)
	assert.Equal(t, "first", results[1].Slug)
	for _, r := range results {
		assert.Equal(t, searchTypeSemantic, r.SearchType)
		require.NotNil(t, r.RelevanceScore)
		assert.NotNil(t, r.Document)
	}
	assert.InDelta(t, 0.9, *results[0].RelevanceScore, 1e-9)
	assert.InDelta(t, 0.7, *results[1].RelevanceScore, 1e-9)
}

func TestPageServiceSemanticFallsBackToLiteral(t *testing.T) {
	s := newStore(paragraphPage("guide", "Guide", "pages work like this", true))

	t.Run("provider error", func(t *testing.T) {
		svc := newTestPageService(s, &fakeEmbedder{err: errors.New("down")})

		results, err := svc.Search(context.Background(), "pages work")

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, searchTypeLiteral, results[0].SearchType)
	})

	t.Run("nothing above threshold", func(t *testing.T) {
		svc := newTestPageService(s, &fakeEmbedder{})

		results, err := svc.Search(context.Background(), "pages work")

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, searchTypeLiteral, results[0].SearchType)
	})
}

func TestSearchResultsRenderLikeDirectFetch(t *testing.T) {
	page := &entity.Page{
		Id:    uuid.New(),
		Slug:  "docs/rendering",
		Title: "Rendering",
		Content: []byte(`[
			{"type":"heading_2","text":"Steps"},
			{"type":"numbered_list_item","text":"parse"},
			{"type":"numbered_list_item","text":"render","children":[{"type":"bulleted_list_item","text":"nested"}]},
			{"type":"paragraph","text":"Hello world","annotations":[{"start":0,"end":5,"bold":true,"color":"yellowbackground"}]},
			{"type":"image","media_url":"https://cdn.example.com/photo.heic","caption":"holiday"},
			{"type":"to_do","text":"ship","checked":true}
		]`),
		PlainText: "Steps parse render nested Hello world ship",
		Published: true,
		Version:   4,
	}
	log := logger.NewNopLogger()

	// every service gets its own cache so each path renders from stored content
	newService := func(s *store) IPageService {
		return NewPageService(s, NewPageRenderer(newFakeCache(), nil, log), &fakeEmbedder{}, SearchOptions{Threshold: 0.5, Limit: 5}, log)
	}
	encode := func(v interface{}) string {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		return string(data)
	}

	s := newStore(page)
	s.scored = []*contract.ScoredPageEmbedding{
		{Embedding: &entity.PageEmbedding{PageId: page.Id}, Similarity: 0.9},
	}

	direct, err := newService(s).Show(context.Background(), page.Slug)
	require.NoError(t, err)
	require.NotEmpty(t, direct.Document.Nodes)
	want := encode(direct.Document)

	tests := []struct {
		name       string
		query      string
		searchType string
	}{
		{name: "literal", query: `"hello world"`, searchType: searchTypeLiteral},
		{name: "literal filter", query: "/slug:docs/", searchType: searchTypeLiteralFilter},
		{name: "semantic", query: "how does rendering work", searchType: searchTypeSemantic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := newService(s).Search(context.Background(), tt.query)

			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, tt.searchType, results[0].SearchType)
			assert.JSONEq(t, want, encode(results[0].Document))
		})
	}
}
