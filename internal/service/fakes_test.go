package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pagefiber-be/internal/entity"
	"pagefiber-be/internal/repository/contract"
	"pagefiber-be/internal/repository/specification"
	"pagefiber-be/internal/repository/unitofwork"
	"pagefiber-be/pkg/embedding"
	"pagefiber-be/pkg/events"

	"github.com/google/uuid"
)

// store backs the fake repositories. Transactions are not isolated; Rollback
// only records that it happened.
type store struct {
	mu         sync.Mutex
	pages      map[uuid.UUID]*entity.Page
	embeddings []*entity.PageEmbedding
	scored     []*contract.ScoredPageEmbedding
	commits    int
}

func newStore(pages ...*entity.Page) *store {
	s := &store{pages: make(map[uuid.UUID]*entity.Page)}
	for _, p := range pages {
		if p.Id == uuid.Nil {
			p.Id = uuid.New()
		}
		if p.Version == 0 {
			p.Version = 1
		}
		s.pages[p.Id] = p
	}
	return s
}

func (s *store) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{s: s}
}

type fakeUow struct {
	s  *store
	tx bool
}

func (u *fakeUow) Begin(ctx context.Context) error {
	u.tx = true
	return nil
}

func (u *fakeUow) Commit() error {
	u.s.mu.Lock()
	u.s.commits++
	u.s.mu.Unlock()
	u.tx = false
	return nil
}

func (u *fakeUow) Rollback() error {
	u.tx = false
	return nil
}

func (u *fakeUow) PageRepository() contract.PageRepository {
	return &fakePageRepo{s: u.s}
}

func (u *fakeUow) PageEmbeddingRepository() contract.PageEmbeddingRepository {
	return &fakeEmbeddingRepo{s: u.s}
}

type fakePageRepo struct {
	s *store
}

func matches(p *entity.Page, spec specification.Specification) bool {
	switch sp := spec.(type) {
	case specification.ByID:
		return p.Id == sp.ID
	case specification.ByIDs:
		for _, id := range sp.IDs {
			if id == p.Id {
				return true
			}
		}
		return false
	case specification.BySlug:
		return p.Slug == sp.Slug
	case specification.ByExternalID:
		return p.ExternalId == sp.ExternalID
	case specification.Published:
		return p.Published
	case specification.BySlugPrefix:
		return strings.HasPrefix(p.Slug, sp.Prefix)
	case specification.ByPageTitle:
		return strings.Contains(strings.ToLower(p.Title), strings.ToLower(sp.Title))
	case specification.PageSearchQuery:
		q := strings.ToLower(sp.Query)
		return strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.PlainText), q)
	}
	return true
}

func (r *fakePageRepo) query(specs []specification.Specification) []*entity.Page {
	var out []*entity.Page
	for _, p := range r.s.pages {
		ok := true
		for _, spec := range specs {
			if !matches(p, spec) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })

	for _, spec := range specs {
		if pg, ok := spec.(specification.Pagination); ok {
			if pg.Offset >= len(out) {
				return nil
			}
			out = out[pg.Offset:]
			if pg.Limit > 0 && pg.Limit < len(out) {
				out = out[:pg.Limit]
			}
		}
	}
	return out
}

func (r *fakePageRepo) Create(ctx context.Context, page *entity.Page) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.pages[page.Id] = page
	return nil
}

func (r *fakePageRepo) Update(ctx context.Context, page *entity.Page) error {
	return r.Create(ctx, page)
}

func (r *fakePageRepo) UpsertByExternalId(ctx context.Context, page *entity.Page) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.pages {
		if p.ExternalId == page.ExternalId {
			page.Id = p.Id
			page.Version = p.Version + 1
			page.CreatedAt = p.CreatedAt
			r.s.pages[p.Id] = page
			return nil
		}
	}
	page.Id = uuid.New()
	page.Version = 1
	page.CreatedAt = time.Now()
	r.s.pages[page.Id] = page
	return nil
}

func (r *fakePageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.pages, id)
	return nil
}

func (r *fakePageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Page, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := r.query(specs)
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *fakePageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Page, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.query(specs), nil
}

func (r *fakePageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.query(specs))), nil
}

type fakeEmbeddingRepo struct {
	s *store
}

func (r *fakeEmbeddingRepo) CreateBulk(ctx context.Context, embeddings []*entity.PageEmbedding) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.embeddings = append(r.s.embeddings, embeddings...)
	return nil
}

func (r *fakeEmbeddingRepo) DeleteByPageId(ctx context.Context, pageId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.embeddings[:0]
	for _, e := range r.s.embeddings {
		if e.PageId != pageId {
			kept = append(kept, e)
		}
	}
	r.s.embeddings = kept
	return nil
}

func (r *fakeEmbeddingRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.embeddings)), nil
}

func (r *fakeEmbeddingRepo) SearchSimilarWithScore(ctx context.Context, vec []float32, limit int, threshold float64) ([]*contract.ScoredPageEmbedding, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*contract.ScoredPageEmbedding
	for _, sc := range r.s.scored {
		if sc.Similarity >= threshold {
			out = append(out, sc)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  int
	err   error
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.fail > 0 {
		f.fail--
		return nil, errors.New("provider unavailable")
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: make([]float32, embedding.Dimensions)},
	}, nil
}

func (f *fakeEmbedder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakeEvents) Publish(ctx context.Context, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEvents) Types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.EventType())
	}
	return types
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeBroadcaster) Broadcast(ctx context.Context, msgType string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msgType)
	return nil
}

type fakeCache struct {
	mu          sync.Mutex
	docs        map[uuid.UUID][]byte
	versions    map[uuid.UUID]int
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{docs: make(map[uuid.UUID][]byte), versions: make(map[uuid.UUID]int)}
}

func (c *fakeCache) Get(ctx context.Context, pageId uuid.UUID, version int) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[pageId]
	if !ok || c.versions[pageId] != version {
		return nil, false
	}
	return doc, true
}

func (c *fakeCache) Set(ctx context.Context, pageId uuid.UUID, version int, doc []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[pageId] = doc
	c.versions[pageId] = version
}

func (c *fakeCache) Invalidate(ctx context.Context, pageId uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, pageId)
	c.invalidated = append(c.invalidated, pageId)
}
