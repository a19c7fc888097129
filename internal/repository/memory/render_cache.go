package memory

import (
	"context"
	"time"

	"pagefiber-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type cachedRender struct {
	version int
	doc     []byte
}

// RenderCache keeps the latest rendered version of each page in process.
type RenderCache struct {
	cache *cache.Cache
}

func NewRenderCache(ttl time.Duration) contract.RenderCache {
	return &RenderCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *RenderCache) Get(_ context.Context, pageId uuid.UUID, version int) ([]byte, bool) {
	x, found := r.cache.Get(pageId.String())
	if !found {
		return nil, false
	}
	entry := x.(cachedRender)
	if entry.version != version {
		return nil, false
	}
	return entry.doc, true
}

func (r *RenderCache) Set(_ context.Context, pageId uuid.UUID, version int, doc []byte) {
	r.cache.Set(pageId.String(), cachedRender{version: version, doc: doc}, cache.DefaultExpiration)
}

func (r *RenderCache) Invalidate(_ context.Context, pageId uuid.UUID) {
	r.cache.Delete(pageId.String())
}
