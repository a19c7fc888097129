package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pagefiber:render:"

// RenderCache shares rendered documents between instances. Each version
// gets its own key so a stale writer can never overwrite a newer render.
type RenderCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewRenderCache(rdb *redis.Client, ttl time.Duration, log logger.ILogger) contract.RenderCache {
	return &RenderCache{rdb: rdb, ttl: ttl, logger: log}
}

func key(pageId uuid.UUID, version int) string {
	return fmt.Sprintf("%s%s:%d", keyPrefix, pageId, version)
}

func (r *RenderCache) Get(ctx context.Context, pageId uuid.UUID, version int) ([]byte, bool) {
	doc, err := r.rdb.Get(ctx, key(pageId, version)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("RenderCache", "Redis get failed", map[string]interface{}{"page_id": pageId, "error": err.Error()})
		}
		return nil, false
	}
	return doc, true
}

func (r *RenderCache) Set(ctx context.Context, pageId uuid.UUID, version int, doc []byte) {
	if err := r.rdb.Set(ctx, key(pageId, version), doc, r.ttl).Err(); err != nil {
		r.logger.Warn("RenderCache", "Redis set failed", map[string]interface{}{"page_id": pageId, "error": err.Error()})
	}
}

func (r *RenderCache) Invalidate(ctx context.Context, pageId uuid.UUID) {
	iter := r.rdb.Scan(ctx, 0, fmt.Sprintf("%s%s:*", keyPrefix, pageId), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("RenderCache", "Redis scan failed", map[string]interface{}{"page_id": pageId, "error": err.Error()})
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("RenderCache", "Redis delete failed", map[string]interface{}{"page_id": pageId, "error": err.Error()})
	}
}
