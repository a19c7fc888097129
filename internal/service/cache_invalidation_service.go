package service

import (
	"context"

	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/internal/repository/contract"
	"pagefiber-be/pkg/events"
	pkgNats "pagefiber-be/pkg/nats"

	"github.com/google/uuid"
)

// EventSubscriber is satisfied by the NATS subscriber
type EventSubscriber interface {
	Subscribe(ctx context.Context, durableName string, handler pkgNats.EventHandler, eventTypes ...string) error
}

// ICacheInvalidationService drops render cache entries when another
// instance syncs or deletes a page. The in-process cache of the instance
// that handled the sync is already invalidated.
type ICacheInvalidationService interface {
	Listen(ctx context.Context) error
}

type cacheInvalidationService struct {
	subscriber EventSubscriber
	cache      contract.RenderCache
	logger     logger.ILogger
}

func NewCacheInvalidationService(subscriber EventSubscriber, cache contract.RenderCache, log logger.ILogger) ICacheInvalidationService {
	return &cacheInvalidationService{
		subscriber: subscriber,
		cache:      cache,
		logger:     log,
	}
}

func (s *cacheInvalidationService) Listen(ctx context.Context) error {
	// no durable name: every instance must see every event
	return s.subscriber.Subscribe(ctx, "", s.handle, events.PageSynced, events.PageDeleted)
}

func (s *cacheInvalidationService) handle(ctx context.Context, event events.BaseEvent) error {
	pageId, err := uuid.Parse(event.String("page_id"))
	if err != nil {
		s.logger.Warn("CacheInvalidation", "Event without a valid page id", map[string]interface{}{
			"type":    event.Type,
			"page_id": event.String("page_id"),
		})
		return nil
	}
	s.cache.Invalidate(ctx, pageId)
	return nil
}
