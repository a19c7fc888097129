package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pagefiber-be/internal/dto"
	"pagefiber-be/internal/entity"
	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/internal/repository/contract"
	"pagefiber-be/internal/repository/specification"
	"pagefiber-be/internal/repository/unitofwork"
	"pagefiber-be/pkg/blocks"
	"pagefiber-be/pkg/events"

	"github.com/google/uuid"
)

const syncModule = "SyncService"

var ErrSlugTaken = errors.New("slug is used by another page")

// ISyncService receives pages pushed by the workspace sync job
type ISyncService interface {
	Upsert(ctx context.Context, req *dto.SyncPageRequest) (*dto.SyncPageResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type syncService struct {
	uowFactory       unitofwork.RepositoryFactory
	cache            contract.RenderCache
	publisherService IPublisherService
	eventPublisher   events.Publisher
	logger           logger.ILogger
}

func NewSyncService(
	uowFactory unitofwork.RepositoryFactory,
	cache contract.RenderCache,
	publisherService IPublisherService,
	eventPublisher events.Publisher,
	log logger.ILogger,
) ISyncService {
	return &syncService{
		uowFactory:       uowFactory,
		cache:            cache,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

// storedContent unwraps content sent as a JSON string so the jsonb column
// holds the tree itself.
func storedContent(raw json.RawMessage) []byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return raw
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return raw
	}
	inner = strings.TrimSpace(inner)
	if !json.Valid([]byte(inner)) {
		return raw
	}
	return []byte(inner)
}

// plainText flattens a rendered document for literal search
func plainText(doc *blocks.Document) string {
	var sb strings.Builder
	for n := range doc.Walk() {
		if n.Kind == blocks.NodeError {
			continue
		}
		if t := n.PlainText(); t != "" {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(t)
		}
	}
	return sb.String()
}

func (s *syncService) Upsert(ctx context.Context, req *dto.SyncPageRequest) (*dto.SyncPageResponse, error) {
	content := storedContent(req.Content)
	tree := blocks.ParseTreeBytes(content, s.logger)
	doc := blocks.NewRenderer(s.logger, pageRenderOptions()...).Render(tree)

	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.PageRepository().FindOne(ctx, specification.BySlug{Slug: req.Slug})
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ExternalId != req.ExternalId {
		return nil, ErrSlugTaken
	}

	page := &entity.Page{
		ExternalId:      req.ExternalId,
		Slug:            req.Slug,
		Title:           req.Title,
		Content:         content,
		PlainText:       plainText(doc),
		Published:       req.Published,
		SourceUpdatedAt: req.SourceUpdatedAt,
	}
	if err := uow.PageRepository().UpsertByExternalId(ctx, page); err != nil {
		return nil, fmt.Errorf("failed to save page: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, page.Id)
	}

	s.logger.Info(syncModule, "Page synced", map[string]interface{}{
		"page_id":     page.Id,
		"external_id": page.ExternalId,
		"slug":        page.Slug,
		"version":     page.Version,
		"blocks":      len(tree),
	})

	s.queueEmbedding(ctx, page)
	s.publish(ctx, events.PageSynced, page)

	return &dto.SyncPageResponse{
		Id:      page.Id,
		Slug:    page.Slug,
		Version: page.Version,
		Blocks:  len(tree),
	}, nil
}

func (s *syncService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	page, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if page == nil {
		return ErrPageNotFound
	}

	if err := uow.PageEmbeddingRepository().DeleteByPageId(ctx, id); err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	if err := uow.PageRepository().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	s.logger.Info(syncModule, "Page deleted", map[string]interface{}{"page_id": id, "slug": page.Slug})
	s.publish(ctx, events.PageDeleted, page)
	return nil
}

// queueEmbedding is best effort; a page that misses its embedding is still
// served and found by literal search.
func (s *syncService) queueEmbedding(ctx context.Context, page *entity.Page) {
	if s.publisherService == nil {
		return
	}
	payload, err := json.Marshal(dto.PublishEmbedPageMessage{PageId: page.Id, Version: page.Version})
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn(syncModule, "Failed to queue embedding", map[string]interface{}{
			"page_id": page.Id,
			"error":   err.Error(),
		})
	}
}

func (s *syncService) publish(ctx context.Context, eventType string, page *entity.Page) {
	if s.eventPublisher == nil {
		return
	}
	event := events.New(eventType, map[string]interface{}{
		"page_id": page.Id.String(),
		"slug":    page.Slug,
		"version": page.Version,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn(syncModule, "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
