package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pagefiber-be/internal/dto"
	"pagefiber-be/internal/entity"
	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/internal/repository/specification"
	"pagefiber-be/internal/repository/unitofwork"
	"pagefiber-be/pkg/embedding"
	"pagefiber-be/pkg/events"
	"pagefiber-be/pkg/render/markdown"
	"pagefiber-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

const consumerModule = "ConsumerService"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type ChunkOptions struct {
	Size    int
	Overlap int
}

type consumerService struct {
	subscriber        message.Subscriber
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	renderer          IPageRenderer
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    events.Publisher
	chunks            ChunkOptions
	logger            logger.ILogger

	// embedding attempts per chunk and the first retry delay
	maxTries     uint
	initialDelay time.Duration
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	renderer IPageRenderer,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher events.Publisher,
	chunks ChunkOptions,
	log logger.ILogger,
) IConsumerService {
	if chunks.Size <= 0 {
		chunks.Size = 1500
	}
	return &consumerService{
		subscriber:        subscriber,
		topicName:         topicName,
		uowFactory:        uowFactory,
		renderer:          renderer,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		chunks:            chunks,
		logger:            log,
		maxTries:          3,
		initialDelay:      time.Second,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks. Embedding calls are retried in place, and a
// page that still fails is picked up again on its next sync.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.PublishEmbedPageMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		return
	}

	chunks, err := cs.embedPage(ctx, payload)
	if err != nil {
		cs.logger.Error(consumerModule, "Failed to embed page", map[string]interface{}{
			"page_id": payload.PageId,
			"version": payload.Version,
			"error":   err.Error(),
		})
		return
	}
	if chunks < 0 {
		return
	}

	cs.logger.Info(consumerModule, "Page embedded", map[string]interface{}{
		"page_id": payload.PageId,
		"version": payload.Version,
		"chunks":  chunks,
	})

	if cs.eventPublisher != nil {
		event := events.New(events.PageEmbedded, map[string]interface{}{
			"page_id": payload.PageId.String(),
			"version": payload.Version,
			"chunks":  chunks,
		})
		if err := cs.eventPublisher.Publish(ctx, event); err != nil {
			cs.logger.Warn(consumerModule, "Failed to publish event", map[string]interface{}{"error": err.Error()})
		}
	}
}

// embedPage replaces the page's embeddings and returns the chunk count, or
// -1 when the message was skipped.
func (cs *consumerService) embedPage(ctx context.Context, payload dto.PublishEmbedPageMessage) (int, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	page, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: payload.PageId})
	if err != nil {
		return 0, fmt.Errorf("failed to load page: %w", err)
	}
	if page == nil {
		cs.logger.Warn(consumerModule, "Page gone before embedding", map[string]interface{}{"page_id": payload.PageId})
		return -1, nil
	}
	if page.Version > payload.Version {
		cs.logger.Debug(consumerModule, "Skipping stale embed message", map[string]interface{}{
			"page_id": page.Id,
			"message": payload.Version,
			"current": page.Version,
		})
		return -1, nil
	}

	doc := cs.renderer.RenderPage(ctx, page)
	if doc.Failed {
		cs.logger.Warn(consumerModule, "Page failed to render, keeping previous embeddings", map[string]interface{}{"page_id": page.Id})
		return -1, nil
	}

	text := "# " + page.Title + "\n\n" + (&markdown.Writer{PlainMedia: true}).Render(doc)
	chunks := utils.SplitText(text, cs.chunks.Size, cs.chunks.Overlap)

	rows := make([]*entity.PageEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		values, err := cs.generate(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("chunk %d: %w", i, err)
		}
		rows = append(rows, &entity.PageEmbedding{
			Id:             uuid.New(),
			Document:       chunk,
			EmbeddingValue: values,
			PageId:         page.Id,
			ChunkIndex:     i,
			CreatedAt:      time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	if err := uow.PageEmbeddingRepository().DeleteByPageId(ctx, page.Id); err != nil {
		return 0, fmt.Errorf("failed to delete old embeddings: %w", err)
	}
	if err := uow.PageEmbeddingRepository().CreateBulk(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (cs *consumerService) generate(ctx context.Context, chunk string) ([]float32, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cs.initialDelay

	return backoff.Retry(ctx, func() ([]float32, error) {
		res, err := cs.embeddingProvider.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			return nil, err
		}
		if len(res.Embedding.Values) != embedding.Dimensions {
			return nil, backoff.Permanent(fmt.Errorf("embedding has %d dimensions, want %d", len(res.Embedding.Values), embedding.Dimensions))
		}
		return res.Embedding.Values, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(cs.maxTries))
}
