package contract

import (
	"context"

	"pagefiber-be/internal/entity"
	"pagefiber-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredPageEmbedding wraps a chunk with its cosine similarity (1.0 = identical)
type ScoredPageEmbedding struct {
	Embedding  *entity.PageEmbedding
	Similarity float64
}

type PageEmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*entity.PageEmbedding) error
	DeleteByPageId(ctx context.Context, pageId uuid.UUID) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredPageEmbedding, error)
}
