package implementation

import (
	"context"

	"pagefiber-be/internal/entity"
	"pagefiber-be/internal/mapper"
	"pagefiber-be/internal/model"
	"pagefiber-be/internal/repository/contract"
	"pagefiber-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PageEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PageEmbeddingMapper
}

func NewPageEmbeddingRepository(db *gorm.DB) contract.PageEmbeddingRepository {
	return &PageEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewPageEmbeddingMapper(),
	}
}

func (r *PageEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.PageEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := r.mapper.ToModels(embeddings)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

// DeleteByPageId hard-deletes, chunks are always regenerated wholesale.
func (r *PageEmbeddingRepositoryImpl) DeleteByPageId(ctx context.Context, pageId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("page_id = ?", pageId).Delete(&model.PageEmbedding{}).Error
}

func (r *PageEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.PageEmbedding{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

// SearchSimilarWithScore ranks chunks of published pages by cosine similarity.
// pgvector's <=> is cosine distance, so similarity is 1 - distance.
func (r *PageEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredPageEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.PageEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("page_embeddings").
		Select("page_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Joins("JOIN pages ON pages.id = page_embeddings.page_id").
		Where("pages.published = ?", true).
		Where("page_embeddings.deleted_at IS NULL").
		Where("pages.deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredPageEmbedding, len(results))
	for i := range results {
		scored[i] = &contract.ScoredPageEmbedding{
			Embedding:  r.mapper.ToEntity(&results[i].PageEmbedding),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}
