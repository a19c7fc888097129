package mapper

import (
	"time"

	"pagefiber-be/internal/entity"
	"pagefiber-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func fromDeletedAt(d gorm.DeletedAt) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

func toDeletedAt(at *time.Time, deleted bool) gorm.DeletedAt {
	if at != nil {
		return gorm.DeletedAt{Time: *at, Valid: true}
	}
	if deleted {
		return gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	return gorm.DeletedAt{}
}

func nonZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func orZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

type PageMapper struct{}

func NewPageMapper() *PageMapper {
	return &PageMapper{}
}

func (m *PageMapper) ToEntity(p *model.Page) *entity.Page {
	if p == nil {
		return nil
	}
	return &entity.Page{
		Id:              p.Id,
		ExternalId:      p.ExternalId,
		Slug:            p.Slug,
		Title:           p.Title,
		Content:         []byte(p.Content),
		PlainText:       p.PlainText,
		Published:       p.Published,
		Version:         p.Version,
		SourceUpdatedAt: p.SourceUpdatedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       nonZero(p.UpdatedAt),
		DeletedAt:       fromDeletedAt(p.DeletedAt),
		IsDeleted:       p.DeletedAt.Valid,
	}
}

func (m *PageMapper) ToModel(p *entity.Page) *model.Page {
	if p == nil {
		return nil
	}
	return &model.Page{
		Id:              p.Id,
		ExternalId:      p.ExternalId,
		Slug:            p.Slug,
		Title:           p.Title,
		Content:         datatypes.JSON(p.Content),
		PlainText:       p.PlainText,
		Published:       p.Published,
		Version:         p.Version,
		SourceUpdatedAt: p.SourceUpdatedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       orZero(p.UpdatedAt),
		DeletedAt:       toDeletedAt(p.DeletedAt, p.IsDeleted),
	}
}

func (m *PageMapper) ToEntities(pages []*model.Page) []*entity.Page {
	entities := make([]*entity.Page, len(pages))
	for i, p := range pages {
		entities[i] = m.ToEntity(p)
	}
	return entities
}

type PageEmbeddingMapper struct{}

func NewPageEmbeddingMapper() *PageEmbeddingMapper {
	return &PageEmbeddingMapper{}
}

func (m *PageEmbeddingMapper) ToEntity(e *model.PageEmbedding) *entity.PageEmbedding {
	if e == nil {
		return nil
	}
	return &entity.PageEmbedding{
		Id:             e.Id,
		Document:       e.Document,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		PageId:         e.PageId,
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      nonZero(e.UpdatedAt),
		DeletedAt:      fromDeletedAt(e.DeletedAt),
		IsDeleted:      e.DeletedAt.Valid,
	}
}

func (m *PageEmbeddingMapper) ToModel(e *entity.PageEmbedding) *model.PageEmbedding {
	if e == nil {
		return nil
	}
	return &model.PageEmbedding{
		Id:             e.Id,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		PageId:         e.PageId,
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      orZero(e.UpdatedAt),
		DeletedAt:      toDeletedAt(e.DeletedAt, e.IsDeleted),
	}
}

func (m *PageEmbeddingMapper) ToModels(embeddings []*entity.PageEmbedding) []*model.PageEmbedding {
	models := make([]*model.PageEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = m.ToModel(e)
	}
	return models
}
