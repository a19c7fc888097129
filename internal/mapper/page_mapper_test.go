package mapper

import (
	"testing"
	"time"

	"pagefiber-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageMapperRoundTrip(t *testing.T) {
	m := NewPageMapper()
	synced := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	in := &entity.Page{
		Id:              uuid.New(),
		ExternalId:      "ext-1",
		Slug:            "hello",
		Title:           "Hello",
		Content:         []byte(`[{"type":"paragraph","text":"hi"}]`),
		Published:       true,
		Version:         3,
		SourceUpdatedAt: &synced,
	}

	out := m.ToEntity(m.ToModel(in))

	require.NotNil(t, out)
	assert.Equal(t, in.Id, out.Id)
	assert.Equal(t, in.Slug, out.Slug)
	assert.JSONEq(t, string(in.Content), string(out.Content))
	assert.Equal(t, 3, out.Version)
	assert.Nil(t, out.UpdatedAt)
	assert.False(t, out.IsDeleted)
}

func TestPageMapperSoftDelete(t *testing.T) {
	m := NewPageMapper()

	model := m.ToModel(&entity.Page{Id: uuid.New(), IsDeleted: true})

	assert.True(t, model.DeletedAt.Valid)
	assert.True(t, m.ToEntity(model).IsDeleted)
}

func TestPageEmbeddingMapperKeepsVector(t *testing.T) {
	m := NewPageEmbeddingMapper()
	in := &entity.PageEmbedding{PageId: uuid.New(), Document: "chunk", EmbeddingValue: []float32{0.1, 0.2}, ChunkIndex: 2}

	out := m.ToEntity(m.ToModel(in))

	assert.Equal(t, in.EmbeddingValue, out.EmbeddingValue)
	assert.Equal(t, 2, out.ChunkIndex)
	assert.Nil(t, m.ToEntity(nil))
}
