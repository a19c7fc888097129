package entity

import (
	"time"

	"github.com/google/uuid"
)

type Page struct {
	Id              uuid.UUID
	ExternalId      string
	Slug            string
	Title           string
	Content         []byte
	PlainText       string
	Published       bool
	Version         int
	SourceUpdatedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       *time.Time
	DeletedAt       *time.Time
	IsDeleted       bool
}

type PageEmbedding struct {
	Id             uuid.UUID
	Document       string
	EmbeddingValue []float32
	PageId         uuid.UUID
	ChunkIndex     int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
