package dto

import (
	"encoding/json"
	"time"

	"pagefiber-be/pkg/blocks"

	"github.com/google/uuid"
)

type PageResponse struct {
	Id        uuid.UUID        `json:"id"`
	Slug      string           `json:"slug"`
	Title     string           `json:"title"`
	Version   int              `json:"version"`
	UpdatedAt *time.Time       `json:"updated_at"`
	Document  *blocks.Document `json:"document"`
}

type PageSummaryResponse struct {
	Id        uuid.UUID  `json:"id"`
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Published bool       `json:"published"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ListPagesRequest struct {
	Limit   int    `query:"limit" validate:"min=0,max=100"`
	Offset  int    `query:"offset" validate:"min=0"`
	OrderBy string `query:"order_by"`
	Desc    bool   `query:"desc"`
}

type SearchPagesRequest struct {
	Query string `query:"q" validate:"required,max=500"`
}

type SearchPageResponse struct {
	Id             uuid.UUID        `json:"id"`
	Slug           string           `json:"slug"`
	Title          string           `json:"title"`
	SearchType     string           `json:"search_type"`
	RelevanceScore *float64         `json:"relevance_score,omitempty"`
	Document       *blocks.Document `json:"document"`
}

// SyncPageRequest is sent by the workspace sync job. Content may be the
// block array itself or a JSON string holding it.
type SyncPageRequest struct {
	ExternalId      string          `json:"external_id" validate:"required,max=64"`
	Slug            string          `json:"slug" validate:"required,max=255,slug"`
	Title           string          `json:"title" validate:"required,max=255"`
	Content         json.RawMessage `json:"content" validate:"required"`
	Published       bool            `json:"published"`
	SourceUpdatedAt *time.Time      `json:"source_updated_at"`
}

type SyncPageResponse struct {
	Id      uuid.UUID `json:"id"`
	Slug    string    `json:"slug"`
	Version int       `json:"version"`
	Blocks  int       `json:"blocks"`
}

type PublishEmbedPageMessage struct {
	PageId  uuid.UUID `json:"page_id"`
	Version int       `json:"version"`
}

// RenderAlert is pushed to admin websocket clients and published on NATS
// when a page fails to render as a whole.
type RenderAlert struct {
	PageId     uuid.UUID `json:"page_id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}
