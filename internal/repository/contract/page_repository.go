package contract

import (
	"context"

	"pagefiber-be/internal/entity"
	"pagefiber-be/internal/repository/specification"

	"github.com/google/uuid"
)

type PageRepository interface {
	Create(ctx context.Context, page *entity.Page) error
	Update(ctx context.Context, page *entity.Page) error
	// UpsertByExternalId inserts the page or overwrites the row holding the
	// same external id, bumping its version.
	UpsertByExternalId(ctx context.Context, page *entity.Page) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Page, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Page, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
