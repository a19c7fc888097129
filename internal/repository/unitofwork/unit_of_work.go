package unitofwork

import (
	"context"

	"pagefiber-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	PageRepository() contract.PageRepository
	PageEmbeddingRepository() contract.PageEmbeddingRepository
}
