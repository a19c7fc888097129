package contract

import (
	"context"

	"github.com/google/uuid"
)

// RenderCache holds serialized render documents keyed by page and content
// version. A miss is never an error; backends log and degrade to a miss.
type RenderCache interface {
	Get(ctx context.Context, pageId uuid.UUID, version int) ([]byte, bool)
	Set(ctx context.Context, pageId uuid.UUID, version int, doc []byte)
	Invalidate(ctx context.Context, pageId uuid.UUID)
}
