package contract

import (
	"context"

	"ai-docchat-be/internal/entity"

	"github.com/google/uuid"
)

// ChunkRepository is the storage surface behind the hybrid index. Both
// search methods take the tenant id and bake it into the SQL WHERE clause:
// tenant isolation is enforced at query time, never by post-filtering.
type ChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.Chunk) error

	// SearchDense ranks by cosine similarity of the stored embedding.
	SearchDense(ctx context.Context, tenantId uuid.UUID, embedding []float32, limit int) ([]*entity.ScoredChunk, error)

	// SearchSparse ranks by lexical full-text relevance of the content.
	SearchSparse(ctx context.Context, tenantId uuid.UUID, query string, limit int) ([]*entity.ScoredChunk, error)

	// FindByFile returns stored chunks for one file, scalar filter only.
	FindByFile(ctx context.Context, tenantId uuid.UUID, fileId uuid.UUID, limit int) ([]*entity.Chunk, error)

	DeleteByFileId(ctx context.Context, tenantId uuid.UUID, fileId uuid.UUID) error
	Count(ctx context.Context, tenantId uuid.UUID) (int64, error)

	// EnsureSchema creates the chunks table and its vector/full-text indexes
	// if they do not exist yet.
	EnsureSchema(ctx context.Context) error
}
