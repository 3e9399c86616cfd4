package contract

import (
	"context"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type FileRepository interface {
	Create(ctx context.Context, file *entity.FileRecord) error
	Update(ctx context.Context, file *entity.FileRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FileRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FileRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SetStatus updates only the status/error/chunk-count columns.
	SetStatus(ctx context.Context, id uuid.UUID, status, errMsg string, chunkCount int) error
}
