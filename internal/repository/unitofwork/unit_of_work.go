package unitofwork

import (
	"context"

	"ai-docchat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ThreadRepository() contract.ThreadRepository
	ChatMessageRepository() contract.ChatMessageRepository
	ChunkRepository() contract.ChunkRepository
	FileRepository() contract.FileRepository
}
