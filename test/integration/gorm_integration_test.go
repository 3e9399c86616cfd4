package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/repository/specification"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func connectOrSkip(t *testing.T) unitofwork.UnitOfWork {
	t.Helper()

	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	sqlDB, _ := gormDB.DB()
	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	return uowFactory.NewUnitOfWork(context.Background())
}

func TestGormConnection(t *testing.T) {
	uow := connectOrSkip(t)

	// Verify wiring
	assert.NotNil(t, uow.ThreadRepository())
	assert.NotNil(t, uow.ChatMessageRepository())
	assert.NotNil(t, uow.ChunkRepository())
	assert.NotNil(t, uow.FileRepository())
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Thread Repository", func(t *testing.T) {
		count, err := uow.ThreadRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Thread count: %d", count)
	})

	t.Run("Check Chunk Schema", func(t *testing.T) {
		err := uow.ChunkRepository().EnsureSchema(context.Background())
		assert.NoError(t, err)
	})
}

func TestThreadLifecycle(t *testing.T) {
	uow := connectOrSkip(t)
	ctx := context.Background()
	tenantId := uuid.New()

	thread := &entity.Thread{
		Id:       uuid.New(),
		TenantId: tenantId,
		Title:    "integration thread",
	}
	assert.NoError(t, uow.ThreadRepository().Upsert(ctx, thread))

	// Second upsert must keep the title
	thread2 := &entity.Thread{
		Id:       thread.Id,
		TenantId: tenantId,
		Title:    "should not replace",
	}
	assert.NoError(t, uow.ThreadRepository().Upsert(ctx, thread2))

	found, err := uow.ThreadRepository().FindOne(ctx, specification.ByID{ID: thread.Id})
	assert.NoError(t, err)
	if assert.NotNil(t, found) {
		assert.Equal(t, "integration thread", found.Title)
	}

	t.Run("Message Sequence", func(t *testing.T) {
		repo := uow.ChatMessageRepository()

		seq, err := repo.MaxSeq(ctx, thread.Id)
		assert.NoError(t, err)
		assert.Equal(t, -1, seq)

		msgs := []*entity.ChatMessage{
			{Id: uuid.New(), ThreadId: thread.Id, Role: "user", Content: "hello", Seq: 0},
			{Id: uuid.New(), ThreadId: thread.Id, Role: "assistant", Content: "hi there", Seq: 1},
		}
		assert.NoError(t, repo.CreateBulk(ctx, msgs))

		seq, err = repo.MaxSeq(ctx, thread.Id)
		assert.NoError(t, err)
		assert.Equal(t, 1, seq)

		loaded, err := repo.FindAll(ctx, specification.ByThread{ThreadId: thread.Id}, specification.BySeqOrder{})
		assert.NoError(t, err)
		if assert.Len(t, loaded, 2) {
			assert.Equal(t, "user", loaded[0].Role)
			assert.Equal(t, "assistant", loaded[1].Role)
		}
	})

	// Cleanup
	assert.NoError(t, uow.ChatMessageRepository().DeleteByThreadId(ctx, thread.Id))
	assert.NoError(t, uow.ThreadRepository().Delete(ctx, thread.Id))
}

func TestChunkSearch(t *testing.T) {
	uow := connectOrSkip(t)
	ctx := context.Background()

	repo := uow.ChunkRepository()
	assert.NoError(t, repo.EnsureSchema(ctx))

	tenantId := uuid.New()
	fileId := uuid.New()

	embedding := make([]float32, 768)
	for i := range embedding {
		embedding[i] = float32(i%7) / 7
	}

	chunks := []*entity.Chunk{
		{
			Id:        uuid.New(),
			Content:   "The quarterly revenue grew by twelve percent",
			Embedding: embedding,
			DocId:     0,
			Source:    "integration",
			FileId:    fileId,
			Filename:  "report.pdf",
			Type:      entity.SegmentTypeText,
			TenantId:  tenantId,
		},
	}
	assert.NoError(t, repo.CreateBulk(ctx, chunks))

	t.Run("Dense Search", func(t *testing.T) {
		results, err := repo.SearchDense(ctx, tenantId, embedding, 5)
		assert.NoError(t, err)
		if assert.NotEmpty(t, results) {
			assert.Equal(t, chunks[0].Id, results[0].Chunk.Id)
			assert.InDelta(t, 1.0, results[0].Score, 0.01)
		}
	})

	t.Run("Sparse Search", func(t *testing.T) {
		results, err := repo.SearchSparse(ctx, tenantId, "quarterly revenue", 5)
		assert.NoError(t, err)
		if assert.NotEmpty(t, results) {
			assert.Equal(t, chunks[0].Id, results[0].Chunk.Id)
		}
	})

	t.Run("Tenant Isolation", func(t *testing.T) {
		results, err := repo.SearchSparse(ctx, uuid.New(), "quarterly revenue", 5)
		assert.NoError(t, err)
		assert.Empty(t, results)
	})

	// Cleanup
	assert.NoError(t, repo.DeleteByFileId(ctx, tenantId, fileId))
}
