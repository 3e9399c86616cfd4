package implementation

import (
	"context"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/mapper"
	"ai-docchat-be/internal/model"
	"ai-docchat-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkMapper
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkMapper(),
	}
}

func (r *ChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.Chunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}
	if err := r.db.WithContext(ctx).CreateInBatches(models, 200).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

type scoredChunkRow struct {
	model.Chunk
	Score float64
}

func (r *ChunkRepositoryImpl) SearchDense(ctx context.Context, tenantId uuid.UUID, embedding []float32, limit int) ([]*entity.ScoredChunk, error) {
	var rows []scoredChunkRow

	vec := pgvector.NewVector(embedding)
	err := r.db.WithContext(ctx).
		Raw(`
			SELECT *, 1 - (embedding <=> ?) AS score
			FROM chunks
			WHERE tenant_id = ?
			ORDER BY embedding <=> ?
			LIMIT ?
		`, vec, tenantId, vec, limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return r.toScoredEntities(rows), nil
}

func (r *ChunkRepositoryImpl) SearchSparse(ctx context.Context, tenantId uuid.UUID, query string, limit int) ([]*entity.ScoredChunk, error) {
	var rows []scoredChunkRow

	err := r.db.WithContext(ctx).
		Raw(`
			SELECT *, ts_rank(to_tsvector('english', content), plainto_tsquery('english', ?)) AS score
			FROM chunks
			WHERE tenant_id = ?
			  AND to_tsvector('english', content) @@ plainto_tsquery('english', ?)
			ORDER BY score DESC
			LIMIT ?
		`, query, tenantId, query, limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return r.toScoredEntities(rows), nil
}

func (r *ChunkRepositoryImpl) toScoredEntities(rows []scoredChunkRow) []*entity.ScoredChunk {
	scored := make([]*entity.ScoredChunk, len(rows))
	for i := range rows {
		scored[i] = &entity.ScoredChunk{
			Chunk: r.mapper.ToEntity(&rows[i].Chunk),
			Score: rows[i].Score,
		}
	}
	return scored
}

func (r *ChunkRepositoryImpl) FindByFile(ctx context.Context, tenantId uuid.UUID, fileId uuid.UUID, limit int) ([]*entity.Chunk, error) {
	var models []*model.Chunk
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND file_id = ?", tenantId, fileId).
		Order("doc_id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Chunk, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *ChunkRepositoryImpl) DeleteByFileId(ctx context.Context, tenantId uuid.UUID, fileId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND file_id = ?", tenantId, fileId).
		Delete(&model.Chunk{}).Error
}

func (r *ChunkRepositoryImpl) Count(ctx context.Context, tenantId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Chunk{}).
		Where("tenant_id = ?", tenantId).
		Count(&count).Error
	return count, err
}

func (r *ChunkRepositoryImpl) EnsureSchema(ctx context.Context) error {
	db := r.db.WithContext(ctx)

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`).Error; err != nil {
		return err
	}
	if err := db.AutoMigrate(&model.Chunk{}); err != nil {
		return err
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_chunks_embedding_hnsw
		ON chunks USING hnsw (embedding vector_cosine_ops)
		WITH (m = 16, ef_construction = 500)
	`).Error; err != nil {
		return err
	}
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_chunks_content_fts
		ON chunks USING gin (to_tsvector('english', content))
	`).Error
}
