package mapper

import (
	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type ChunkMapper struct{}

func NewChunkMapper() *ChunkMapper {
	return &ChunkMapper{}
}

func (m *ChunkMapper) ToEntity(c *model.Chunk) *entity.Chunk {
	if c == nil {
		return nil
	}

	return &entity.Chunk{
		Id:        c.Id,
		Content:   c.Content,
		Embedding: c.Embedding.Slice(),
		DocId:     c.DocId,
		Source:    c.Source,
		FileId:    c.FileId,
		Filename:  c.Filename,
		Ref:       c.Ref,
		Type:      c.Type,
		Page:      c.Page,
		TenantId:  c.TenantId,
		SplitPart: c.SplitPart,
		CreatedAt: c.CreatedAt,
	}
}

func (m *ChunkMapper) ToModel(c *entity.Chunk) *model.Chunk {
	if c == nil {
		return nil
	}

	return &model.Chunk{
		Id:        c.Id,
		Content:   c.Content,
		Embedding: pgvector.NewVector(c.Embedding),
		DocId:     c.DocId,
		Source:    c.Source,
		FileId:    c.FileId,
		Filename:  c.Filename,
		Ref:       c.Ref,
		Type:      c.Type,
		Page:      c.Page,
		TenantId:  c.TenantId,
		SplitPart: c.SplitPart,
		CreatedAt: c.CreatedAt,
	}
}
