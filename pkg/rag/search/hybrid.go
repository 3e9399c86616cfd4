package search

import (
	"context"
	"fmt"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/contract"
	"ai-docchat-be/pkg/embedding"

	"github.com/google/uuid"
)

const (
	// DefaultTopK is the fused result count handed to the retrieval tool.
	DefaultTopK = 20
	// candidateDepth is how far each individual signal reaches before fusion.
	candidateDepth = 50
)

// HybridIndex stores chunks with dense and lexical search fields and serves
// fused similarity queries scoped to one tenant.
type HybridIndex struct {
	chunks   contract.ChunkRepository
	embedder embedding.EmbeddingProvider
	logger   logger.ILogger
}

func NewHybridIndex(chunks contract.ChunkRepository, embedder embedding.EmbeddingProvider, log logger.ILogger) *HybridIndex {
	return &HybridIndex{
		chunks:   chunks,
		embedder: embedder,
		logger:   log,
	}
}

// AddChunks embeds and bulk-loads chunks. The first insert attempt assumes
// the schema exists; on failure the schema is created and the insert retried
// once, so the common path stays a single round trip.
func (h *HybridIndex) AddChunks(ctx context.Context, chunks []*entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, c := range chunks {
		if len(c.Embedding) > 0 {
			continue
		}
		resp, err := h.embedder.Generate(ctx, c.Content, embedding.TaskDocument)
		if err != nil {
			return fmt.Errorf("embedding chunk doc_id=%d: %w", c.DocId, err)
		}
		c.Embedding = resp.Embedding.Values
	}

	if err := h.chunks.CreateBulk(ctx, chunks); err != nil {
		h.logger.Warn("hybrid_index", "bulk insert failed, ensuring schema and retrying", map[string]interface{}{
			"error": err.Error(),
			"count": len(chunks),
		})
		if schemaErr := h.chunks.EnsureSchema(ctx); schemaErr != nil {
			return fmt.Errorf("ensuring chunk schema: %w", schemaErr)
		}
		if err := h.chunks.CreateBulk(ctx, chunks); err != nil {
			return fmt.Errorf("bulk loading chunks: %w", err)
		}
	}

	h.logger.Info("hybrid_index", "chunks indexed", map[string]interface{}{
		"count": len(chunks),
	})
	return nil
}

// Query embeds the query text, runs dense and sparse searches restricted to
// the tenant, and returns the top-k fused ranking. An empty corpus yields an
// empty slice, never nil and never an error.
func (h *HybridIndex) Query(ctx context.Context, tenantId uuid.UUID, queryText string, k int) ([]*entity.ScoredChunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	resp, err := h.embedder.Generate(ctx, queryText, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	dense, err := h.chunks.SearchDense(ctx, tenantId, resp.Embedding.Values, candidateDepth)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}
	sparse, err := h.chunks.SearchSparse(ctx, tenantId, queryText, candidateDepth)
	if err != nil {
		return nil, fmt.Errorf("sparse search: %w", err)
	}

	fused := FuseRRF(dense, sparse)
	if len(fused) > k {
		fused = fused[:k]
	}
	if fused == nil {
		fused = []*entity.ScoredChunk{}
	}
	return fused, nil
}

// GetByFileId returns a file's chunks by exact scalar filter, bypassing
// vector search. Used by the chunk inspection endpoint.
func (h *HybridIndex) GetByFileId(ctx context.Context, tenantId, fileId uuid.UUID, limit int) ([]*entity.Chunk, error) {
	chunks, err := h.chunks.FindByFile(ctx, tenantId, fileId, limit)
	if err != nil {
		return nil, fmt.Errorf("chunk lookup for file %s: %w", fileId, err)
	}
	if chunks == nil {
		chunks = []*entity.Chunk{}
	}
	return chunks, nil
}
