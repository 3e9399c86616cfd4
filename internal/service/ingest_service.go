package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"ai-docchat-be/internal/constant"
	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/specification"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/rag/search"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// allowedExtensions mirrors the conversion pipeline's supported inputs;
// anything else is rejected before a status record is created.
var allowedExtensions = map[string]bool{
	".pdf": true,
	".png": true, ".jpg": true, ".jpeg": true, ".tiff": true, ".bmp": true,
	".docx": true,
	".html": true, ".htm": true,
	".pptx":     true,
	".asciidoc": true, ".adoc": true,
	".csv": true,
	".md":  true, ".markdown": true,
}

type IIngestService interface {
	// Ingest validates the batch, records pending status rows, and queues
	// the batch for background chunking and indexing.
	Ingest(ctx context.Context, tenantId uuid.UUID, request *dto.IngestRequest) (*dto.IngestAcceptedResponse, error)

	GetFiles(ctx context.Context, tenantId uuid.UUID) ([]*dto.FileStatusResponse, error)
	GetFileStatus(ctx context.Context, tenantId, fileId uuid.UUID) (*dto.FileStatusResponse, error)
	GetFileChunks(ctx context.Context, tenantId, fileId uuid.UUID, limit int) ([]*dto.ChunkRecordResponse, error)
	DeleteFile(ctx context.Context, tenantId, fileId uuid.UUID) error
}

type ingestService struct {
	uowFactory unitofwork.RepositoryFactory
	pubSub     *gochannel.GoChannel
	index      *search.HybridIndex
	logger     logger.ILogger
}

func NewIngestService(
	uowFactory unitofwork.RepositoryFactory,
	pubSub *gochannel.GoChannel,
	index *search.HybridIndex,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		uowFactory: uowFactory,
		pubSub:     pubSub,
		index:      index,
		logger:     log,
	}
}

func ValidateFilename(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("file type %q not supported", ext)
	}
	return nil
}

func (is *ingestService) Ingest(ctx context.Context, tenantId uuid.UUID, request *dto.IngestRequest) (*dto.IngestAcceptedResponse, error) {
	for _, f := range request.Files {
		if err := ValidateFilename(f.Filename); err != nil {
			return nil, err
		}
	}

	uow := is.uowFactory.NewUnitOfWork(ctx)
	files := uow.FileRepository()

	batchId := uuid.New()
	resp := &dto.IngestAcceptedResponse{BatchId: batchId}
	job := dto.IngestBatchMessage{BatchId: batchId, TenantId: tenantId}

	for _, f := range request.Files {
		record := &entity.FileRecord{
			Id:       uuid.New(),
			TenantId: tenantId,
			Filename: f.Filename,
			Source:   f.Source,
			Status:   entity.FileStatusPending,
		}
		if err := files.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("recording file %s: %w", f.Filename, err)
		}

		resp.Files = append(resp.Files, fileStatusResponse(record))
		job.Files = append(job.Files, dto.IngestFileDetail{
			FileId:   record.Id,
			Filename: f.Filename,
			Source:   f.Source,
			Segments: f.Segments,
		})
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encoding ingestion job: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := is.pubSub.Publish(constant.IngestionQueueTopic, msg); err != nil {
		return nil, fmt.Errorf("queueing ingestion batch: %w", err)
	}

	is.logger.Info("ingest_service", "batch queued", map[string]interface{}{
		"batch_id": batchId.String(),
		"files":    len(job.Files),
	})
	return resp, nil
}

func (is *ingestService) GetFiles(ctx context.Context, tenantId uuid.UUID) ([]*dto.FileStatusResponse, error) {
	uow := is.uowFactory.NewUnitOfWork(ctx)

	records, err := uow.FileRepository().FindAll(ctx,
		specification.ByTenant{TenantId: tenantId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	out := make([]*dto.FileStatusResponse, len(records))
	for i, r := range records {
		resp := fileStatusResponse(r)
		out[i] = &resp
	}
	return out, nil
}

func (is *ingestService) GetFileStatus(ctx context.Context, tenantId, fileId uuid.UUID) (*dto.FileStatusResponse, error) {
	record, err := is.findFile(ctx, tenantId, fileId)
	if err != nil {
		return nil, err
	}
	resp := fileStatusResponse(record)
	return &resp, nil
}

func (is *ingestService) GetFileChunks(ctx context.Context, tenantId, fileId uuid.UUID, limit int) ([]*dto.ChunkRecordResponse, error) {
	if _, err := is.findFile(ctx, tenantId, fileId); err != nil {
		return nil, err
	}

	chunks, err := is.index.GetByFileId(ctx, tenantId, fileId, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ChunkRecordResponse, len(chunks))
	for i, c := range chunks {
		out[i] = &dto.ChunkRecordResponse{
			Id:        c.Id,
			DocId:     c.DocId,
			Content:   c.Content,
			Type:      c.Type,
			SplitPart: c.SplitPart,
			Filename:  c.Filename,
			Ref:       c.Ref,
			Page:      c.Page,
			CreatedAt: c.CreatedAt,
		}
	}
	return out, nil
}

func (is *ingestService) DeleteFile(ctx context.Context, tenantId, fileId uuid.UUID) error {
	if _, err := is.findFile(ctx, tenantId, fileId); err != nil {
		return err
	}

	uow := is.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := uow.ChunkRepository().DeleteByFileId(ctx, tenantId, fileId); err != nil {
		_ = uow.Rollback()
		return fmt.Errorf("deleting file chunks: %w", err)
	}
	if err := uow.FileRepository().Delete(ctx, fileId); err != nil {
		_ = uow.Rollback()
		return fmt.Errorf("deleting file record: %w", err)
	}
	return uow.Commit()
}

func (is *ingestService) findFile(ctx context.Context, tenantId, fileId uuid.UUID) (*entity.FileRecord, error) {
	uow := is.uowFactory.NewUnitOfWork(ctx)
	record, err := uow.FileRepository().FindOne(ctx,
		specification.ByID{ID: fileId},
		specification.ByTenant{TenantId: tenantId},
	)
	if err != nil {
		return nil, fmt.Errorf("looking up file: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("file %s not found", fileId)
	}
	return record, nil
}

func fileStatusResponse(r *entity.FileRecord) dto.FileStatusResponse {
	return dto.FileStatusResponse{
		Id:         r.Id,
		Filename:   r.Filename,
		Status:     r.Status,
		Error:      r.Error,
		ChunkCount: r.ChunkCount,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
