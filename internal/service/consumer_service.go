package service

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-docchat-be/internal/constant"
	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/contract"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/events"
	"ai-docchat-be/pkg/nats"
	"ai-docchat-be/pkg/rag/chunker"
	"ai-docchat-be/pkg/rag/search"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the ingestion queue: for each batch it reshapes the
// segments into chunks, assigns batch-monotonic doc ids, and bulk-loads the
// whole batch into the index with one call. Per-file failures are recorded
// on that file's status row and never abort siblings.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	uowFactory unitofwork.RepositoryFactory
	index      *search.HybridIndex
	optimizer  *chunker.Optimizer
	publisher  *nats.Publisher
	logger     logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	uowFactory unitofwork.RepositoryFactory,
	index *search.HybridIndex,
	publisher *nats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		uowFactory: uowFactory,
		index:      index,
		optimizer:  chunker.NewOptimizer(),
		publisher:  publisher,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, constant.IngestionQueueTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var batch dto.IngestBatchMessage
	if err := json.Unmarshal(msg.Payload, &batch); err != nil {
		cs.logger.Error("consumer_service", "malformed batch message", map[string]interface{}{"error": err.Error()})
		// Ack: a payload that cannot parse will never parse
		msg.Ack()
		return
	}

	cs.logger.Info("consumer_service", "processing batch", map[string]interface{}{
		"batch_id": batch.BatchId.String(),
		"files":    len(batch.Files),
	})

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	files := uow.FileRepository()

	var batchChunks []*entity.Chunk
	chunkCounts := make(map[uuid.UUID]int)
	var succeeded []dto.IngestFileDetail

	// doc_id is monotonic across the whole batch
	docId := int64(0)

	for _, file := range batch.Files {
		cs.setStatus(ctx, files, batch.TenantId, file, entity.FileStatusProcessing, "", 0)

		chunks, next, err := cs.buildChunks(batch.TenantId, file, docId)
		if err != nil {
			cs.logger.Error("consumer_service", "file preparation failed", map[string]interface{}{
				"file_id": file.FileId.String(),
				"error":   err.Error(),
			})
			cs.setStatus(ctx, files, batch.TenantId, file, entity.FileStatusFailed, err.Error(), 0)
			continue
		}

		docId = next
		batchChunks = append(batchChunks, chunks...)
		chunkCounts[file.FileId] = len(chunks)
		succeeded = append(succeeded, file)
	}

	if len(batchChunks) > 0 {
		if err := cs.index.AddChunks(ctx, batchChunks); err != nil {
			cs.logger.Error("consumer_service", "batch indexing failed", map[string]interface{}{
				"batch_id": batch.BatchId.String(),
				"error":    err.Error(),
			})
			for _, file := range succeeded {
				cs.setStatus(ctx, files, batch.TenantId, file, entity.FileStatusFailed, err.Error(), 0)
			}
			msg.Nack()
			return
		}
	}

	for _, file := range succeeded {
		cs.setStatus(ctx, files, batch.TenantId, file, entity.FileStatusCompleted, "", chunkCounts[file.FileId])
	}
	msg.Ack()
}

func (cs *consumerService) buildChunks(tenantId uuid.UUID, file dto.IngestFileDetail, docId int64) ([]*entity.Chunk, int64, error) {
	if len(file.Segments) == 0 {
		return nil, docId, fmt.Errorf("file %s has no segments", file.Filename)
	}

	segments := make([]chunker.Segment, len(file.Segments))
	for i, s := range file.Segments {
		segments[i] = chunker.Segment{
			Content: s.Content,
			Type:    s.Type,
			Ref:     s.Ref,
			Page:    s.Page,
		}
	}

	pieces := cs.optimizer.Optimize(segments)
	chunks := make([]*entity.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = &entity.Chunk{
			Id:        uuid.New(),
			Content:   p.Content,
			DocId:     docId,
			Source:    file.Source,
			FileId:    file.FileId,
			Filename:  file.Filename,
			Ref:       p.Ref,
			Type:      p.Type,
			Page:      p.Page,
			TenantId:  tenantId,
			SplitPart: p.SplitPart,
		}
		docId++
	}
	return chunks, docId, nil
}

// setStatus updates the file's status row and publishes the change on the
// event bus so connected clients see progress live.
func (cs *consumerService) setStatus(ctx context.Context, files contract.FileRepository, tenantId uuid.UUID, file dto.IngestFileDetail, status, errMsg string, chunkCount int) {
	if err := files.SetStatus(ctx, file.FileId, status, errMsg, chunkCount); err != nil {
		cs.logger.Error("consumer_service", "status update failed", map[string]interface{}{
			"file_id": file.FileId.String(),
			"error":   err.Error(),
		})
	}

	if cs.publisher == nil {
		return
	}
	event := events.NewFileStatusEvent(tenantId.String(), file.FileId.String(), file.Filename, status, errMsg, chunkCount)
	if err := cs.publisher.Publish(ctx, event); err != nil {
		cs.logger.Warn("consumer_service", "status event publish failed", map[string]interface{}{
			"file_id": file.FileId.String(),
			"error":   err.Error(),
		})
	}
}
