package service

import (
	"context"
	"fmt"
	"io"

	"ai-docchat-be/internal/constant"
	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/internal/repository/memory"
	"ai-docchat-be/internal/repository/specification"
	"ai-docchat-be/internal/repository/unitofwork"
	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/grade"
	"ai-docchat-be/pkg/rag/history"
	"ai-docchat-be/pkg/rag/loop"
	"ai-docchat-be/pkg/rag/retrieve"
	"ai-docchat-be/pkg/rag/rewrite"
	"ai-docchat-be/pkg/rag/search"
	"ai-docchat-be/pkg/rag/stream"

	"github.com/google/uuid"
)

type IChatService interface {
	// StreamChat runs one conversational turn and writes the line protocol
	// to w. Transport failures end the stream; they are not returned.
	StreamChat(ctx context.Context, tenantId uuid.UUID, request *dto.ChatStreamRequest, w io.Writer)

	GetThreads(ctx context.Context, tenantId uuid.UUID) ([]*dto.ThreadResponse, error)
	GetThreadHistory(ctx context.Context, tenantId, threadId uuid.UUID) (*dto.ThreadHistoryResponse, error)
	DeleteThread(ctx context.Context, tenantId, threadId uuid.UUID) error
}

type chatService struct {
	uowFactory   unitofwork.RepositoryFactory
	controller   *loop.Controller
	checkpointer *history.Checkpointer
	logger       logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.Provider,
	index *search.HybridIndex,
	cache *memory.CheckpointCache,
	chatModel, utilityModel string,
	retrievalTopK int,
	log logger.ILogger,
) IChatService {
	tool := retrieve.NewTool(index, retrievalTopK)
	grader := grade.NewGrader(llmProvider, utilityModel)
	rewriter := rewrite.NewRewriter(llmProvider, utilityModel)
	controller := loop.NewController(llmProvider, tool, grader, rewriter, chatModel, log)

	uow := uowFactory.NewUnitOfWork(context.Background())
	checkpointer := history.NewCheckpointer(uow.ChatMessageRepository(), cache)

	return &chatService{
		uowFactory:   uowFactory,
		controller:   controller,
		checkpointer: checkpointer,
		logger:       log,
	}
}

func (cs *chatService) StreamChat(ctx context.Context, tenantId uuid.UUID, request *dto.ChatStreamRequest, w io.Writer) {
	translator := stream.NewTranslator(w)

	if err := cs.runTurn(ctx, tenantId, request, translator); err != nil {
		cs.logger.Error("chat_service", "turn failed", map[string]interface{}{
			"thread_id": request.ThreadId.String(),
			"error":     err.Error(),
		})
		_ = translator.CloseThinking()
		translator.Fail(err)
	}
}

func (cs *chatService) runTurn(ctx context.Context, tenantId uuid.UUID, request *dto.ChatStreamRequest, translator *stream.Translator) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if err := cs.touchThread(ctx, uow, tenantId, request); err != nil {
		return err
	}

	conv, err := cs.checkpointer.Load(ctx, request.ThreadId, tenantId)
	if err != nil {
		return err
	}

	priorLen := len(conv.Messages)
	conv.Append(llm.Message{Role: constant.ChatMessageRoleUser, Content: request.Query})

	if err := cs.controller.RunTurn(ctx, conv, translator.Translate); err != nil {
		// Nothing past what already streamed is committed
		return err
	}
	if err := translator.CloseThinking(); err != nil {
		return err
	}

	if err := cs.checkpointer.Save(ctx, conv, priorLen); err != nil {
		// The answer already streamed; losing the checkpoint only affects
		// the next turn's context.
		cs.logger.Error("chat_service", "checkpoint save failed", map[string]interface{}{
			"thread_id": conv.ThreadId.String(),
			"error":     err.Error(),
		})
	}
	return nil
}

// touchThread creates the thread on its first message (title derived from
// the question) or bumps updated_at on later turns. A thread id owned by a
// different tenant is rejected.
func (cs *chatService) touchThread(ctx context.Context, uow unitofwork.UnitOfWork, tenantId uuid.UUID, request *dto.ChatStreamRequest) error {
	threads := uow.ThreadRepository()

	existing, err := threads.FindOne(ctx, specification.ByID{ID: request.ThreadId})
	if err != nil {
		return fmt.Errorf("looking up thread: %w", err)
	}
	if existing != nil && existing.TenantId != tenantId {
		return fmt.Errorf("thread %s does not belong to this tenant", request.ThreadId)
	}

	thread := &entity.Thread{
		Id:       request.ThreadId,
		TenantId: tenantId,
		Title:    deriveTitle(request.Query),
	}
	if err := threads.Upsert(ctx, thread); err != nil {
		return fmt.Errorf("upserting thread: %w", err)
	}
	return nil
}

func deriveTitle(query string) string {
	runes := []rune(query)
	if len(runes) <= constant.ThreadTitleLimit {
		return query
	}
	return string(runes[:constant.ThreadTitleLimit]) + "..."
}

func (cs *chatService) GetThreads(ctx context.Context, tenantId uuid.UUID) ([]*dto.ThreadResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	threads, err := uow.ThreadRepository().FindAll(ctx,
		specification.ByTenant{TenantId: tenantId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}

	out := make([]*dto.ThreadResponse, len(threads))
	for i, t := range threads {
		out[i] = &dto.ThreadResponse{
			Id:        t.Id,
			Title:     t.Title,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		}
	}
	return out, nil
}

func (cs *chatService) GetThreadHistory(ctx context.Context, tenantId, threadId uuid.UUID) (*dto.ThreadHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	thread, err := uow.ThreadRepository().FindOne(ctx,
		specification.ByID{ID: threadId},
		specification.ByTenant{TenantId: tenantId},
	)
	if err != nil {
		return nil, fmt.Errorf("looking up thread: %w", err)
	}
	if thread == nil {
		return nil, fmt.Errorf("thread %s not found", threadId)
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByThread{ThreadId: threadId},
		specification.BySeqOrder{},
	)
	if err != nil {
		return nil, fmt.Errorf("loading thread messages: %w", err)
	}

	resp := &dto.ThreadHistoryResponse{
		Thread: dto.ThreadResponse{
			Id:        thread.Id,
			Title:     thread.Title,
			CreatedAt: thread.CreatedAt,
			UpdatedAt: thread.UpdatedAt,
		},
		Messages: make([]dto.ChatMessageResponse, 0, len(messages)),
	}
	for _, m := range messages {
		// Tool messages are plumbing; the client sees tool activity through
		// the live stream, not the history.
		if m.Role == constant.ChatMessageRoleTool {
			continue
		}
		msg := dto.ChatMessageResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			Reasoning: m.Reasoning,
			Seq:       m.Seq,
			CreatedAt: m.CreatedAt,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, dto.ToolCallResponse{
				Id:   tc.Id,
				Name: tc.Name,
				Args: string(tc.Args),
			})
		}
		resp.Messages = append(resp.Messages, msg)
	}
	return resp, nil
}

func (cs *chatService) DeleteThread(ctx context.Context, tenantId, threadId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	thread, err := uow.ThreadRepository().FindOne(ctx,
		specification.ByID{ID: threadId},
		specification.ByTenant{TenantId: tenantId},
	)
	if err != nil {
		return fmt.Errorf("looking up thread: %w", err)
	}
	if thread == nil {
		return fmt.Errorf("thread %s not found", threadId)
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteByThreadId(ctx, threadId); err != nil {
		_ = uow.Rollback()
		return fmt.Errorf("deleting thread messages: %w", err)
	}
	if err := uow.ThreadRepository().Delete(ctx, threadId); err != nil {
		_ = uow.Rollback()
		return fmt.Errorf("deleting thread: %w", err)
	}
	return uow.Commit()
}
