package history

import (
	"context"
	"fmt"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/repository/contract"
	"ai-docchat-be/internal/repository/memory"
	"ai-docchat-be/internal/repository/specification"
	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/state"

	"github.com/google/uuid"
)

// Checkpointer persists conversation state per thread. Postgres holds the
// message log; a process-local cache skips the reload for hot threads. The
// checkpoint is read at turn start and written at turn end, last writer wins.
type Checkpointer struct {
	messages contract.ChatMessageRepository
	cache    *memory.CheckpointCache
}

func NewCheckpointer(messages contract.ChatMessageRepository, cache *memory.CheckpointCache) *Checkpointer {
	return &Checkpointer{
		messages: messages,
		cache:    cache,
	}
}

// Load restores a thread's conversation. LoopStep and RewrittenQuestion
// always come back at their zero values regardless of how the previous turn
// ended.
func (c *Checkpointer) Load(ctx context.Context, threadId, tenantId uuid.UUID) (*state.Conversation, error) {
	if cached, ok := c.cache.Get(threadId.String()); ok && cached.TenantId == tenantId {
		conv := state.NewConversation(threadId, tenantId, cached.Messages)
		return conv, nil
	}

	stored, err := c.messages.FindAll(ctx,
		specification.ByThread{ThreadId: threadId},
		specification.BySeqOrder{},
	)
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint for thread %s: %w", threadId, err)
	}

	msgs := make([]llm.Message, len(stored))
	for i, m := range stored {
		msgs[i] = ToLLMMessage(m)
	}
	return state.NewConversation(threadId, tenantId, msgs), nil
}

// Save appends the turn's new messages (everything past priorLen) to the
// thread's log and refreshes the cache.
func (c *Checkpointer) Save(ctx context.Context, conv *state.Conversation, priorLen int) error {
	if priorLen > len(conv.Messages) {
		return fmt.Errorf("checkpoint shrank: prior %d, now %d", priorLen, len(conv.Messages))
	}
	fresh := conv.Messages[priorLen:]
	if len(fresh) == 0 {
		return nil
	}

	maxSeq, err := c.messages.MaxSeq(ctx, conv.ThreadId)
	if err != nil {
		return fmt.Errorf("reading thread sequence: %w", err)
	}

	records := make([]*entity.ChatMessage, len(fresh))
	for i, m := range fresh {
		records[i] = FromLLMMessage(conv.ThreadId, m, maxSeq+1+i)
	}
	if err := c.messages.CreateBulk(ctx, records); err != nil {
		c.cache.Delete(conv.ThreadId.String())
		return fmt.Errorf("saving checkpoint for thread %s: %w", conv.ThreadId, err)
	}

	c.cache.Save(conv)
	return nil
}

func ToLLMMessage(m *entity.ChatMessage) llm.Message {
	calls := make([]llm.ToolCall, len(m.ToolCalls))
	for i, tc := range m.ToolCalls {
		calls[i] = llm.ToolCall{Id: tc.Id, Name: tc.Name, Args: tc.Args}
	}
	if len(calls) == 0 {
		calls = nil
	}
	return llm.Message{
		Role:       m.Role,
		Content:    m.Content,
		Reasoning:  m.Reasoning,
		ToolCalls:  calls,
		ToolCallId: m.ToolCallId,
	}
}

func FromLLMMessage(threadId uuid.UUID, m llm.Message, seq int) *entity.ChatMessage {
	calls := make([]entity.MessageToolCall, len(m.ToolCalls))
	for i, tc := range m.ToolCalls {
		calls[i] = entity.MessageToolCall{Id: tc.Id, Name: tc.Name, Args: tc.Args}
	}
	if len(calls) == 0 {
		calls = nil
	}
	return &entity.ChatMessage{
		ThreadId:   threadId,
		Role:       m.Role,
		Content:    m.Content,
		Reasoning:  m.Reasoning,
		ToolCalls:  calls,
		ToolCallId: m.ToolCallId,
		Seq:        seq,
	}
}
