package history

import (
	"context"
	"testing"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/repository/memory"
	"ai-docchat-be/internal/repository/specification"
	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/rag/state"

	"github.com/google/uuid"
)

type fakeMessageRepo struct {
	byThread map[uuid.UUID][]*entity.ChatMessage
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{byThread: make(map[uuid.UUID][]*entity.ChatMessage)}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.byThread[message.ThreadId] = append(r.byThread[message.ThreadId], message)
	return nil
}

func (r *fakeMessageRepo) CreateBulk(ctx context.Context, messages []*entity.ChatMessage) error {
	for _, m := range messages {
		r.byThread[m.ThreadId] = append(r.byThread[m.ThreadId], m)
	}
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	for _, s := range specs {
		if byThread, ok := s.(specification.ByThread); ok {
			return r.byThread[byThread.ThreadId], nil
		}
	}
	return nil, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

func (r *fakeMessageRepo) DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error {
	delete(r.byThread, threadId)
	return nil
}

func (r *fakeMessageRepo) MaxSeq(ctx context.Context, threadId uuid.UUID) (int, error) {
	max := -1
	for _, m := range r.byThread[threadId] {
		if m.Seq > max {
			max = m.Seq
		}
	}
	return max, nil
}

func TestCheckpointRoundTrip(t *testing.T) {
	repo := newFakeMessageRepo()
	cp := NewCheckpointer(repo, memory.NewCheckpointCache())
	threadId, tenantId := uuid.New(), uuid.New()
	ctx := context.Background()

	conv, err := cp.Load(ctx, threadId, tenantId)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(conv.Messages) != 0 {
		t.Fatalf("fresh thread has %d messages", len(conv.Messages))
	}

	conv.Append(
		llm.Message{Role: "user", Content: "question"},
		llm.Message{Role: "assistant", Content: "answer", Reasoning: "thought"},
	)
	if err := cp.Save(ctx, conv, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}

	stored := repo.byThread[threadId]
	if len(stored) != 2 {
		t.Fatalf("stored %d messages, want 2", len(stored))
	}
	if stored[0].Seq != 0 || stored[1].Seq != 1 {
		t.Errorf("seqs = %d,%d, want 0,1", stored[0].Seq, stored[1].Seq)
	}
	if stored[1].Reasoning != "thought" {
		t.Error("reasoning channel lost on save")
	}

	// Second turn resumes with the history and appends with continuing seqs.
	conv2, err := cp.Load(ctx, threadId, tenantId)
	if err != nil {
		t.Fatalf("Load again: %v", err)
	}
	if len(conv2.Messages) != 2 {
		t.Fatalf("resumed with %d messages, want 2", len(conv2.Messages))
	}
	if conv2.LoopStep != 0 || conv2.RewrittenQuestion != "" {
		t.Error("turn-scoped fields not reset on load")
	}

	prior := len(conv2.Messages)
	conv2.Append(llm.Message{Role: "user", Content: "follow-up"})
	if err := cp.Save(ctx, conv2, prior); err != nil {
		t.Fatalf("Save follow-up: %v", err)
	}
	if got := repo.byThread[threadId][2].Seq; got != 2 {
		t.Errorf("follow-up seq = %d, want 2", got)
	}
}

func TestCheckpointPreservesToolCalls(t *testing.T) {
	repo := newFakeMessageRepo()
	cp := NewCheckpointer(repo, memory.NewCheckpointCache())
	threadId, tenantId := uuid.New(), uuid.New()
	ctx := context.Background()

	conv := state.NewConversation(threadId, tenantId, nil)
	conv.Append(
		llm.Message{Role: "assistant", ToolCalls: []llm.ToolCall{
			{Id: "call_1", Name: "search_documents", Args: []byte(`{"query":"q"}`)},
		}},
		llm.Message{Role: "tool", Content: "ctx", ToolCallId: "call_1"},
	)
	if err := cp.Save(ctx, conv, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Bypass the cache to force the Postgres path.
	cp2 := NewCheckpointer(repo, memory.NewCheckpointCache())
	loaded, err := cp2.Load(ctx, threadId, tenantId)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("loaded %d messages", len(loaded.Messages))
	}
	calls := loaded.Messages[0].ToolCalls
	if len(calls) != 1 || calls[0].Name != "search_documents" || calls[0].Id != "call_1" {
		t.Errorf("tool calls = %+v", calls)
	}
	if loaded.Messages[1].ToolCallId != "call_1" {
		t.Error("tool call id lost on the tool message")
	}
}

func TestCheckpointSaveNothingNew(t *testing.T) {
	repo := newFakeMessageRepo()
	cp := NewCheckpointer(repo, memory.NewCheckpointCache())

	conv := state.NewConversation(uuid.New(), uuid.New(), []llm.Message{
		{Role: "user", Content: "old"},
	})
	if err := cp.Save(context.Background(), conv, 1); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(repo.byThread[conv.ThreadId]) != 0 {
		t.Error("no-op save wrote messages")
	}
}
