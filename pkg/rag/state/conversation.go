package state

import (
	"github.com/google/uuid"

	"ai-docchat-be/pkg/llm"
)

// Conversation is the per-turn mutable state. Messages carry across turns
// via the thread checkpoint; RewrittenQuestion and LoopStep start at their
// zero values on every new turn.
type Conversation struct {
	ThreadId uuid.UUID
	TenantId uuid.UUID

	Messages          []llm.Message
	RewrittenQuestion string
	LoopStep          int
}

func NewConversation(threadId, tenantId uuid.UUID, history []llm.Message) *Conversation {
	return &Conversation{
		ThreadId: threadId,
		TenantId: tenantId,
		Messages: history,
	}
}

func (c *Conversation) Append(msgs ...llm.Message) {
	c.Messages = append(c.Messages, msgs...)
}

// LatestQuestion returns the most recent user-role message. This is always
// the canonical question for grading and rewriting; the rewritten question
// only ever drives retrieval.
func (c *Conversation) LatestQuestion() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == "user" {
			return c.Messages[i].Content
		}
	}
	return ""
}

// LatestToolContent returns the most recent tool-role message content, i.e.
// the context produced by the last retrieval.
func (c *Conversation) LatestToolContent() (string, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == "tool" {
			return c.Messages[i].Content, true
		}
	}
	return "", false
}
