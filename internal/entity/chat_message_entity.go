package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageToolCall is a tool invocation recorded on an assistant message.
type MessageToolCall struct {
	Id   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

type ChatMessage struct {
	Id         uuid.UUID
	ThreadId   uuid.UUID
	Role       string
	Content    string
	Reasoning  string
	ToolCalls  []MessageToolCall
	ToolCallId string
	Seq        int // ordering within the thread
	CreatedAt  time.Time
}
