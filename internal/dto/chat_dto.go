package dto

import (
	"time"

	"github.com/google/uuid"
)

type ChatStreamRequest struct {
	ThreadId uuid.UUID `json:"thread_id" validate:"required"`
	Query    string    `json:"query" validate:"required"`
}

type ThreadResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID          `json:"id"`
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	Reasoning string             `json:"reasoning,omitempty"`
	ToolCalls []ToolCallResponse `json:"tool_calls,omitempty"`
	Seq       int                `json:"seq"`
	CreatedAt time.Time          `json:"created_at"`
}

type ToolCallResponse struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args"`
}

type ThreadHistoryResponse struct {
	Thread   ThreadResponse        `json:"thread"`
	Messages []ChatMessageResponse `json:"messages"`
}
