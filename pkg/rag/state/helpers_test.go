package state

import (
	"testing"

	"ai-docchat-be/pkg/llm"

	"github.com/google/uuid"
)

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func msg(role, content string) llm.Message {
	return llm.Message{Role: role, Content: content}
}
