package mapper

import (
	"testing"
	"time"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func TestChatMessageMapperRoundTrip(t *testing.T) {
	m := NewChatMessageMapper()

	msg := &entity.ChatMessage{
		Id:       uuid.New(),
		ThreadId: uuid.New(),
		Role:     "assistant",
		Content:  "checking the documents",
		ToolCalls: []entity.MessageToolCall{
			{Id: "call_1", Name: "search_documents", Args: []byte(`{"query":"revenue"}`)},
		},
		Seq:       3,
		CreatedAt: time.Now(),
	}

	row, err := m.ToModel(msg)
	if err != nil {
		t.Fatalf("ToModel: %v", err)
	}
	if len(row.ToolCalls) == 0 {
		t.Fatal("tool calls not serialized")
	}

	back, err := m.ToEntity(row)
	if err != nil {
		t.Fatalf("ToEntity: %v", err)
	}
	if back.Id != msg.Id || back.Seq != msg.Seq || back.Role != msg.Role {
		t.Errorf("round trip changed fields: %+v", back)
	}
	if len(back.ToolCalls) != 1 || back.ToolCalls[0].Name != "search_documents" {
		t.Errorf("tool calls = %+v", back.ToolCalls)
	}
	if string(back.ToolCalls[0].Args) != `{"query":"revenue"}` {
		t.Errorf("tool call args = %s", back.ToolCalls[0].Args)
	}
}

func TestChatMessageMapperCorruptToolCalls(t *testing.T) {
	m := NewChatMessageMapper()

	row := &model.ChatMessage{
		Id:        uuid.New(),
		ThreadId:  uuid.New(),
		Role:      "assistant",
		ToolCalls: datatypes.JSON(`{not json`),
	}

	if _, err := m.ToEntity(row); err == nil {
		t.Error("expected error for corrupt tool call column")
	}
}

func TestChatMessageMapperNil(t *testing.T) {
	m := NewChatMessageMapper()

	if e, err := m.ToEntity(nil); e != nil || err != nil {
		t.Errorf("ToEntity(nil) = %v, %v", e, err)
	}
	if r, err := m.ToModel(nil); r != nil || err != nil {
		t.Errorf("ToModel(nil) = %v, %v", r, err)
	}
}
