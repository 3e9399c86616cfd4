package mapper

import (
	"encoding/json"
	"fmt"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMessageMapper struct{}

func NewChatMessageMapper() *ChatMessageMapper {
	return &ChatMessageMapper{}
}

func (m *ChatMessageMapper) ToEntity(msg *model.ChatMessage) (*entity.ChatMessage, error) {
	if msg == nil {
		return nil, nil
	}

	var toolCalls []entity.MessageToolCall
	if len(msg.ToolCalls) > 0 {
		if err := json.Unmarshal(msg.ToolCalls, &toolCalls); err != nil {
			return nil, fmt.Errorf("decoding tool calls of message %s: %w", msg.Id, err)
		}
	}

	return &entity.ChatMessage{
		Id:         msg.Id,
		ThreadId:   msg.ThreadId,
		Role:       msg.Role,
		Content:    msg.Content,
		Reasoning:  msg.Reasoning,
		ToolCalls:  toolCalls,
		ToolCallId: msg.ToolCallId,
		Seq:        msg.Seq,
		CreatedAt:  msg.CreatedAt,
	}, nil
}

func (m *ChatMessageMapper) ToModel(msg *entity.ChatMessage) (*model.ChatMessage, error) {
	if msg == nil {
		return nil, nil
	}

	var toolCalls datatypes.JSON
	if len(msg.ToolCalls) > 0 {
		data, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return nil, fmt.Errorf("encoding tool calls of message %s: %w", msg.Id, err)
		}
		toolCalls = datatypes.JSON(data)
	}

	return &model.ChatMessage{
		Id:         msg.Id,
		ThreadId:   msg.ThreadId,
		Role:       msg.Role,
		Content:    msg.Content,
		Reasoning:  msg.Reasoning,
		ToolCalls:  toolCalls,
		ToolCallId: msg.ToolCallId,
		Seq:        msg.Seq,
		CreatedAt:  msg.CreatedAt,
	}, nil
}
