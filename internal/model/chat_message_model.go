package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMessage struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ThreadId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Role       string         `gorm:"type:varchar(16);not null"`
	Content    string         `gorm:"type:text"`
	Reasoning  string         `gorm:"type:text"`
	ToolCalls  datatypes.JSON `gorm:"type:jsonb"`
	ToolCallId string         `gorm:"type:text"`
	Seq        int            `gorm:"not null;index"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
