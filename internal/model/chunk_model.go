package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type Chunk struct {
	Id        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Content   string          `gorm:"type:text;not null"`
	Embedding pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text / text-embedding-004 dimensions
	DocId     int64           `gorm:"not null"`
	Source    string          `gorm:"type:text"`
	FileId    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Filename  string          `gorm:"type:text"`
	Ref       string          `gorm:"type:text"`
	Type      string          `gorm:"type:varchar(16);not null;default:text"`
	Page      *int
	TenantId  uuid.UUID `gorm:"type:uuid;not null;index"`
	SplitPart string    `gorm:"type:varchar(32)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Chunk) TableName() string {
	return "chunks"
}
