package model

import (
	"time"

	"github.com/google/uuid"
)

type FileRecord struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId   uuid.UUID `gorm:"type:uuid;not null;index"`
	Filename   string    `gorm:"type:text;not null"`
	Source     string    `gorm:"type:text"`
	Status     string    `gorm:"type:varchar(16);not null;default:PENDING"`
	Error      string    `gorm:"type:text"`
	ChunkCount int       `gorm:"default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (FileRecord) TableName() string {
	return "file_records"
}
