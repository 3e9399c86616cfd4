package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByThread filters chat messages by their owning thread
type ByThread struct {
	ThreadId uuid.UUID
}

func (s ByThread) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("thread_id = ?", s.ThreadId)
}

// BySeqOrder orders chat messages by their sequence within the thread
type BySeqOrder struct{}

func (s BySeqOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}

// ByFile filters chunks/records by file id
type ByFile struct {
	FileId uuid.UUID
}

func (s ByFile) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("file_id = ?", s.FileId)
}
