package mapper

import (
	"time"

	"ai-docchat-be/internal/entity"
	"ai-docchat-be/internal/model"
)

type FileMapper struct{}

func NewFileMapper() *FileMapper {
	return &FileMapper{}
}

func (m *FileMapper) ToEntity(f *model.FileRecord) *entity.FileRecord {
	if f == nil {
		return nil
	}

	var updatedAt *time.Time
	if !f.UpdatedAt.IsZero() {
		u := f.UpdatedAt
		updatedAt = &u
	}

	return &entity.FileRecord{
		Id:         f.Id,
		TenantId:   f.TenantId,
		Filename:   f.Filename,
		Source:     f.Source,
		Status:     f.Status,
		Error:      f.Error,
		ChunkCount: f.ChunkCount,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *FileMapper) ToModel(f *entity.FileRecord) *model.FileRecord {
	if f == nil {
		return nil
	}

	var updatedAt time.Time
	if f.UpdatedAt != nil {
		updatedAt = *f.UpdatedAt
	}

	return &model.FileRecord{
		Id:         f.Id,
		TenantId:   f.TenantId,
		Filename:   f.Filename,
		Source:     f.Source,
		Status:     f.Status,
		Error:      f.Error,
		ChunkCount: f.ChunkCount,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}
