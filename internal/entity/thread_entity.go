package entity

import (
	"time"

	"github.com/google/uuid"
)

type Thread struct {
	Id        uuid.UUID
	TenantId  uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
