package gormstore

import (
	"time"

	"gorm.io/datatypes"
)

// Document is the single-row table holding the serialized book. The key
// is the opaque document name; the whole payload is rewritten on every
// save.
type Document struct {
	Key       string         `gorm:"primaryKey"`
	Data      datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (Document) TableName() string { return "documents" }
