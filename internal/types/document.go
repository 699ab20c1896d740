package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document is an ingested knowledge-base source (practice notes, handouts,
// reference material) owned by a single therapist.
type Document struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	SourceCategory string         `gorm:"column:source_category;not null;index" json:"source_category"`
	Text           string         `gorm:"column:text;not null" json:"text"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }

// DocumentChunk is the persisted form of a Chunk plus its embedding. The
// storage layer owns these rows; this core only produces them.
type DocumentChunk struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"document_id"`
	Document    *Document      `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`
	Index       int            `gorm:"column:index;not null" json:"index"`
	Content     string         `gorm:"column:content;not null" json:"content"`
	StartOffset int            `gorm:"column:start_offset;not null" json:"start_offset"`
	EndOffset   int            `gorm:"column:end_offset;not null" json:"end_offset"`
	Embedding   datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"embedding"`
	Metadata    datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (DocumentChunk) TableName() string { return "document_chunk" }
