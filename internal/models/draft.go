package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/nebari-dev/wabastudio/internal/composer"
	"gorm.io/gorm"
)

// DraftStatus represents where a draft is in its submission lifecycle
type DraftStatus string

const (
	DraftStatusEditing   DraftStatus = "editing"
	DraftStatusSubmitted DraftStatus = "submitted"
	DraftStatusRejected  DraftStatus = "rejected"
)

// Draft is a persisted composer draft. Submitting is set while a submission
// job is in flight; edits and further submissions are refused until it clears.
type Draft struct {
	ID           uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	WorkspaceID  uuid.UUID      `gorm:"type:text;not null;index" json:"workspace_id"`
	ConnectionID uuid.UUID      `gorm:"type:text;not null;index" json:"connection_id"`
	CreatedBy    uuid.UUID      `gorm:"type:text" json:"created_by"`
	Content      composer.Draft `gorm:"serializer:json;type:text" json:"content"`
	Status       DraftStatus    `gorm:"not null;default:'editing'" json:"status"`
	Submitting   bool           `gorm:"not null;default:false" json:"submitting"`
	Version      int            `gorm:"not null;default:1" json:"version"`
	TemplateID   *uuid.UUID     `gorm:"type:text" json:"template_id,omitempty"`
	LastError    string         `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (d *Draft) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
