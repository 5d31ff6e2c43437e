package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/nebari-dev/wabastudio/internal/composer"
	"gorm.io/gorm"
)

// Template is a message template accepted by the Graph API.
type Template struct {
	ID           uuid.UUID            `gorm:"type:text;primary_key" json:"id"`
	WorkspaceID  uuid.UUID            `gorm:"type:text;not null;index" json:"workspace_id"`
	ConnectionID uuid.UUID            `gorm:"type:text;not null;index" json:"connection_id"`
	DraftID      uuid.UUID            `gorm:"type:text;index" json:"draft_id"`
	ExternalID   string               `gorm:"index" json:"external_id"`
	Name         string               `gorm:"not null" json:"name"`
	Language     string               `gorm:"not null" json:"language"`
	Category     string               `gorm:"not null" json:"category"`
	Status       string               `json:"status"`
	Components   []composer.Component `gorm:"serializer:json;type:text" json:"components"`
	SubmittedBy  uuid.UUID            `gorm:"type:text" json:"submitted_by"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	DeletedAt    gorm.DeletedAt       `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
