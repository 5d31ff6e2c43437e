package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Connection is a WhatsApp Business Account reachable through the Graph API.
// AccessToken holds the sealed token; it never leaves the service layer.
type Connection struct {
	ID            uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	WorkspaceID   uuid.UUID      `gorm:"type:text;not null;index" json:"workspace_id"`
	Name          string         `gorm:"not null" json:"name"`
	WABAID        string         `gorm:"column:waba_id;not null" json:"waba_id"`
	PhoneNumberID string         `json:"phone_number_id,omitempty"`
	AccessToken   string         `gorm:"type:text;not null" json:"-"`
	CreatedBy     uuid.UUID      `gorm:"type:text" json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
