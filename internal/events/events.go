// Package events publishes template lifecycle events.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types. The routing key equals the type.
const (
	TypeTemplateSubmitted = "template.submitted.v1"
	TypeTemplateRejected  = "template.rejected.v1"
)

// Meta describes an emitted event.
type Meta struct {
	CorrelationID *string   `json:"correlation_id,omitempty"`
	ID            string    `json:"id"`
	Producer      *string   `json:"producer,omitempty"`
	Time          time.Time `json:"time"`
	Type          string    `json:"type"`
}

// Envelope wraps event data with its metadata.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// NewEnvelope stamps data with a fresh event ID and the current time.
// Empty producer or correlationID are omitted.
func NewEnvelope(eventType, producer, correlationID string, data any) Envelope {
	meta := Meta{
		ID:   uuid.NewString(),
		Time: time.Now().UTC(),
		Type: eventType,
	}
	if producer != "" {
		meta.Producer = &producer
	}
	if correlationID != "" {
		meta.CorrelationID = &correlationID
	}
	return Envelope{Meta: meta, Data: data}
}

// TemplateSubmitted is the data of template.submitted.v1.
type TemplateSubmitted struct {
	WorkspaceID  string `json:"workspace_id"`
	ConnectionID string `json:"connection_id"`
	DraftID      string `json:"draft_id"`
	TemplateID   string `json:"template_id"`
	ExternalID   string `json:"external_id"`
	Name         string `json:"name"`
	Language     string `json:"language"`
	Category     string `json:"category"`
	Status       string `json:"status"`
	SubmittedBy  string `json:"submitted_by"`
}

// TemplateRejected is the data of template.rejected.v1.
type TemplateRejected struct {
	WorkspaceID  string `json:"workspace_id"`
	ConnectionID string `json:"connection_id"`
	DraftID      string `json:"draft_id"`
	Name         string `json:"name"`
	Language     string `json:"language"`
	Code         int    `json:"code,omitempty"`
	Subcode      int    `json:"subcode,omitempty"`
	Reason       string `json:"reason"`
	SubmittedBy  string `json:"submitted_by"`
}
