package service

import (
	"github.com/nebari-dev/wabastudio/internal/composer"
	"github.com/nebari-dev/wabastudio/internal/models"
)

// CreateWorkspaceRequest holds parameters for creating a workspace.
type CreateWorkspaceRequest struct {
	Name        string
	Description string
}

// CreateConnectionRequest holds parameters for registering a WhatsApp
// Business Account.
type CreateConnectionRequest struct {
	Name          string
	WABAID        string
	PhoneNumberID string
	AccessToken   string
}

// CreateDraftRequest holds parameters for starting a draft. When TemplateID
// is set the draft is seeded from that template.
type CreateDraftRequest struct {
	ConnectionID    string
	ParameterFormat composer.ParameterFormat
	TemplateID      string
}

// Draft action types accepted by DraftService.Apply.
const (
	ActionSetCategory      = "set_category"
	ActionSetMarketingType = "set_marketing_type"
	ActionSetField         = "set_field"
	ActionSetExamples      = "set_examples"
	ActionInsertVariable   = "insert_variable"
	ActionAddButton        = "add_button"
	ActionRemoveButton     = "remove_button"
	ActionUpdateButton     = "update_button"
)

// DraftAction is one edit applied to a draft. Which fields are read depends
// on Type. A non-zero Version must match the stored draft version.
type DraftAction struct {
	Type           string                 `json:"type" binding:"required"`
	Version        int                    `json:"version,omitempty"`
	Category       composer.Category      `json:"category,omitempty"`
	MarketingType  composer.MarketingType `json:"marketing_type,omitempty"`
	Field          string                 `json:"field,omitempty"`
	Value          string                 `json:"value,omitempty"`
	Section        composer.Section       `json:"section,omitempty"`
	Values         []string               `json:"values,omitempty"`
	SelectionStart int                    `json:"selection_start,omitempty"`
	SelectionEnd   int                    `json:"selection_end,omitempty"`
	ButtonType     composer.ButtonType    `json:"button_type,omitempty"`
	Index          int                    `json:"index,omitempty"`
}

// DraftView is a draft with the state an editor needs to render it.
type DraftView struct {
	Draft        *models.Draft               `json:"draft"`
	FieldErrors  map[composer.Section]string `json:"field_errors"`
	ButtonCounts map[composer.ButtonType]int `json:"button_counts"`
	Applied      bool                        `json:"applied"`
	Insertion    *composer.Insertion         `json:"insertion,omitempty"`
}

// Preview is the wire form of a draft, or the reasons it cannot be built.
type Preview struct {
	Components  []composer.Component        `json:"components,omitempty"`
	FieldErrors map[composer.Section]string `json:"field_errors"`
	Ready       bool                        `json:"ready"`
	Problem     string                      `json:"problem,omitempty"`
}

// TemplateList is one page of a connection's templates.
type TemplateList struct {
	Templates []composer.Record `json:"templates"`
	Next      string            `json:"next,omitempty"`
}

// ConnectionTemplates is the template listing of one connection.
type ConnectionTemplates struct {
	ConnectionID string            `json:"connection_id"`
	Name         string            `json:"name"`
	Templates    []composer.Record `json:"templates"`
	Error        string            `json:"error,omitempty"`
}
