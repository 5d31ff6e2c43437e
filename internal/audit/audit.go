package audit

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nebari-dev/wabastudio/internal/models"
	"gorm.io/gorm"
)

// LogAction records an audit log entry. Failures are logged, not returned;
// an audit write never fails the action it records.
func LogAction(db *gorm.DB, userID uuid.UUID, action, resource string, details interface{}) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	entry := models.AuditLog{
		UserID:      userID,
		Action:      action,
		Resource:    resource,
		DetailsJSON: string(detailsJSON),
		Timestamp:   time.Now(),
	}

	if err := db.Create(&entry).Error; err != nil {
		slog.Error("Failed to write audit log", "action", action, "resource", resource, "error", err)
	}
}

// Audit action constants
const (
	ActionCreateUser        = "create_user"
	ActionDeleteUser        = "delete_user"
	ActionMakeAdmin         = "make_admin"
	ActionRevokeAdmin       = "revoke_admin"
	ActionLogin             = "login"
	ActionLoginFailed       = "login_failed"
	ActionCreateWorkspace   = "create_workspace"
	ActionDeleteWorkspace   = "delete_workspace"
	ActionGrantPermission   = "grant_permission"
	ActionRevokePermission  = "revoke_permission"
	ActionCreateConnection  = "create_connection"
	ActionDeleteConnection  = "delete_connection"
	ActionCreateDraft       = "create_draft"
	ActionDeleteDraft       = "delete_draft"
	ActionSubmitTemplate    = "submit_template"
	ActionTemplateSubmitted = "template_submitted"
	ActionTemplateRejected  = "template_rejected"
)
