package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nebari-dev/wabastudio/internal/audit"
	"github.com/nebari-dev/wabastudio/internal/models"
	"github.com/nebari-dev/wabastudio/internal/rbac"
	"gorm.io/gorm"
)

// WorkspaceService contains the business logic for workspaces and their members.
type WorkspaceService struct {
	db *gorm.DB
}

// NewWorkspaceService creates a new WorkspaceService.
func NewWorkspaceService(db *gorm.DB) *WorkspaceService {
	return &WorkspaceService{db: db}
}

// List returns the workspaces the user owns or is a member of. Admins see all.
func (s *WorkspaceService) List(userID uuid.UUID) ([]models.Workspace, error) {
	var workspaces []models.Workspace

	isAdmin, err := rbac.IsAdmin(userID)
	if err != nil {
		return nil, err
	}
	query := s.db.Preload("Owner").Order("created_at DESC")
	if !isAdmin {
		ids, err := rbac.GetUserWorkspaces(userID)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			query = query.Where("owner_id = ? OR id IN ?", userID, ids)
		} else {
			query = query.Where("owner_id = ?", userID)
		}
	}

	if err := query.Find(&workspaces).Error; err != nil {
		return nil, err
	}
	return workspaces, nil
}

// Get returns a single workspace by ID.
func (s *WorkspaceService) Get(id string) (*models.Workspace, error) {
	var ws models.Workspace
	if err := s.db.Preload("Owner").Where("id = ?", id).First(&ws).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ws, nil
}

// Create stores a workspace, makes the caller its owner and writes an
// audit log entry.
func (s *WorkspaceService) Create(req CreateWorkspaceRequest, userID uuid.UUID) (*models.Workspace, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Message: "workspace name is required"}
	}

	ws := models.Workspace{
		Name:        name,
		Description: req.Description,
		OwnerID:     userID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ws).Error; err != nil {
			return fmt.Errorf("create workspace: %w", err)
		}
		return s.upsertPermission(tx, userID, ws.ID, models.RoleOwner)
	})
	if err != nil {
		return nil, err
	}

	if err := rbac.GrantWorkspaceAccess(userID, ws.ID, models.RoleOwner); err != nil {
		return nil, fmt.Errorf("grant owner access: %w", err)
	}

	audit.LogAction(s.db, userID, audit.ActionCreateWorkspace, "ws:"+ws.ID.String(), map[string]interface{}{
		"name": ws.Name,
	})

	return &ws, nil
}

// Delete soft-deletes a workspace with its connections and drafts.
func (s *WorkspaceService) Delete(wsID string, userID uuid.UUID) error {
	ws, err := s.Get(wsID)
	if err != nil {
		return err
	}

	var inFlight int64
	s.db.Model(&models.Draft{}).Where("workspace_id = ? AND submitting = ?", ws.ID, true).Count(&inFlight)
	if inFlight > 0 {
		return &ConflictError{Message: "workspace has submissions in flight"}
	}

	var members []models.Permission
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ?", ws.ID).Find(&members).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{&models.Draft{}, &models.Connection{}, &models.Permission{}} {
			if err := tx.Where("workspace_id = ?", ws.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(ws).Error
	})
	if err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}

	for _, m := range members {
		if err := rbac.RevokeWorkspaceAccess(m.UserID, ws.ID); err != nil {
			return fmt.Errorf("revoke access: %w", err)
		}
	}

	audit.LogAction(s.db, userID, audit.ActionDeleteWorkspace, "ws:"+ws.ID.String(), map[string]interface{}{
		"name": ws.Name,
	})
	return nil
}

// ListMembers returns the workspace's permission rows with users and roles.
func (s *WorkspaceService) ListMembers(wsID string) ([]models.Permission, error) {
	var perms []models.Permission
	if err := s.db.Preload("User").Preload("Role").Where("workspace_id = ?", wsID).Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

// AddMember grants a user a role on the workspace, replacing any earlier role.
func (s *WorkspaceService) AddMember(wsID string, username, role string, actorID uuid.UUID) (*models.Permission, error) {
	ws, err := s.Get(wsID)
	if err != nil {
		return nil, err
	}
	if _, err := rbac.ActionForRole(role); err != nil {
		return nil, &ValidationError{Message: "role must be 'owner', 'editor' or 'viewer'"}
	}

	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Message: fmt.Sprintf("user %q does not exist", username)}
		}
		return nil, err
	}

	if err := s.upsertPermission(s.db, user.ID, ws.ID, role); err != nil {
		return nil, err
	}
	if err := rbac.GrantWorkspaceAccess(user.ID, ws.ID, role); err != nil {
		return nil, fmt.Errorf("grant access: %w", err)
	}

	audit.LogAction(s.db, actorID, audit.ActionGrantPermission, "ws:"+ws.ID.String(), map[string]interface{}{
		"user": user.Username,
		"role": role,
	})

	var perm models.Permission
	if err := s.db.Preload("User").Preload("Role").Where("workspace_id = ? AND user_id = ?", ws.ID, user.ID).First(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

// RemoveMember revokes a user's access. The owner cannot be removed.
func (s *WorkspaceService) RemoveMember(wsID string, userID uuid.UUID, actorID uuid.UUID) error {
	ws, err := s.Get(wsID)
	if err != nil {
		return err
	}
	if ws.OwnerID == userID {
		return &ValidationError{Message: "the workspace owner cannot be removed"}
	}

	res := s.db.Where("workspace_id = ? AND user_id = ?", ws.ID, userID).Delete(&models.Permission{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	if err := rbac.RevokeWorkspaceAccess(userID, ws.ID); err != nil {
		return fmt.Errorf("revoke access: %w", err)
	}

	audit.LogAction(s.db, actorID, audit.ActionRevokePermission, "ws:"+ws.ID.String(), map[string]interface{}{
		"user_id": userID.String(),
	})
	return nil
}

func (s *WorkspaceService) upsertPermission(tx *gorm.DB, userID, wsID uuid.UUID, roleName string) error {
	var role models.Role
	if err := tx.Where("name = ?", roleName).First(&role).Error; err != nil {
		return fmt.Errorf("load role %s: %w", roleName, err)
	}

	var perm models.Permission
	err := tx.Where("workspace_id = ? AND user_id = ?", wsID, userID).First(&perm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&models.Permission{UserID: userID, WorkspaceID: wsID, RoleID: role.ID}).Error
	}
	if err != nil {
		return err
	}
	return tx.Model(&perm).Update("role_id", role.ID).Error
}
