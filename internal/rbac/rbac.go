package rbac

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelConf string

var enforcer *casbin.Enforcer

// Workspace actions. Each grants the ones below it.
const (
	ActionManage = "manage"
	ActionWrite  = "write"
	ActionRead   = "read"
)

const workspacePrefix = "ws:"

// InitEnforcer initializes the Casbin enforcer
func InitEnforcer(db *gorm.DB, logger *slog.Logger) error {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return fmt.Errorf("failed to parse casbin model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := e.LoadPolicy(); err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}

	enforcer = e
	logger.Info("RBAC enforcer initialized")
	return nil
}

func workspaceObject(wsID uuid.UUID) string {
	return workspacePrefix + wsID.String()
}

// ActionForRole maps a workspace role name to its casbin action.
func ActionForRole(role string) (string, error) {
	switch role {
	case "owner":
		return ActionManage, nil
	case "editor":
		return ActionWrite, nil
	case "viewer":
		return ActionRead, nil
	default:
		return "", fmt.Errorf("invalid role: %s", role)
	}
}

// Can reports whether the user may perform action on the workspace.
// Admins may do anything.
func Can(userID, wsID uuid.UUID, action string) (bool, error) {
	if ok, err := IsAdmin(userID); err != nil || ok {
		return ok, err
	}
	return enforcer.Enforce(userID.String(), workspaceObject(wsID), action)
}

// IsAdmin checks if user has admin privileges
func IsAdmin(userID uuid.UUID) (bool, error) {
	return enforcer.Enforce(userID.String(), "admin", "admin")
}

// GrantWorkspaceAccess replaces the user's access to a workspace with the
// action implied by role.
func GrantWorkspaceAccess(userID, wsID uuid.UUID, role string) error {
	action, err := ActionForRole(role)
	if err != nil {
		return err
	}

	obj := workspaceObject(wsID)
	if _, err := enforcer.RemoveFilteredPolicy(0, userID.String(), obj); err != nil {
		return err
	}
	if _, err := enforcer.AddPolicy(userID.String(), obj, action); err != nil {
		return err
	}
	return enforcer.SavePolicy()
}

// RevokeWorkspaceAccess removes every grant the user holds on a workspace.
func RevokeWorkspaceAccess(userID, wsID uuid.UUID) error {
	if _, err := enforcer.RemoveFilteredPolicy(0, userID.String(), workspaceObject(wsID)); err != nil {
		return err
	}
	return enforcer.SavePolicy()
}

// MakeAdmin grants admin privileges to a user
func MakeAdmin(userID uuid.UUID) error {
	if _, err := enforcer.AddPolicy(userID.String(), "admin", "admin"); err != nil {
		return err
	}
	return enforcer.SavePolicy()
}

// RevokeAdmin removes admin privileges from a user
func RevokeAdmin(userID uuid.UUID) error {
	if _, err := enforcer.RemovePolicy(userID.String(), "admin", "admin"); err != nil {
		return err
	}
	return enforcer.SavePolicy()
}

// AdminUserIDs returns the set of users holding admin privileges.
func AdminUserIDs() (map[uuid.UUID]bool, error) {
	policies, err := enforcer.GetFilteredPolicy(1, "admin", "admin")
	if err != nil {
		return nil, err
	}
	ids := make(map[uuid.UUID]bool, len(policies))
	for _, policy := range policies {
		if id, err := uuid.Parse(policy[0]); err == nil {
			ids[id] = true
		}
	}
	return ids, nil
}

// GetUserWorkspaces returns the IDs of every workspace the user holds a grant on.
func GetUserWorkspaces(userID uuid.UUID) ([]uuid.UUID, error) {
	policies, err := enforcer.GetFilteredPolicy(0, userID.String())
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(policies))
	for _, policy := range policies {
		if len(policy) < 2 || !strings.HasPrefix(policy[1], workspacePrefix) {
			continue
		}
		if id, err := uuid.Parse(strings.TrimPrefix(policy[1], workspacePrefix)); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
