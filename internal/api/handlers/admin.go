package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nebari-dev/wabastudio/internal/audit"
	"github.com/nebari-dev/wabastudio/internal/db"
	"github.com/nebari-dev/wabastudio/internal/models"
	"github.com/nebari-dev/wabastudio/internal/rbac"
	"gorm.io/gorm"
)

type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// UserWithAdminStatus is a user plus whether it holds admin privileges.
type UserWithAdminStatus struct {
	models.User
	IsAdmin bool `json:"is_admin"`
}

// CreateUserRequest is the body of POST /admin/users.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	IsAdmin  bool   `json:"is_admin"`
}

// ListUsers godoc
// @Summary List all users (admin only)
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {array} UserWithAdminStatus
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.Order("username").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch users"})
		return
	}

	admins, err := rbac.AdminUserIDs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to check admin status"})
		return
	}

	out := make([]UserWithAdminStatus, len(users))
	for i, user := range users {
		out[i] = UserWithAdminStatus{User: user, IsAdmin: admins[user.ID]}
	}
	c.JSON(http.StatusOK, out)
}

// CreateUser godoc
// @Summary Create a new user (admin only)
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "User details"
// @Success 201 {object} UserWithAdminStatus
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	actorID := getUserID(c)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var count int64
	h.db.Model(&models.User{}).Where("username = ? OR email = ?", req.Username, req.Email).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Username or email already taken"})
		return
	}

	user, err := db.CreateUser(h.db, req.Username, req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create user"})
		return
	}
	if req.IsAdmin {
		if err := rbac.MakeAdmin(user.ID); err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to grant admin permissions"})
			return
		}
	}

	audit.LogAction(h.db, actorID, audit.ActionCreateUser, "user:"+user.ID.String(), map[string]interface{}{
		"username": user.Username,
		"email":    user.Email,
		"is_admin": req.IsAdmin,
	})

	c.JSON(http.StatusCreated, UserWithAdminStatus{User: *user, IsAdmin: req.IsAdmin})
}

// ToggleAdmin godoc
// @Summary Toggle admin status for a user
// @Tags admin
// @Security BearerAuth
// @Param id path string true "User UUID"
// @Success 200 {object} UserWithAdminStatus
// @Router /admin/users/{id}/toggle-admin [post]
func (h *AdminHandler) ToggleAdmin(c *gin.Context) {
	actorID := getUserID(c)

	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	if user.ID == actorID {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Cannot change your own admin status"})
		return
	}

	isAdmin, _ := rbac.IsAdmin(user.ID)
	if isAdmin {
		if err := rbac.RevokeAdmin(user.ID); err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to revoke admin"})
			return
		}
		audit.LogAction(h.db, actorID, audit.ActionRevokeAdmin, "user:"+user.ID.String(), nil)
	} else {
		if err := rbac.MakeAdmin(user.ID); err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to make admin"})
			return
		}
		audit.LogAction(h.db, actorID, audit.ActionMakeAdmin, "user:"+user.ID.String(), nil)
	}

	c.JSON(http.StatusOK, UserWithAdminStatus{User: *user, IsAdmin: !isAdmin})
}

// DeleteUser godoc
// @Summary Delete a user (admin only)
// @Tags admin
// @Security BearerAuth
// @Param id path string true "User UUID"
// @Success 204
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actorID := getUserID(c)

	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	if user.ID == actorID {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Cannot delete yourself"})
		return
	}

	if err := h.db.Delete(user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete user"})
		return
	}
	rbac.RevokeAdmin(user.ID)

	audit.LogAction(h.db, actorID, audit.ActionDeleteUser, "user:"+user.ID.String(), map[string]interface{}{
		"username": user.Username,
	})
	c.Status(http.StatusNoContent)
}

// ListAuditLogs godoc
// @Summary List audit logs
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param user_id query string false "Filter by user ID"
// @Param action query string false "Filter by action"
// @Param limit query int false "Maximum entries (default 100, max 1000)"
// @Success 200 {array} models.AuditLog
// @Router /admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, 1000)
	}

	query := h.db.Preload("User").Order("timestamp DESC").Limit(limit)
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch audit logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *AdminHandler) loadUser(c *gin.Context) (*models.User, bool) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid user ID"})
		return nil, false
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch user"})
		}
		return nil, false
	}
	return &user, true
}
