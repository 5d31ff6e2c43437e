package db

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nebari-dev/wabastudio/internal/auth"
	"github.com/nebari-dev/wabastudio/internal/models"
	"github.com/nebari-dev/wabastudio/internal/rbac"
	"gorm.io/gorm"
)

// CreateDefaultAdmin creates an admin from ADMIN_USERNAME and ADMIN_PASSWORD
// when both are set and the users table is empty. The RBAC enforcer must
// already be initialized.
func CreateDefaultAdmin(db *gorm.DB) error {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	email := os.Getenv("ADMIN_EMAIL")

	if username == "" || password == "" {
		slog.Info("No ADMIN_USERNAME or ADMIN_PASSWORD set, skipping default admin creation")
		return nil
	}
	if email == "" {
		email = fmt.Sprintf("%s@wabastudio.local", username)
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		slog.Info("Users already exist, skipping default admin creation")
		return nil
	}

	user, err := CreateUser(db, username, email, password)
	if err != nil {
		return err
	}
	if err := rbac.MakeAdmin(user.ID); err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}

	slog.Info("Default admin user created", "username", username, "email", email)
	return nil
}

// CreateUser stores a user with a bcrypt hash of password.
func CreateUser(db *gorm.DB, username, email, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}
