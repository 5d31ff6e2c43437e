package db

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nebari-dev/wabastudio/internal/models"
	"gorm.io/gorm"
)

// GetOrCreateServerID returns the stored server ID, generating one on first
// start. Call after Migrate.
func GetOrCreateServerID(db *gorm.DB) (string, error) {
	id, err := GetServerID(db)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, errServerIDMissing) {
		return "", err
	}

	row := models.ServerConfig{
		Key:   models.ServerConfigKeyServerID,
		Value: uuid.New().String(),
	}
	if err := db.Create(&row).Error; err != nil {
		return "", fmt.Errorf("failed to create server ID: %w", err)
	}

	slog.Info("Generated new server ID", "server_id", row.Value)
	return row.Value, nil
}

var errServerIDMissing = errors.New("server ID not initialized")

// GetServerID returns the stored server ID.
func GetServerID(db *gorm.DB) (string, error) {
	var row models.ServerConfig
	err := db.Where("key = ?", models.ServerConfigKeyServerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errServerIDMissing
	}
	if err != nil {
		return "", fmt.Errorf("failed to query server config: %w", err)
	}
	return row.Value, nil
}
