package db

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/nebari-dev/wabastudio/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestMigrate_SeedsRolesOnce(t *testing.T) {
	db := setupTestDB(t)

	// a second run must not duplicate seeded roles
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var count int64
	db.Model(&models.Role{}).Count(&count)
	if count != 4 {
		t.Errorf("expected 4 roles, got %d", count)
	}
}

func TestGetOrCreateServerID(t *testing.T) {
	db := setupTestDB(t)

	id1, err := GetOrCreateServerID(db)
	if err != nil {
		t.Fatalf("GetOrCreateServerID failed: %v", err)
	}
	if _, err := uuid.Parse(id1); err != nil {
		t.Errorf("server ID is not a valid UUID: %v", err)
	}

	id2, err := GetOrCreateServerID(db)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("server ID changed between calls: %s, %s", id1, id2)
	}

	got, err := GetServerID(db)
	if err != nil {
		t.Fatalf("GetServerID failed: %v", err)
	}
	if got != id1 {
		t.Errorf("GetServerID returned %s, want %s", got, id1)
	}
}

func TestGetOrCreateServerID_ReturnsExistingID(t *testing.T) {
	db := setupTestDB(t)

	existing := models.ServerConfig{Key: models.ServerConfigKeyServerID, Value: "existing-server-id"}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("seed server ID: %v", err)
	}

	got, err := GetOrCreateServerID(db)
	if err != nil {
		t.Fatalf("GetOrCreateServerID failed: %v", err)
	}
	if got != "existing-server-id" {
		t.Errorf("expected existing ID, got %s", got)
	}
}

func TestGetServerID_ErrorsWhenNotInitialized(t *testing.T) {
	db := setupTestDB(t)

	if _, err := GetServerID(db); err == nil {
		t.Error("GetServerID should error when server ID is not initialized")
	}
}
