package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nebari-dev/wabastudio/internal/audit"
	"github.com/nebari-dev/wabastudio/internal/crypto"
	"github.com/nebari-dev/wabastudio/internal/graph"
	"github.com/nebari-dev/wabastudio/internal/models"
	"gorm.io/gorm"
)

// ConnectionService manages the WhatsApp Business Accounts of a workspace.
// Access tokens are sealed before they reach the database.
type ConnectionService struct {
	db     *gorm.DB
	sealer *crypto.Sealer
}

// NewConnectionService creates a new ConnectionService.
func NewConnectionService(db *gorm.DB, sealer *crypto.Sealer) *ConnectionService {
	return &ConnectionService{db: db, sealer: sealer}
}

// List returns the workspace's connections.
func (s *ConnectionService) List(wsID string) ([]models.Connection, error) {
	var conns []models.Connection
	if err := s.db.Where("workspace_id = ?", wsID).Order("created_at").Find(&conns).Error; err != nil {
		return nil, err
	}
	return conns, nil
}

// Get returns a connection of the workspace.
func (s *ConnectionService) Get(wsID, connID string) (*models.Connection, error) {
	var conn models.Connection
	if err := s.db.Where("id = ? AND workspace_id = ?", connID, wsID).First(&conn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conn, nil
}

// Create registers a connection.
func (s *ConnectionService) Create(wsID string, req CreateConnectionRequest, userID uuid.UUID) (*models.Connection, error) {
	wsUUID, err := uuid.Parse(wsID)
	if err != nil {
		return nil, &ValidationError{Message: "invalid workspace ID"}
	}

	name := strings.TrimSpace(req.Name)
	wabaID := strings.TrimSpace(req.WABAID)
	switch {
	case name == "":
		return nil, &ValidationError{Message: "connection name is required"}
	case wabaID == "":
		return nil, &ValidationError{Message: "waba_id is required"}
	case req.AccessToken == "":
		return nil, &ValidationError{Message: "access_token is required"}
	}

	var count int64
	s.db.Model(&models.Connection{}).Where("workspace_id = ? AND name = ?", wsUUID, name).Count(&count)
	if count > 0 {
		return nil, &ConflictError{Message: fmt.Sprintf("connection %q already exists", name)}
	}

	sealed, err := s.sealer.Seal(req.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("seal access token: %w", err)
	}

	conn := models.Connection{
		WorkspaceID:   wsUUID,
		Name:          name,
		WABAID:        wabaID,
		PhoneNumberID: strings.TrimSpace(req.PhoneNumberID),
		AccessToken:   sealed,
		CreatedBy:     userID,
	}
	if err := s.db.Create(&conn).Error; err != nil {
		return nil, fmt.Errorf("create connection: %w", err)
	}

	audit.LogAction(s.db, userID, audit.ActionCreateConnection, "conn:"+conn.ID.String(), map[string]interface{}{
		"workspace_id": wsID,
		"name":         conn.Name,
		"waba_id":      conn.WABAID,
	})
	return &conn, nil
}

// Delete removes a connection. Connections with a submission in flight are kept.
func (s *ConnectionService) Delete(wsID, connID string, userID uuid.UUID) error {
	conn, err := s.Get(wsID, connID)
	if err != nil {
		return err
	}

	var inFlight int64
	s.db.Model(&models.Draft{}).Where("connection_id = ? AND submitting = ?", conn.ID, true).Count(&inFlight)
	if inFlight > 0 {
		return &ConflictError{Message: "connection has submissions in flight"}
	}

	if err := s.db.Delete(conn).Error; err != nil {
		return err
	}

	audit.LogAction(s.db, userID, audit.ActionDeleteConnection, "conn:"+conn.ID.String(), map[string]interface{}{
		"workspace_id": wsID,
		"name":         conn.Name,
	})
	return nil
}

// Credentials opens the stored token of a connection for a Graph call.
func (s *ConnectionService) Credentials(wsID, connID string) (graph.Credentials, error) {
	conn, err := s.Get(wsID, connID)
	if err != nil {
		return graph.Credentials{}, err
	}
	return s.credentialsFor(conn)
}

func (s *ConnectionService) credentialsFor(conn *models.Connection) (graph.Credentials, error) {
	token, err := s.sealer.Open(conn.AccessToken)
	if err != nil {
		return graph.Credentials{}, fmt.Errorf("open access token of connection %s: %w", conn.ID, err)
	}
	return graph.Credentials{WABAID: conn.WABAID, AccessToken: token}, nil
}
