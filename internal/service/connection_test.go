package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/nebari-dev/wabastudio/internal/models"
)

func createTestConnection(t *testing.T, env *testEnv, ws *models.Workspace, userID uuid.UUID) *models.Connection {
	t.Helper()
	conn, err := env.connections.Create(ws.ID.String(), CreateConnectionRequest{
		Name:          "main",
		WABAID:        "102290129340398",
		PhoneNumberID: "106540352242922",
		AccessToken:   "EAAG-token",
	}, userID)
	if err != nil {
		t.Fatalf("create connection: %v", err)
	}
	return conn
}

func TestCreateConnection_SealsToken(t *testing.T) {
	env := testSetup(t)
	alice := createTestUser(t, env.db, "alice")
	ws := createTestWorkspace(t, env, "ws", alice)
	conn := createTestConnection(t, env, ws, alice)

	var stored models.Connection
	env.db.First(&stored, "id = ?", conn.ID)
	if stored.AccessToken == "EAAG-token" || !strings.HasPrefix(stored.AccessToken, "seal:v1:") {
		t.Fatalf("access token stored unsealed: %q", stored.AccessToken)
	}

	creds, err := env.connections.Credentials(ws.ID.String(), conn.ID.String())
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if creds.AccessToken != "EAAG-token" || creds.WABAID != "102290129340398" {
		t.Errorf("unexpected credentials %+v", creds)
	}
}

func TestCreateConnection_Validation(t *testing.T) {
	env := testSetup(t)
	alice := createTestUser(t, env.db, "alice")
	ws := createTestWorkspace(t, env, "ws", alice)

	tests := []struct {
		name string
		req  CreateConnectionRequest
	}{
		{"missing name", CreateConnectionRequest{WABAID: "1", AccessToken: "t"}},
		{"missing waba", CreateConnectionRequest{Name: "a", AccessToken: "t"}},
		{"missing token", CreateConnectionRequest{Name: "a", WABAID: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.connections.Create(ws.ID.String(), tt.req, alice)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCreateConnection_DuplicateName(t *testing.T) {
	env := testSetup(t)
	alice := createTestUser(t, env.db, "alice")
	ws := createTestWorkspace(t, env, "ws", alice)
	createTestConnection(t, env, ws, alice)

	_, err := env.connections.Create(ws.ID.String(), CreateConnectionRequest{
		Name: "main", WABAID: "2", AccessToken: "t",
	}, alice)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestConnection_ScopedToWorkspace(t *testing.T) {
	env := testSetup(t)
	alice := createTestUser(t, env.db, "alice")
	ws := createTestWorkspace(t, env, "ws", alice)
	other := createTestWorkspace(t, env, "other", alice)
	conn := createTestConnection(t, env, ws, alice)

	if _, err := env.connections.Get(other.ID.String(), conn.ID.String()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from another workspace, got %v", err)
	}
	if err := env.connections.Delete(other.ID.String(), conn.ID.String(), alice); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting from another workspace, got %v", err)
	}
}

func TestDeleteConnection_InFlightSubmission(t *testing.T) {
	env := testSetup(t)
	alice := createTestUser(t, env.db, "alice")
	ws := createTestWorkspace(t, env, "ws", alice)
	conn := createTestConnection(t, env, ws, alice)
	view := createReadyDraft(t, env, ws, conn, alice)

	env.db.Model(&models.Draft{}).Where("id = ?", view.Draft.ID).Update("submitting", true)

	err := env.connections.Delete(ws.ID.String(), conn.ID.String(), alice)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}
