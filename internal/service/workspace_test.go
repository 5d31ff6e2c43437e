package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/nebari-dev/wabastudio/internal/crypto"
	"github.com/nebari-dev/wabastudio/internal/events"
	"github.com/nebari-dev/wabastudio/internal/graph"
	"github.com/nebari-dev/wabastudio/internal/models"
	"github.com/nebari-dev/wabastudio/internal/queue"
	"github.com/nebari-dev/wabastudio/internal/rbac"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db          *gorm.DB
	queue       *queue.MemoryQueue
	workspaces  *WorkspaceService
	connections *ConnectionService
	drafts      *DraftService
	templates   *TemplateService
	jobs        *JobService
	published   *recordingPublisher

	// graph handles requests to the fake Graph API; set it per test.
	graph http.HandlerFunc
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []events.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, msg events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.msgs {
		out = append(out, m.Meta.Type)
	}
	return out
}

// testSetup creates a file-backed DB, migrates models, initializes RBAC and
// points a Graph client at a local fake.
func testSetup(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Workspace{},
		&models.Permission{},
		&models.Connection{},
		&models.Draft{},
		&models.Template{},
		&models.Job{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, name := range []string{models.RoleAdmin, models.RoleOwner, models.RoleEditor, models.RoleViewer} {
		if err := db.Create(&models.Role{Name: name}).Error; err != nil {
			t.Fatalf("seed role: %v", err)
		}
	}

	// RBAC enforcer is global; initialize per test
	if err := rbac.InitEnforcer(db, slog.Default()); err != nil {
		t.Fatalf("init rbac: %v", err)
	}

	env := &testEnv{db: db, published: &recordingPublisher{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.graph == nil {
			http.Error(w, `{"error":{"message":"no fake handler","code":1}}`, http.StatusInternalServerError)
			return
		}
		env.graph(w, r)
	}))
	t.Cleanup(srv.Close)
	gc := graph.NewWithHTTPClient(srv.URL, "v21.0", "", srv.Client())

	sealer, err := crypto.NewSealer("test-secret")
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}

	env.queue = queue.NewMemoryQueue(100)
	t.Cleanup(func() { env.queue.Close() })

	env.workspaces = NewWorkspaceService(db)
	env.connections = NewConnectionService(db, sealer)
	env.drafts = NewDraftService(db, env.queue, env.connections, gc)
	env.templates = NewTemplateService(db, env.connections, gc, env.published, "test", slog.Default())
	env.jobs = NewJobService(db)
	return env
}

// createTestUser inserts a user and returns its ID.
func createTestUser(t *testing.T, db *gorm.DB, username string) uuid.UUID {
	t.Helper()
	user := models.User{Username: username, Email: username + "@test.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

func createTestWorkspace(t *testing.T, env *testEnv, name string, ownerID uuid.UUID) *models.Workspace {
	t.Helper()
	ws, err := env.workspaces.Create(CreateWorkspaceRequest{Name: name}, ownerID)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	return ws
}

func TestCreateWorkspace_GrantsOwner(t *testing.T) {
	env := testSetup(t)
	alice := createTestUser(t, env.db, "alice")

	ws := createTestWorkspace(t, env, "  marketing  ", alice)
	if ws.Name != "marketing" {
		t.Errorf("expected trimmed name, got %q", ws.Name)
	}

	ok, err := rbac.Can(alice, ws.ID, rbac.ActionManage)
	if err != nil || !ok {
		t.Fatalf("expected owner to manage workspace (ok=%v err=%v)", ok, err)
	}

	members, err := env.workspaces.ListMembers(ws.ID.String())
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 || members[0].Role.Name != models.RoleOwner {
		t.Fatalf("expected a single owner membership, got %+v", members)
	}

	var count int64
	env.db.Model(&models.AuditLog{}).Where("action = ?", "create_workspace").Count(&count)
	if count != 1 {
		t.Errorf("expected one audit entry, got %d", count)
	}
}

func TestCreateWorkspace_RequiresName(t *testing.T) {
	env := testSetup(t)
	alice := createTestUser(t, env.db, "alice")

	_, err := env.workspaces.Create(CreateWorkspaceRequest{Name: "   "}, alice)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestListWorkspaces_OnlyMemberships(t *testing.T) {
	env := testSetup(t)
	alice := createTestUser(t, env.db, "alice")
	bob := createTestUser(t, env.db, "bob")

	shared := createTestWorkspace(t, env, "shared", alice)
	createTestWorkspace(t, env, "private", alice)

	if _, err := env.workspaces.AddMember(shared.ID.String(), "bob", models.RoleViewer, alice); err != nil {
		t.Fatalf("add member: %v", err)
	}

	list, err := env.workspaces.List(bob)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != shared.ID {
		t.Fatalf("expected only the shared workspace, got %d", len(list))
	}

	if err := rbac.MakeAdmin(bob); err != nil {
		t.Fatalf("make admin: %v", err)
	}
	list, _ = env.workspaces.List(bob)
	if len(list) != 2 {
		t.Errorf("expected admin to see both workspaces, got %d", len(list))
	}
}

func TestAddMember_ReplacesRole(t *testing.T) {
	env := testSetup(t)
	alice := createTestUser(t, env.db, "alice")
	bob := createTestUser(t, env.db, "bob")
	ws := createTestWorkspace(t, env, "ws", alice)

	if _, err := env.workspaces.AddMember(ws.ID.String(), "bob", models.RoleViewer, alice); err != nil {
		t.Fatalf("add viewer: %v", err)
	}
	if ok, _ := rbac.Can(bob, ws.ID, rbac.ActionWrite); ok {
		t.Fatal("viewer must not write")
	}

	perm, err := env.workspaces.AddMember(ws.ID.String(), "bob", models.RoleEditor, alice)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if perm.Role.Name != models.RoleEditor {
		t.Errorf("expected editor role, got %q", perm.Role.Name)
	}
	if ok, _ := rbac.Can(bob, ws.ID, rbac.ActionWrite); !ok {
		t.Error("editor should write")
	}
	if ok, _ := rbac.Can(bob, ws.ID, rbac.ActionManage); ok {
		t.Error("editor must not manage")
	}

	members, _ := env.workspaces.ListMembers(ws.ID.String())
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %d", len(members))
	}
}

func TestAddMember_Validation(t *testing.T) {
	env := testSetup(t)
	alice := createTestUser(t, env.db, "alice")
	ws := createTestWorkspace(t, env, "ws", alice)

	tests := []struct {
		name     string
		username string
		role     string
	}{
		{"unknown role", "alice", "superuser"},
		{"unknown user", "nobody", models.RoleViewer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.workspaces.AddMember(ws.ID.String(), tt.username, tt.role, alice)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestRemoveMember(t *testing.T) {
	env := testSetup(t)
	alice := createTestUser(t, env.db, "alice")
	bob := createTestUser(t, env.db, "bob")
	ws := createTestWorkspace(t, env, "ws", alice)
	env.workspaces.AddMember(ws.ID.String(), "bob", models.RoleEditor, alice)

	if err := env.workspaces.RemoveMember(ws.ID.String(), alice, alice); err == nil {
		t.Fatal("expected error removing the owner")
	}
	if err := env.workspaces.RemoveMember(ws.ID.String(), bob, alice); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if ok, _ := rbac.Can(bob, ws.ID, rbac.ActionRead); ok {
		t.Error("removed member still has access")
	}
	if err := env.workspaces.RemoveMember(ws.ID.String(), bob, alice); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second removal, got %v", err)
	}
}

func TestDeleteWorkspace(t *testing.T) {
	env := testSetup(t)
	alice := createTestUser(t, env.db, "alice")
	ws := createTestWorkspace(t, env, "ws", alice)
	conn := createTestConnection(t, env, ws, alice)

	if err := env.workspaces.Delete(ws.ID.String(), alice); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.workspaces.Get(ws.ID.String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := env.connections.Get(ws.ID.String(), conn.ID.String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected connection to be deleted, got %v", err)
	}
	if ok, _ := rbac.Can(alice, ws.ID, rbac.ActionRead); ok {
		t.Error("owner policy should be revoked")
	}
}
