package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/nebari-dev/wabastudio/internal/config"
	"github.com/nebari-dev/wabastudio/internal/crypto"
	"github.com/nebari-dev/wabastudio/internal/db"
	"github.com/nebari-dev/wabastudio/internal/events"
	"github.com/nebari-dev/wabastudio/internal/graph"
	"github.com/nebari-dev/wabastudio/internal/queue"
	"github.com/nebari-dev/wabastudio/internal/rbac"
	"github.com/nebari-dev/wabastudio/internal/service"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	router http.Handler
	db     *gorm.DB
}

func setupRouter(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, _ := database.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := rbac.InitEnforcer(database, log); err != nil {
		t.Fatalf("init rbac: %v", err)
	}

	fake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[],"paging":{}}`))
	}))
	t.Cleanup(fake.Close)
	gc := graph.NewWithHTTPClient(fake.URL, "v21.0", "", fake.Client())

	sealer, err := crypto.NewSealer("router-test-secret")
	if err != nil {
		t.Fatal(err)
	}
	q := queue.NewMemoryQueue(10)
	t.Cleanup(func() { q.Close() })

	connections := service.NewConnectionService(database, sealer)
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "development", RunMode: "both"},
		Auth:   config.AuthConfig{JWTSecret: "router-test-jwt"},
		Graph:  config.GraphConfig{APIVersion: "v21.0"},
	}
	router := NewRouter(cfg, database, Services{
		Workspaces:  service.NewWorkspaceService(database),
		Connections: connections,
		Drafts:      service.NewDraftService(database, q, connections, gc),
		Templates:   service.NewTemplateService(database, connections, gc, events.Nop{}, "test", log),
		Jobs:        service.NewJobService(database),
	}, log)

	return &testServer{router: router, db: database}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	if _, err := db.CreateUser(s.db, username, username+"@test.com", "password123"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d: %s", w.Code, w.Body)
	}
	var resp struct {
		Token string `json:"token"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v\n%s", v, err, w.Body)
	}
	return v
}

type idResponse struct {
	ID string `json:"id"`
}

func TestHealthIsPublic(t *testing.T) {
	s := setupRouter(t)
	if w := s.do(t, http.MethodGet, "/api/v1/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/v1/workspaces", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated workspaces status = %d, want 401", w.Code)
	}
}

func TestDraftLifecycle(t *testing.T) {
	s := setupRouter(t)
	alice := s.login(t, "alice")
	bob := s.login(t, "bob")

	w := s.do(t, http.MethodPost, "/api/v1/workspaces", alice, map[string]string{"name": "Support"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create workspace: %d %s", w.Code, w.Body)
	}
	ws := decode[idResponse](t, w).ID
	base := "/api/v1/workspaces/" + ws

	w = s.do(t, http.MethodPost, base+"/connections", alice, map[string]string{
		"name":         "Main",
		"waba_id":      "102290129340398",
		"access_token": "EAAG-token",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create connection: %d %s", w.Code, w.Body)
	}
	conn := decode[idResponse](t, w).ID

	w = s.do(t, http.MethodPost, base+"/drafts", alice, map[string]string{"connection_id": conn})
	if w.Code != http.StatusCreated {
		t.Fatalf("create draft: %d %s", w.Code, w.Body)
	}
	draft := decode[service.DraftView](t, w).Draft.ID.String()
	draftPath := base + "/drafts/" + draft

	for _, a := range []map[string]any{
		{"type": service.ActionSetField, "field": "name", "value": "order_update"},
		{"type": service.ActionSetField, "field": "body", "value": "Your order  has shipped"},
		{"type": service.ActionInsertVariable, "section": "body", "selection_start": 11, "selection_end": 11},
		{"type": service.ActionSetExamples, "section": "body", "values": []string{"#1042"}},
	} {
		w = s.do(t, http.MethodPost, draftPath+"/actions", alice, a)
		if w.Code != http.StatusOK {
			t.Fatalf("action %v: %d %s", a["type"], w.Code, w.Body)
		}
	}
	view := decode[service.DraftView](t, w)
	if view.Draft.Content.Body != "Your order {{1}} has shipped" {
		t.Errorf("body = %q", view.Draft.Content.Body)
	}

	w = s.do(t, http.MethodGet, draftPath+"/preview", alice, nil)
	preview := decode[service.Preview](t, w)
	if !preview.Ready || len(preview.Components) != 1 {
		t.Fatalf("preview = %+v", preview)
	}

	// bob has no grant on the workspace
	if w := s.do(t, http.MethodGet, draftPath, bob, nil); w.Code != http.StatusForbidden {
		t.Errorf("bob get draft status = %d, want 403", w.Code)
	}

	w = s.do(t, http.MethodPost, draftPath+"/submit", alice, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("submit: %d %s", w.Code, w.Body)
	}
	job := decode[idResponse](t, w).ID

	if w := s.do(t, http.MethodPost, draftPath+"/submit", alice, nil); w.Code != http.StatusConflict {
		t.Errorf("second submit status = %d, want 409", w.Code)
	}
	if w := s.do(t, http.MethodPost, draftPath+"/actions", alice, map[string]any{
		"type": service.ActionSetField, "field": "footer", "value": "Thanks",
	}); w.Code != http.StatusConflict {
		t.Errorf("edit while submitting status = %d, want 409", w.Code)
	}

	if w := s.do(t, http.MethodGet, "/api/v1/jobs/"+job, alice, nil); w.Code != http.StatusOK {
		t.Errorf("alice get job status = %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/v1/jobs/"+job, bob, nil); w.Code != http.StatusNotFound {
		t.Errorf("bob get job status = %d, want 404", w.Code)
	}
}

func TestInvalidActionIsBadRequest(t *testing.T) {
	s := setupRouter(t)
	alice := s.login(t, "alice")

	w := s.do(t, http.MethodPost, "/api/v1/workspaces", alice, map[string]string{"name": "Support"})
	base := "/api/v1/workspaces/" + decode[idResponse](t, w).ID
	w = s.do(t, http.MethodPost, base+"/connections", alice, map[string]string{
		"name": "Main", "waba_id": "102290129340398", "access_token": "EAAG-token",
	})
	conn := decode[idResponse](t, w).ID
	w = s.do(t, http.MethodPost, base+"/drafts", alice, map[string]string{"connection_id": conn})
	draftPath := base + "/drafts/" + decode[service.DraftView](t, w).Draft.ID.String()

	if w := s.do(t, http.MethodPost, draftPath+"/actions", alice, map[string]any{"type": "explode"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown action status = %d, want 400", w.Code)
	}
	if w := s.do(t, http.MethodPost, draftPath+"/submit", alice, nil); w.Code != http.StatusBadRequest {
		t.Errorf("submit of empty draft status = %d, want 400", w.Code)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := setupRouter(t)
	alice := s.login(t, "alice")

	if w := s.do(t, http.MethodGet, "/api/v1/admin/users", alice, nil); w.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", w.Code)
	}

	w := s.do(t, http.MethodGet, "/api/v1/auth/me", alice, nil)
	me := decode[idResponse](t, w)
	if err := rbac.MakeAdmin(uuid.MustParse(me.ID)); err != nil {
		t.Fatal(err)
	}

	if w := s.do(t, http.MethodGet, "/api/v1/admin/users", alice, nil); w.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", w.Code)
	}
}
