package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/nebari-dev/wabastudio/internal/events"
	"github.com/nebari-dev/wabastudio/internal/graph"
	"github.com/nebari-dev/wabastudio/internal/models"
)

func submitAndDequeue(t *testing.T, env *testEnv, ws *models.Workspace, draftID string) *models.Job {
	t.Helper()
	alice := ws.OwnerID
	if _, err := env.drafts.Submit(context.Background(), ws.ID.String(), draftID, alice); err != nil {
		t.Fatalf("submit: %v", err)
	}
	job, err := env.queue.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	return job
}

func TestProcessSubmission_Success(t *testing.T) {
	env, ws, conn, alice := draftFixture(t)
	view := createReadyDraft(t, env, ws, conn, alice)

	var sent map[string]any
	env.graph = func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v21.0/102290129340398/message_templates" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer EAAG-token" {
			t.Errorf("unexpected authorization %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&sent)
		w.Write([]byte(`{"id":"594425479261596","status":"PENDING","category":"UTILITY"}`))
	}

	job := submitAndDequeue(t, env, ws, view.Draft.ID.String())
	var logs bytes.Buffer
	if err := env.templates.ProcessSubmission(context.Background(), job, &logs); err != nil {
		t.Fatalf("process: %v", err)
	}

	if sent["name"] != "order_update" || sent["parameter_format"] != "POSITIONAL" {
		t.Errorf("unexpected request body %v", sent)
	}
	if !strings.Contains(logs.String(), "594425479261596") {
		t.Errorf("expected template ID in logs, got %q", logs.String())
	}

	d, _ := env.drafts.Get(ws.ID.String(), view.Draft.ID.String())
	if d.Submitting || d.Status != models.DraftStatusSubmitted || d.TemplateID == nil {
		t.Fatalf("unexpected draft state: submitting=%v status=%s template=%v", d.Submitting, d.Status, d.TemplateID)
	}

	stored, err := env.templates.ListStored(ws.ID.String())
	if err != nil || len(stored) != 1 {
		t.Fatalf("expected one stored template, got %d (%v)", len(stored), err)
	}
	if stored[0].ExternalID != "594425479261596" || stored[0].Category != "UTILITY" || len(stored[0].Components) != 1 {
		t.Errorf("unexpected stored template %+v", stored[0])
	}

	if got := env.published.types(); len(got) != 1 || got[0] != events.TypeTemplateSubmitted {
		t.Fatalf("expected a submitted event, got %v", got)
	}
	env.published.mu.Lock()
	meta := env.published.msgs[0].Meta
	env.published.mu.Unlock()
	if meta.CorrelationID == nil || *meta.CorrelationID != job.ID.String() {
		t.Errorf("expected correlation ID %s, got %v", job.ID, meta.CorrelationID)
	}
}

func TestProcessSubmission_RejectionKeepsDraftEditable(t *testing.T) {
	env, ws, conn, alice := draftFixture(t)
	view := createReadyDraft(t, env, ws, conn, alice)

	env.graph = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException","code":100,"error_subcode":2388024,"error_user_msg":"Content in this language already exists","fbtrace_id":"AbC"}}`))
	}

	job := submitAndDequeue(t, env, ws, view.Draft.ID.String())
	err := env.templates.ProcessSubmission(context.Background(), job, &bytes.Buffer{})
	var gerr *graph.Error
	if !errors.As(err, &gerr) || gerr.Subcode != 2388024 {
		t.Fatalf("expected graph error, got %v", err)
	}

	d, _ := env.drafts.Get(ws.ID.String(), view.Draft.ID.String())
	if d.Submitting || d.Status != models.DraftStatusRejected {
		t.Fatalf("unexpected draft state: submitting=%v status=%s", d.Submitting, d.Status)
	}
	if d.LastError != "Content in this language already exists" {
		t.Errorf("unexpected last error %q", d.LastError)
	}

	env.published.mu.Lock()
	msgs := append([]events.Envelope(nil), env.published.msgs...)
	env.published.mu.Unlock()
	if len(msgs) != 1 || msgs[0].Meta.Type != events.TypeTemplateRejected {
		t.Fatalf("expected a rejected event, got %d", len(msgs))
	}
	if data := msgs[0].Data.(events.TemplateRejected); data.Code != 100 || data.Name != "order_update" {
		t.Errorf("unexpected rejection data %+v", data)
	}

	// the draft is editable again and the edit clears the stored error
	view, err = env.drafts.Apply(ws.ID.String(), d.ID.String(), DraftAction{Type: ActionSetField, Field: "language", Value: "en_GB"})
	if err != nil {
		t.Fatalf("edit after rejection: %v", err)
	}
	if view.Draft.Status != models.DraftStatusEditing || view.Draft.LastError != "" {
		t.Errorf("expected editing status without error, got %s %q", view.Draft.Status, view.Draft.LastError)
	}
}

func TestProcessSubmission_DraftNotSubmitting(t *testing.T) {
	env, ws, conn, alice := draftFixture(t)
	view := createReadyDraft(t, env, ws, conn, alice)

	job := &models.Job{DraftID: view.Draft.ID, Type: models.JobTypeSubmitTemplate, CreatedBy: alice}
	env.db.Create(job)
	if err := env.templates.ProcessSubmission(context.Background(), job, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for a draft that is not being submitted")
	}
	if got := env.published.types(); len(got) != 0 {
		t.Errorf("expected no events, got %v", got)
	}
}

func TestListTemplates(t *testing.T) {
	env, ws, conn, _ := draftFixture(t)
	env.graph = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "2" || r.URL.Query().Get("status") != "APPROVED" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"data":[{"id":"1","name":"a","category":"UTILITY","language":"en_US","components":[]}],
			"paging":{"cursors":{"before":"b","after":"QVFI"},"next":"https://graph.facebook.com/next"}}`))
	}

	list, err := env.templates.List(context.Background(), ws.ID.String(), conn.ID.String(), graph.ListOptions{Limit: 2, Status: "APPROVED"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Templates) != 1 || list.Next != "QVFI" {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestGetTemplate_NotFound(t *testing.T) {
	env, ws, conn, _ := draftFixture(t)
	env.graph = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"Unsupported get request","code":100}}`))
	}

	if _, err := env.templates.Get(context.Background(), ws.ID.String(), conn.ID.String(), "42"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListWorkspace_ReportsPerConnectionErrors(t *testing.T) {
	env, ws, _, alice := draftFixture(t)
	if _, err := env.connections.Create(ws.ID.String(), CreateConnectionRequest{
		Name: "broken", WABAID: "999", AccessToken: "expired",
	}, alice); err != nil {
		t.Fatalf("create connection: %v", err)
	}

	env.graph = func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/999/") {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"Error validating access token","type":"OAuthException","code":190}}`))
			return
		}
		w.Write([]byte(`{"data":[{"id":"1","name":"a","category":"UTILITY","language":"en_US","components":[]}]}`))
	}

	out, err := env.templates.ListWorkspace(context.Background(), ws.ID.String(), 10)
	if err != nil {
		t.Fatalf("list workspace: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected two connections, got %d", len(out))
	}
	byName := map[string]ConnectionTemplates{}
	for _, ct := range out {
		byName[ct.Name] = ct
	}
	if len(byName["main"].Templates) != 1 || byName["main"].Error != "" {
		t.Errorf("unexpected main listing %+v", byName["main"])
	}
	if byName["broken"].Error == "" || len(byName["broken"].Templates) != 0 {
		t.Errorf("expected error for broken connection, got %+v", byName["broken"])
	}
}

func TestListWorkspace_UnreadableTokenStaysInItsEntry(t *testing.T) {
	env, ws, _, alice := draftFixture(t)
	conn, err := env.connections.Create(ws.ID.String(), CreateConnectionRequest{
		Name: "rotated", WABAID: "777", AccessToken: "token",
	}, alice)
	if err != nil {
		t.Fatalf("create connection: %v", err)
	}
	env.db.Model(&models.Connection{}).Where("id = ?", conn.ID).Update("access_token", "not-sealed")

	env.graph = func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"1","name":"a","category":"UTILITY","language":"en_US","components":[]}]}`))
	}

	out, err := env.templates.ListWorkspace(context.Background(), ws.ID.String(), 10)
	if err != nil {
		t.Fatalf("list workspace: %v", err)
	}
	byName := map[string]ConnectionTemplates{}
	for _, ct := range out {
		byName[ct.Name] = ct
	}
	if len(byName["main"].Templates) != 1 || byName["main"].Error != "" {
		t.Errorf("unexpected main listing %+v", byName["main"])
	}
	if byName["rotated"].Error == "" || len(byName["rotated"].Templates) != 0 {
		t.Errorf("expected credential error for rotated connection, got %+v", byName["rotated"])
	}
}
