package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nebari-dev/wabastudio/internal/audit"
	"github.com/nebari-dev/wabastudio/internal/composer"
	"github.com/nebari-dev/wabastudio/internal/graph"
	"github.com/nebari-dev/wabastudio/internal/models"
	"github.com/nebari-dev/wabastudio/internal/queue"
	"gorm.io/gorm"
)

// DraftService persists composer drafts and queues their submission.
type DraftService struct {
	db          *gorm.DB
	queue       queue.Queue
	connections *ConnectionService
	graph       *graph.Client
}

// NewDraftService creates a new DraftService.
func NewDraftService(db *gorm.DB, q queue.Queue, connections *ConnectionService, gc *graph.Client) *DraftService {
	return &DraftService{db: db, queue: q, connections: connections, graph: gc}
}

// List returns the workspace's drafts, newest first.
func (s *DraftService) List(wsID string) ([]models.Draft, error) {
	var drafts []models.Draft
	if err := s.db.Where("workspace_id = ?", wsID).Order("updated_at DESC").Find(&drafts).Error; err != nil {
		return nil, err
	}
	return drafts, nil
}

// Get returns a draft of the workspace.
func (s *DraftService) Get(wsID, draftID string) (*models.Draft, error) {
	var d models.Draft
	if err := s.db.Where("id = ? AND workspace_id = ?", draftID, wsID).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// View wraps a stored draft with its validation state.
func (s *DraftService) View(wsID, draftID string) (*DraftView, error) {
	d, err := s.Get(wsID, draftID)
	if err != nil {
		return nil, err
	}
	return newDraftView(d, false, nil), nil
}

// Create starts a draft on a connection. With a TemplateID the draft is
// rebuilt from that template instead of starting empty.
func (s *DraftService) Create(ctx context.Context, wsID string, req CreateDraftRequest, userID uuid.UUID) (*DraftView, error) {
	conn, err := s.connections.Get(wsID, req.ConnectionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &ValidationError{Message: "connection not found in this workspace"}
		}
		return nil, err
	}

	var content composer.Draft
	if req.TemplateID != "" {
		creds, err := s.connections.credentialsFor(conn)
		if err != nil {
			return nil, err
		}
		rec, err := s.graph.GetTemplate(ctx, creds, req.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("fetch template %s: %w", req.TemplateID, err)
		}
		content, err = composer.FromTemplate(*rec)
		if err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
	} else {
		format, err := composer.ParseParameterFormat(string(req.ParameterFormat))
		if err != nil {
			return nil, &ValidationError{Message: "parameter_format must be 'named' or 'positional'"}
		}
		content = composer.NewDraft(format)
	}

	d := models.Draft{
		WorkspaceID:  conn.WorkspaceID,
		ConnectionID: conn.ID,
		CreatedBy:    userID,
		Content:      content,
		Status:       models.DraftStatusEditing,
		Version:      1,
	}
	if err := s.db.Create(&d).Error; err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}

	audit.LogAction(s.db, userID, audit.ActionCreateDraft, "draft:"+d.ID.String(), map[string]interface{}{
		"workspace_id":  wsID,
		"connection_id": conn.ID.String(),
		"template_id":   req.TemplateID,
	})
	return newDraftView(&d, false, nil), nil
}

// Delete removes a draft that is not being submitted.
func (s *DraftService) Delete(wsID, draftID string, userID uuid.UUID) error {
	d, err := s.Get(wsID, draftID)
	if err != nil {
		return err
	}
	res := s.db.Where("id = ? AND submitting = ?", d.ID, false).Delete(&models.Draft{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &ConflictError{Message: "draft is being submitted"}
	}
	audit.LogAction(s.db, userID, audit.ActionDeleteDraft, "draft:"+d.ID.String(), map[string]interface{}{
		"workspace_id": wsID,
	})
	return nil
}

// Apply performs one edit. Edits that violate a constraint leave the draft
// untouched and report Applied=false; malformed actions are validation errors.
func (s *DraftService) Apply(wsID, draftID string, action DraftAction) (*DraftView, error) {
	d, err := s.Get(wsID, draftID)
	if err != nil {
		return nil, err
	}
	if d.Submitting {
		return nil, &ConflictError{Message: "draft is being submitted"}
	}
	if action.Version != 0 && action.Version != d.Version {
		return nil, &ConflictError{Message: fmt.Sprintf("draft was modified (version %d, expected %d)", d.Version, action.Version)}
	}

	content, applied, ins, err := applyAction(d.Content, action)
	if err != nil {
		return nil, err
	}
	if !applied {
		return newDraftView(d, false, ins), nil
	}

	updated := models.Draft{
		Content:   content,
		Version:   d.Version + 1,
		Status:    models.DraftStatusEditing,
		LastError: "",
		UpdatedAt: time.Now(),
	}
	res := s.db.Model(&models.Draft{}).
		Where("id = ? AND version = ? AND submitting = ?", d.ID, d.Version, false).
		Select("Content", "Version", "Status", "LastError", "UpdatedAt").
		Updates(&updated)
	if res.Error != nil {
		return nil, fmt.Errorf("save draft: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &ConflictError{Message: "draft was modified concurrently"}
	}

	d.Content = content
	d.Version = updated.Version
	d.Status = updated.Status
	d.LastError = ""
	d.UpdatedAt = updated.UpdatedAt
	return newDraftView(d, true, ins), nil
}

func applyAction(current composer.Draft, a DraftAction) (composer.Draft, bool, *composer.Insertion, error) {
	d := current.Clone()

	switch a.Type {
	case ActionSetCategory:
		next := composer.Transition(d, composer.SetCategory{Category: a.Category})
		return next, next.Category == a.Category && a.Category != current.Category, nil, nil

	case ActionSetMarketingType:
		next := composer.Transition(d, composer.SetMarketingType{MarketingType: a.MarketingType})
		return next, next.MarketingType == a.MarketingType && a.MarketingType != current.MarketingType, nil, nil

	case ActionSetField:
		if err := d.SetField(a.Field, a.Value); err != nil {
			return current, false, nil, &ValidationError{Message: err.Error()}
		}
		return d, true, nil, nil

	case ActionSetExamples:
		if err := checkSection(a.Section); err != nil {
			return current, false, nil, err
		}
		d.SetExamples(a.Section, a.Values)
		return d, true, nil, nil

	case ActionInsertVariable:
		if err := checkSection(a.Section); err != nil {
			return current, false, nil, err
		}
		ins := d.InsertVariable(a.Section, a.SelectionStart, a.SelectionEnd)
		return d, ins.Applied, &ins, nil

	case ActionAddButton:
		if !a.ButtonType.Valid() {
			return current, false, nil, &ValidationError{Message: fmt.Sprintf("unknown button type %q", a.ButtonType)}
		}
		return d, d.AddButton(a.ButtonType), nil, nil

	case ActionRemoveButton:
		return d, d.RemoveButton(a.Index), nil, nil

	case ActionUpdateButton:
		if err := d.UpdateButton(a.Index, a.Field, a.Value); err != nil {
			return current, false, nil, &ValidationError{Message: err.Error()}
		}
		return d, true, nil, nil
	}

	return current, false, nil, &ValidationError{Message: fmt.Sprintf("unknown action type %q", a.Type)}
}

func checkSection(s composer.Section) error {
	if s != composer.SectionHeader && s != composer.SectionBody {
		return &ValidationError{Message: "section must be 'header' or 'body'"}
	}
	return nil
}

// Preview serializes the draft as it would be sent, without submitting it.
func (s *DraftService) Preview(wsID, draftID string) (*Preview, error) {
	d, err := s.Get(wsID, draftID)
	if err != nil {
		return nil, err
	}

	p := &Preview{FieldErrors: d.Content.FieldErrors().Messages()}
	components, err := composer.Serialize(d.Content)
	if err != nil {
		p.Problem = err.Error()
		return p, nil
	}
	p.Components = components

	if _, err := composer.BuildRequest(d.ConnectionID.String(), d.Content); err != nil {
		p.Problem = err.Error()
		return p, nil
	}
	p.Ready = true
	return p, nil
}

// Submit queues the draft for creation on the Graph API. Only one submission
// per draft may be in flight; a second one gets a ConflictError.
func (s *DraftService) Submit(ctx context.Context, wsID, draftID string, userID uuid.UUID) (*models.Job, error) {
	d, err := s.Get(wsID, draftID)
	if err != nil {
		return nil, err
	}

	payload, err := composer.BuildRequest(d.ConnectionID.String(), d.Content)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	res := s.db.Model(&models.Draft{}).
		Where("id = ? AND version = ? AND submitting = ?", d.ID, d.Version, false).
		Update("submitting", true)
	if res.Error != nil {
		return nil, fmt.Errorf("mark draft submitting: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &ConflictError{Message: "a submission for this draft is already in flight"}
	}

	job := &models.Job{
		WorkspaceID: d.WorkspaceID,
		DraftID:     d.ID,
		Type:        models.JobTypeSubmitTemplate,
		Status:      models.JobStatusPending,
		CreatedBy:   userID,
		Metadata: map[string]interface{}{
			"name":     payload.Name,
			"language": payload.Language,
			"category": string(payload.Category),
			"version":  d.Version,
		},
	}
	if err := s.db.Create(job).Error; err != nil {
		s.releaseSubmitting(d.ID)
		return nil, fmt.Errorf("create job: %w", err)
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.releaseSubmitting(d.ID)
		s.db.Model(job).Updates(map[string]interface{}{"status": models.JobStatusFailed, "error": err.Error()})
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	audit.LogAction(s.db, userID, audit.ActionSubmitTemplate, "draft:"+d.ID.String(), map[string]interface{}{
		"job_id": job.ID.String(),
		"name":   payload.Name,
	})
	return job, nil
}

func (s *DraftService) releaseSubmitting(draftID uuid.UUID) {
	s.db.Model(&models.Draft{}).Where("id = ?", draftID).Update("submitting", false)
}

func newDraftView(d *models.Draft, applied bool, ins *composer.Insertion) *DraftView {
	return &DraftView{
		Draft:        d,
		FieldErrors:  d.Content.FieldErrors().Messages(),
		ButtonCounts: d.Content.ButtonCounts(),
		Applied:      applied,
		Insertion:    ins,
	}
}
