package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nebari-dev/wabastudio/internal/audit"
	"github.com/nebari-dev/wabastudio/internal/composer"
	"github.com/nebari-dev/wabastudio/internal/events"
	"github.com/nebari-dev/wabastudio/internal/graph"
	"github.com/nebari-dev/wabastudio/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// maxListConcurrency bounds the Graph calls made by ListWorkspace.
const maxListConcurrency = 4

// TemplateService reads templates from the Graph API and runs queued
// submissions.
type TemplateService struct {
	db          *gorm.DB
	connections *ConnectionService
	graph       *graph.Client
	publisher   events.Publisher
	producer    string
	logger      *slog.Logger
}

// NewTemplateService creates a new TemplateService. producer names this
// instance in published events.
func NewTemplateService(db *gorm.DB, connections *ConnectionService, gc *graph.Client, publisher events.Publisher, producer string, logger *slog.Logger) *TemplateService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateService{
		db:          db,
		connections: connections,
		graph:       gc,
		publisher:   publisher,
		producer:    producer,
		logger:      logger,
	}
}

// List returns one page of a connection's templates.
func (s *TemplateService) List(ctx context.Context, wsID, connID string, opts graph.ListOptions) (*TemplateList, error) {
	creds, err := s.connections.Credentials(wsID, connID)
	if err != nil {
		return nil, err
	}
	page, err := s.graph.ListTemplates(ctx, creds, opts)
	if err != nil {
		return nil, err
	}
	return &TemplateList{Templates: page.Data, Next: page.NextCursor()}, nil
}

// Get fetches one template of a connection.
func (s *TemplateService) Get(ctx context.Context, wsID, connID, templateID string) (*composer.Record, error) {
	creds, err := s.connections.Credentials(wsID, connID)
	if err != nil {
		return nil, err
	}
	rec, err := s.graph.GetTemplate(ctx, creds, templateID)
	if err != nil {
		var gerr *graph.Error
		if errors.As(err, &gerr) && gerr.StatusCode == 404 {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListWorkspace lists the first page of templates of every connection in the
// workspace. A failing connection reports its error instead of failing the
// whole listing.
func (s *TemplateService) ListWorkspace(ctx context.Context, wsID string, limit int) ([]ConnectionTemplates, error) {
	conns, err := s.connections.List(wsID)
	if err != nil {
		return nil, err
	}

	out := make([]ConnectionTemplates, len(conns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxListConcurrency)
	for i := range conns {
		conn := conns[i]
		out[i] = ConnectionTemplates{ConnectionID: conn.ID.String(), Name: conn.Name, Templates: []composer.Record{}}
		g.Go(func() error {
			creds, err := s.connections.credentialsFor(&conn)
			if err != nil {
				out[i].Error = err.Error()
				return nil
			}
			page, err := s.graph.ListTemplates(gctx, creds, graph.ListOptions{Limit: limit})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				out[i].Error = err.Error()
				return nil
			}
			out[i].Templates = page.Data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListStored returns the templates submitted from this workspace.
func (s *TemplateService) ListStored(wsID string) ([]models.Template, error) {
	var templates []models.Template
	if err := s.db.Where("workspace_id = ?", wsID).Order("created_at DESC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// ProcessSubmission is the worker handler for submit_template jobs. On
// success the template is recorded and the draft marked submitted; on
// failure the draft becomes editable again with the Graph error kept on it.
func (s *TemplateService) ProcessSubmission(ctx context.Context, job *models.Job, logs io.Writer) error {
	var d models.Draft
	if err := s.db.Where("id = ?", job.DraftID).First(&d).Error; err != nil {
		return fmt.Errorf("load draft %s: %w", job.DraftID, err)
	}
	if !d.Submitting {
		return fmt.Errorf("draft %s is not marked for submission", d.ID)
	}

	payload, err := composer.BuildRequest(d.ConnectionID.String(), d.Content)
	if err != nil {
		return s.reject(ctx, job, &d, err)
	}

	creds, err := s.connections.Credentials(d.WorkspaceID.String(), d.ConnectionID.String())
	if err != nil {
		return s.reject(ctx, job, &d, err)
	}

	fmt.Fprintf(logs, "Submitting template %s (%s, %s) to WABA %s\n", payload.Name, payload.Language, payload.Category, creds.WABAID)
	resp, err := s.graph.CreateTemplate(ctx, creds, payload)
	if err != nil {
		fmt.Fprintf(logs, "Graph API rejected the template: %v\n", err)
		return s.reject(ctx, job, &d, err)
	}
	fmt.Fprintf(logs, "Template created: id=%s status=%s\n", resp.ID, resp.Status)

	category := resp.Category
	if category == "" {
		category = string(payload.Category)
	}
	tmpl := models.Template{
		WorkspaceID:  d.WorkspaceID,
		ConnectionID: d.ConnectionID,
		DraftID:      d.ID,
		ExternalID:   resp.ID,
		Name:         payload.Name,
		Language:     payload.Language,
		Category:     strings.ToUpper(category),
		Status:       resp.Status,
		Components:   payload.Components,
		SubmittedBy:  job.CreatedBy,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tmpl).Error; err != nil {
			return err
		}
		return tx.Model(&models.Draft{}).Where("id = ?", d.ID).
			Select("Status", "Submitting", "TemplateID", "LastError").
			Updates(&models.Draft{Status: models.DraftStatusSubmitted, Submitting: false, TemplateID: &tmpl.ID}).Error
	})
	if err != nil {
		s.db.Model(&models.Draft{}).Where("id = ?", d.ID).Update("submitting", false)
		return fmt.Errorf("record template %s: %w", resp.ID, err)
	}

	s.publish(ctx, events.TypeTemplateSubmitted, job, events.TemplateSubmitted{
		WorkspaceID:  d.WorkspaceID.String(),
		ConnectionID: d.ConnectionID.String(),
		DraftID:      d.ID.String(),
		TemplateID:   tmpl.ID.String(),
		ExternalID:   tmpl.ExternalID,
		Name:         tmpl.Name,
		Language:     tmpl.Language,
		Category:     tmpl.Category,
		Status:       tmpl.Status,
		SubmittedBy:  job.CreatedBy.String(),
	})
	audit.LogAction(s.db, job.CreatedBy, audit.ActionTemplateSubmitted, "template:"+tmpl.ID.String(), map[string]interface{}{
		"external_id": tmpl.ExternalID,
		"draft_id":    d.ID.String(),
		"status":      tmpl.Status,
	})
	return nil
}

func (s *TemplateService) reject(ctx context.Context, job *models.Job, d *models.Draft, cause error) error {
	reason := cause.Error()
	rejected := events.TemplateRejected{
		WorkspaceID:  d.WorkspaceID.String(),
		ConnectionID: d.ConnectionID.String(),
		DraftID:      d.ID.String(),
		Name:         d.Content.Name,
		Language:     d.Content.Language,
		SubmittedBy:  job.CreatedBy.String(),
	}
	var gerr *graph.Error
	if errors.As(cause, &gerr) {
		reason = gerr.Detail()
		rejected.Code = gerr.Code
		rejected.Subcode = gerr.Subcode
	}
	rejected.Reason = reason

	err := s.db.Model(&models.Draft{}).Where("id = ?", d.ID).
		Select("Status", "Submitting", "LastError").
		Updates(&models.Draft{Status: models.DraftStatusRejected, Submitting: false, LastError: reason}).Error
	if err != nil {
		s.logger.Error("Failed to release rejected draft", "draft_id", d.ID, "error", err)
	}

	s.publish(ctx, events.TypeTemplateRejected, job, rejected)
	audit.LogAction(s.db, job.CreatedBy, audit.ActionTemplateRejected, "draft:"+d.ID.String(), map[string]interface{}{
		"reason": reason,
		"code":   rejected.Code,
	})
	return cause
}

func (s *TemplateService) publish(ctx context.Context, eventType string, job *models.Job, data any) {
	env := events.NewEnvelope(eventType, s.producer, job.ID.String(), data)
	if err := s.publisher.Publish(ctx, eventType, env); err != nil {
		s.logger.Error("Failed to publish event", "type", eventType, "job_id", job.ID, "error", err)
	}
}
