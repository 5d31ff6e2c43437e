package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nebari-dev/wabastudio/internal/composer"
	"github.com/nebari-dev/wabastudio/internal/service"
)

type DraftHandler struct {
	svc  *service.DraftService
	jobs *service.JobService
}

func NewDraftHandler(svc *service.DraftService, jobs *service.JobService) *DraftHandler {
	return &DraftHandler{svc: svc, jobs: jobs}
}

// CreateDraftRequest is the body of POST /workspaces/{id}/drafts.
type CreateDraftRequest struct {
	ConnectionID    string                   `json:"connection_id" binding:"required"`
	ParameterFormat composer.ParameterFormat `json:"parameter_format"`
	TemplateID      string                   `json:"template_id"`
}

// ListDrafts godoc
// @Summary List the drafts of a workspace
// @Tags drafts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Workspace ID"
// @Success 200 {array} models.Draft
// @Router /workspaces/{id}/drafts [get]
func (h *DraftHandler) ListDrafts(c *gin.Context) {
	drafts, err := h.svc.List(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, drafts)
}

// CreateDraft godoc
// @Summary Start a template draft
// @Description With template_id the draft is rebuilt from an existing template.
// @Tags drafts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Workspace ID"
// @Param draft body CreateDraftRequest true "Draft options"
// @Success 201 {object} service.DraftView
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /workspaces/{id}/drafts [post]
func (h *DraftHandler) CreateDraft(c *gin.Context) {
	var req CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	view, err := h.svc.Create(c.Request.Context(), c.Param("id"), service.CreateDraftRequest{
		ConnectionID:    req.ConnectionID,
		ParameterFormat: req.ParameterFormat,
		TemplateID:      req.TemplateID,
	}, getUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetDraft godoc
// @Summary Get a draft with its field errors
// @Tags drafts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Workspace ID"
// @Param did path string true "Draft ID"
// @Success 200 {object} service.DraftView
// @Failure 404 {object} ErrorResponse
// @Router /workspaces/{id}/drafts/{did} [get]
func (h *DraftHandler) GetDraft(c *gin.Context) {
	view, err := h.svc.View(c.Param("id"), c.Param("did"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteDraft godoc
// @Summary Delete a draft
// @Tags drafts
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Param did path string true "Draft ID"
// @Success 204
// @Failure 409 {object} ErrorResponse
// @Router /workspaces/{id}/drafts/{did} [delete]
func (h *DraftHandler) DeleteDraft(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id"), c.Param("did"), getUserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ApplyAction godoc
// @Summary Apply one edit to a draft
// @Description Edits that would break a constraint return applied=false and leave the draft unchanged.
// @Tags drafts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Workspace ID"
// @Param did path string true "Draft ID"
// @Param action body service.DraftAction true "Edit"
// @Success 200 {object} service.DraftView
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /workspaces/{id}/drafts/{did}/actions [post]
func (h *DraftHandler) ApplyAction(c *gin.Context) {
	var action service.DraftAction
	if err := c.ShouldBindJSON(&action); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	view, err := h.svc.Apply(c.Param("id"), c.Param("did"), action)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PreviewDraft godoc
// @Summary Preview the components a draft would submit
// @Tags drafts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Workspace ID"
// @Param did path string true "Draft ID"
// @Success 200 {object} service.Preview
// @Router /workspaces/{id}/drafts/{did}/preview [get]
func (h *DraftHandler) PreviewDraft(c *gin.Context) {
	p, err := h.svc.Preview(c.Param("id"), c.Param("did"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SubmitDraft godoc
// @Summary Submit a draft to the Graph API
// @Description Queues a submission job. Only one submission per draft may be in flight.
// @Tags drafts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Workspace ID"
// @Param did path string true "Draft ID"
// @Success 202 {object} models.Job
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /workspaces/{id}/drafts/{did}/submit [post]
func (h *DraftHandler) SubmitDraft(c *gin.Context) {
	job, err := h.svc.Submit(c.Request.Context(), c.Param("id"), c.Param("did"), getUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// ListDraftJobs godoc
// @Summary List the submission jobs of a draft
// @Tags drafts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Workspace ID"
// @Param did path string true "Draft ID"
// @Success 200 {array} models.Job
// @Router /workspaces/{id}/drafts/{did}/jobs [get]
func (h *DraftHandler) ListDraftJobs(c *gin.Context) {
	d, err := h.svc.Get(c.Param("id"), c.Param("did"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	jobs, err := h.jobs.ListForDraft(d.ID.String())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}
