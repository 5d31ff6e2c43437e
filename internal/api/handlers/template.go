package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nebari-dev/wabastudio/internal/graph"
	"github.com/nebari-dev/wabastudio/internal/service"
)

type TemplateHandler struct {
	svc *service.TemplateService
}

func NewTemplateHandler(svc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// ListTemplates godoc
// @Summary List a connection's templates
// @Tags templates
// @Security BearerAuth
// @Produce json
// @Param id path string true "Workspace ID"
// @Param cid path string true "Connection ID"
// @Param limit query int false "Page size"
// @Param after query string false "Cursor from a previous page"
// @Param name query string false "Filter by name"
// @Param status query string false "Filter by status, e.g. APPROVED"
// @Success 200 {object} service.TemplateList
// @Failure 502 {object} ErrorResponse
// @Router /workspaces/{id}/connections/{cid}/templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	list, err := h.svc.List(c.Request.Context(), c.Param("id"), c.Param("cid"), graph.ListOptions{
		Limit:  limit,
		After:  c.Query("after"),
		Name:   c.Query("name"),
		Status: c.Query("status"),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetTemplate godoc
// @Summary Get one template of a connection
// @Tags templates
// @Security BearerAuth
// @Produce json
// @Param id path string true "Workspace ID"
// @Param cid path string true "Connection ID"
// @Param tid path string true "Template ID"
// @Success 200 {object} composer.Record
// @Failure 404 {object} ErrorResponse
// @Router /workspaces/{id}/connections/{cid}/templates/{tid} [get]
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"), c.Param("cid"), c.Param("tid"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ListWorkspaceTemplates godoc
// @Summary List templates across every connection of a workspace
// @Tags templates
// @Security BearerAuth
// @Produce json
// @Param id path string true "Workspace ID"
// @Param limit query int false "Page size per connection"
// @Success 200 {array} service.ConnectionTemplates
// @Router /workspaces/{id}/templates [get]
func (h *TemplateHandler) ListWorkspaceTemplates(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	out, err := h.svc.ListWorkspace(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ListSubmitted godoc
// @Summary List templates submitted from this workspace
// @Tags templates
// @Security BearerAuth
// @Produce json
// @Param id path string true "Workspace ID"
// @Success 200 {array} models.Template
// @Router /workspaces/{id}/submitted [get]
func (h *TemplateHandler) ListSubmitted(c *gin.Context) {
	templates, err := h.svc.ListStored(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func parseLimit(c *gin.Context) (int, bool) {
	v := c.Query("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
		return 0, false
	}
	return n, true
}
