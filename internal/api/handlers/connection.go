package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nebari-dev/wabastudio/internal/service"
)

type ConnectionHandler struct {
	svc *service.ConnectionService
}

func NewConnectionHandler(svc *service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{svc: svc}
}

// CreateConnectionRequest is the body of POST /workspaces/{id}/connections.
type CreateConnectionRequest struct {
	Name          string `json:"name" binding:"required"`
	WABAID        string `json:"waba_id" binding:"required"`
	PhoneNumberID string `json:"phone_number_id"`
	AccessToken   string `json:"access_token" binding:"required"`
}

// ListConnections godoc
// @Summary List the WhatsApp Business Accounts of a workspace
// @Tags connections
// @Security BearerAuth
// @Produce json
// @Param id path string true "Workspace ID"
// @Success 200 {array} models.Connection
// @Router /workspaces/{id}/connections [get]
func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	conns, err := h.svc.List(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, conns)
}

// CreateConnection godoc
// @Summary Register a WhatsApp Business Account
// @Description The access token is stored encrypted and never returned.
// @Tags connections
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Workspace ID"
// @Param connection body CreateConnectionRequest true "Connection details"
// @Success 201 {object} models.Connection
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /workspaces/{id}/connections [post]
func (h *ConnectionHandler) CreateConnection(c *gin.Context) {
	var req CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	conn, err := h.svc.Create(c.Param("id"), service.CreateConnectionRequest{
		Name:          req.Name,
		WABAID:        req.WABAID,
		PhoneNumberID: req.PhoneNumberID,
		AccessToken:   req.AccessToken,
	}, getUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conn)
}

// DeleteConnection godoc
// @Summary Remove a connection
// @Tags connections
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Param cid path string true "Connection ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /workspaces/{id}/connections/{cid} [delete]
func (h *ConnectionHandler) DeleteConnection(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id"), c.Param("cid"), getUserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
