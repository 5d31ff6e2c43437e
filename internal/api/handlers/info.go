package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/nebari-dev/wabastudio/internal/db"
	"gorm.io/gorm"
)

// InfoHandler handles server info requests
type InfoHandler struct {
	db         *gorm.DB
	graphAPI   string
	eventsOn   bool
	workerMode string
}

// NewInfoHandler creates a new InfoHandler. graphAPI is the Graph API
// version in use and mode the server run mode.
func NewInfoHandler(database *gorm.DB, graphAPI string, eventsOn bool, mode string) *InfoHandler {
	return &InfoHandler{db: database, graphAPI: graphAPI, eventsOn: eventsOn, workerMode: mode}
}

// InfoResponse represents the server info response
type InfoResponse struct {
	ServerID        string `json:"server_id"`
	Version         string `json:"version"`
	GraphAPIVersion string `json:"graph_api_version"`
	Events          bool   `json:"events"`
	Mode            string `json:"mode"`
	GoVersion       string `json:"go_version"`
	OS              string `json:"os"`
	Arch            string `json:"arch"`
}

// GetInfo godoc
// @Summary Get server information
// @Description Returns the unique server ID, version and Graph API settings
// @Tags system
// @Produce json
// @Success 200 {object} InfoResponse
// @Failure 500 {object} ErrorResponse
// @Router /info [get]
func (h *InfoHandler) GetInfo(c *gin.Context) {
	serverID, err := db.GetServerID(h.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to retrieve server ID",
		})
		return
	}

	version, _ := parseGitDescribe(Version)
	c.JSON(http.StatusOK, InfoResponse{
		ServerID:        serverID,
		Version:         version,
		GraphAPIVersion: h.graphAPI,
		Events:          h.eventsOn,
		Mode:            h.workerMode,
		GoVersion:       runtime.Version(),
		OS:              runtime.GOOS,
		Arch:            runtime.GOARCH,
	})
}
