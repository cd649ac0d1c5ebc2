package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/youtubify-go/internal/app"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	jobMgr  *app.JobManager
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(jobMgr *app.JobManager, version string) *HealthHandler {
	return &HealthHandler{jobMgr: jobMgr, version: version}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Jobs    struct {
		Active int `json:"active"`
		Total  int `json:"total"`
	} `json:"jobs"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: h.version,
	}

	for _, snap := range h.jobMgr.Snapshots() {
		response.Jobs.Total++
		if !snap.IsTerminal() {
			response.Jobs.Active++
		}
	}

	c.JSON(http.StatusOK, response)
}
