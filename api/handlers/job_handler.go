package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/youtubify-go/internal/app"
	"github.com/yourusername/youtubify-go/internal/domain"
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	jobMgr       *app.JobManager
	probeTimeout time.Duration
	logger       *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobMgr *app.JobManager, probeTimeout time.Duration, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobMgr:       jobMgr,
		probeTimeout: probeTimeout,
		logger:       logger,
	}
}

// SubmitResponse is returned by POST /api/v1/jobs
type SubmitResponse struct {
	JobID    string           `json:"job_id"`
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
	Error    *domain.JobError `json:"error,omitempty"`
}

// ProbeRequest represents a metadata probe request
type ProbeRequest struct {
	URL string `json:"url" binding:"required"`
}

// SubmitJob handles POST /api/v1/jobs
func (h *JobHandler) SubmitJob(c *gin.Context) {
	var req domain.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.jobMgr.Submit(req)
	if errors.Is(err, app.ErrManagerClosed) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	resp := SubmitResponse{JobID: id}
	if snap, getErr := h.jobMgr.Get(id); getErr == nil {
		resp.Snapshot = &snap
	}

	if err != nil {
		var je *domain.JobError
		if errors.As(err, &je) {
			resp.Error = je
		}
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetJob handles GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	snap, err := h.jobMgr.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, snap)
}

// ListJobs handles GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	filter := domain.JobFilter{
		Status: domain.JobStatus(c.Query("status")),
		Kind:   domain.JobKind(c.Query("kind")),
	}

	records, err := h.jobMgr.List(filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []*domain.JobRecord{}
	}

	c.JSON(http.StatusOK, records)
}

// GetStats handles GET /api/v1/jobs/stats
func (h *JobHandler) GetStats(c *gin.Context) {
	stats, err := h.jobMgr.Stats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// StartJob handles POST /api/v1/jobs/:id/start
func (h *JobHandler) StartJob(c *gin.Context) {
	id := c.Param("id")

	var opts app.StartOptions
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.jobMgr.Start(id, opts); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "job started"})
}

// CancelJob handles POST /api/v1/jobs/:id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	id := c.Param("id")

	if err := h.jobMgr.Cancel(id); err != nil {
		h.logger.Warn("Failed to cancel job", zap.String("job_id", id), zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "cancellation requested"})
}

// Probe handles POST /api/v1/probe
func (h *JobHandler) Probe(c *gin.Context) {
	var req ProbeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if h.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.probeTimeout)
		defer cancel()
	}

	meta, err := h.jobMgr.ProbeMetadata(ctx, req.URL)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, meta)
}

// statusFor maps manager and job errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrJobTerminal), errors.Is(err, app.ErrJobNotAwaitingStart):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingURL), errors.Is(err, domain.ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMetadataFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
