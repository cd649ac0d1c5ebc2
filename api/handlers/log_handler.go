package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/youtubify-go/pkg/logger"
)

const maxLogLimit = 1000

// LogHandler serves the status lines held by the event bus
type LogHandler struct {
	bus *logger.EventBus
}

// NewLogHandler creates a new log handler
func NewLogHandler(bus *logger.EventBus) *LogHandler {
	return &LogHandler{bus: bus}
}

// GetLogs handles GET /api/v1/logs
func (h *LogHandler) GetLogs(c *gin.Context) {
	limit := parseLimit(c.DefaultQuery("limit", "100"), 100)

	var entries []logger.LogEntry
	if q := c.Query("q"); q != "" {
		entries = h.bus.Search(q, limit)
	} else {
		entries = h.bus.Lines(limit)
	}
	if entries == nil {
		entries = []logger.LogEntry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

func parseLimit(s string, fallback int) int {
	limit, err := strconv.Atoi(s)
	if err != nil || limit < 0 {
		return fallback
	}
	if limit > maxLogLimit {
		return maxLogLimit
	}
	return limit
}
