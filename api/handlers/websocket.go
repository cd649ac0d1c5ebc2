package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/youtubify-go/internal/app"
	"github.com/yourusername/youtubify-go/pkg/logger"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamHandler upgrades requests to websockets that stream log lines or job snapshots
type StreamHandler struct {
	bus    *logger.EventBus
	jobMgr *app.JobManager
	logger *zap.Logger
}

// NewStreamHandler creates a new websocket stream handler
func NewStreamHandler(bus *logger.EventBus, jobMgr *app.JobManager, log *zap.Logger) *StreamHandler {
	return &StreamHandler{bus: bus, jobMgr: jobMgr, logger: log}
}

// StreamLogs handles GET /api/v1/logs/stream
func (h *StreamHandler) StreamLogs(c *gin.Context) {
	backlog := parseLimit(c.DefaultQuery("backlog", "50"), 50)

	// subscribe before reading the backlog so no line falls between the two
	entries, unsubscribe := h.bus.Subscribe(256)
	defer unsubscribe()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("Log stream client connected", zap.String("remote_addr", c.Request.RemoteAddr))

	var lastSeq uint64
	for _, entry := range h.bus.Lines(backlog) {
		if err := writeJSON(conn, entry); err != nil {
			return
		}
		lastSeq = entry.Seq
	}

	done := readUntilClosed(conn)
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if entry.Seq <= lastSeq {
				continue
			}
			if err := writeJSON(conn, entry); err != nil {
				h.logger.Debug("Log stream write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := ping(conn); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

// StreamJob handles GET /api/v1/jobs/:id/events
func (h *StreamHandler) StreamJob(c *gin.Context) {
	id := c.Param("id")

	snaps, unsubscribe, err := h.jobMgr.Subscribe(id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	defer unsubscribe()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	done := readUntilClosed(conn)
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				// terminal snapshot delivered
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
				return
			}
			if err := writeJSON(conn, snap); err != nil {
				h.logger.Debug("Job stream write failed", zap.String("job_id", id), zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := ping(conn); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

func ping(conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// readUntilClosed drains client frames so pongs and close frames are processed
func readUntilClosed(conn *websocket.Conn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return done
}
