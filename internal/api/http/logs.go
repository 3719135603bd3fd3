package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxUILogBatch = 100

// UILogEntry is one log line from the webview
type UILogEntry struct {
	Level   string                 `json:"level"`
	Message string                 `json:"message" binding:"required"`
	PaneID  string                 `json:"pane_id"`
	Context map[string]interface{} `json:"context"`
}

// UILogBatch is a batch of webview log lines
type UILogBatch struct {
	Entries []UILogEntry `json:"entries" binding:"required,min=1,dive"`
}

// IngestLogs writes webview log lines into the server log under the "ui"
// logger, so terminal rendering problems show up next to the PTY events
// that caused them.
func (h *Handlers) IngestLogs(c *gin.Context) {
	var batch UILogBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		badRequest(c, err.Error())
		return
	}
	if len(batch.Entries) > maxUILogBatch {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"success": false,
			"error":   "too many log entries",
		})
		return
	}

	ui := h.logger.Named("ui")
	for _, entry := range batch.Entries {
		fields := make([]zap.Field, 0, len(entry.Context)+1)
		if entry.PaneID != "" {
			fields = append(fields, zap.String("pane_id", entry.PaneID))
		}
		for k, v := range entry.Context {
			fields = append(fields, zap.Any(k, v))
		}
		if ce := ui.Check(uiLevel(entry.Level), entry.Message); ce != nil {
			ce.Write(fields...)
		}
	}
	c.JSON(http.StatusOK, gin.H{"accepted": len(batch.Entries)})
}

// uiLevel maps browser console levels; anything unknown is info and nothing
// from the UI may panic or exit the server
func uiLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
