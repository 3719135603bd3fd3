package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/GriffinCanCode/menuterm/backend/internal/providers/commands"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CommandRequest runs one program outside any pane
type CommandRequest struct {
	Command   string   `json:"command" binding:"required"`
	Args      []string `json:"args"`
	TimeoutMS int64    `json:"timeout_ms" binding:"min=0"`
}

func (r CommandRequest) timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// Complete lists executables on PATH starting with ?prefix=
func (h *Handlers) Complete(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"completions": h.completer.Complete(c.Query("prefix")),
	})
}

// ExecCommand runs a command to completion and returns its output
func (h *Handlers) ExecCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.commands.Run(c.Request.Context(), req.Command, req.Args, req.timeout())
	if err != nil {
		h.commandFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// StreamCommand runs a command and relays its output as server-sent events:
// "stdout" and "stderr" carry chunks, "exit" the exit code, "error" a
// failure after output started.
func (h *Handlers) StreamCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	started := false
	code, err := h.commands.Stream(c.Request.Context(), req.Command, req.Args, req.timeout(), func(chunk commands.Chunk) {
		started = true
		event := "stdout"
		if chunk.Stderr {
			event = "stderr"
		}
		c.SSEvent(event, chunk)
		c.Writer.Flush()
	})
	if err != nil {
		if !started {
			h.commandFailed(c, err)
			return
		}
		c.SSEvent("error", gin.H{"error": err.Error()})
		return
	}
	c.SSEvent("exit", gin.H{"exit_code": code})
}

func (h *Handlers) commandFailed(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, commands.ErrInvalidCommand):
		status = http.StatusBadRequest
	case errors.Is(err, commands.ErrCommandNotFound):
		status = http.StatusNotFound
	case errors.Is(err, commands.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, commands.ErrTimeout):
		status = http.StatusGatewayTimeout
	default:
		h.logger.Error("Command failed", zap.Error(err))
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}
