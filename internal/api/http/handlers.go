package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/GriffinCanCode/menuterm/backend/internal/domain/orchestrator"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/workspace"
	"github.com/GriffinCanCode/menuterm/backend/internal/providers/commands"
	"github.com/GriffinCanCode/menuterm/backend/internal/providers/settings"
	"github.com/GriffinCanCode/menuterm/backend/internal/providers/terminal"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionLister lists live backend sessions
type SessionLister interface {
	List() []terminal.SessionInfo
}

// RatioBand is the range split ratios are clamped into
type RatioBand struct {
	Min float64
	Max float64
}

// DefaultRatioBand keeps each side of a split at 20% or more
func DefaultRatioBand() RatioBand {
	return RatioBand{Min: 0.2, Max: 0.8}
}

// Clamp limits ratio to the band
func (b RatioBand) Clamp(ratio float64) float64 {
	if ratio < b.Min {
		return b.Min
	}
	if ratio > b.Max {
		return b.Max
	}
	return ratio
}

// Options configures Handlers
type Options struct {
	Workspace *workspace.Manager
	Sessions  SessionLister
	Settings  *settings.Store
	// Commands and Completer are optional; their routes are skipped when nil
	Commands  *commands.Runner
	Completer *commands.Completer
	Ratio     RatioBand
	Version   string
	Logger    *zap.Logger
}

// Handlers contains the REST handlers for tabs, panes and settings
type Handlers struct {
	workspace *workspace.Manager
	layout    *orchestrator.Orchestrator
	sessions  SessionLister
	settings  *settings.Store
	commands  *commands.Runner
	completer *commands.Completer
	ratio     RatioBand
	version   string
	logger    *zap.Logger
	started   time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(opts Options) *Handlers {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ratio := opts.Ratio
	if ratio == (RatioBand{}) {
		ratio = DefaultRatioBand()
	}
	return &Handlers{
		workspace: opts.Workspace,
		layout:    opts.Workspace.Layout(),
		sessions:  opts.Sessions,
		settings:  opts.Settings,
		commands:  opts.Commands,
		completer: opts.Completer,
		ratio:     ratio,
		version:   opts.Version,
		logger:    logger,
		started:   time.Now(),
	}
}

// Register mounts the API routes on r
func (h *Handlers) Register(r gin.IRouter) {
	tabs := r.Group("/tabs")
	{
		tabs.GET("", h.ListTabs)
		tabs.POST("", h.CreateTab)
		tabs.GET("/:tab", h.GetTab)
		tabs.DELETE("/:tab", h.CloseTab)
		tabs.GET("/:tab/panes", h.ListPanes)
		tabs.POST("/:tab/panes/:pane/split", h.SplitPane)
		tabs.POST("/:tab/panes/:pane/restart", h.RestartPane)
		tabs.DELETE("/:tab/panes/:pane", h.ClosePane)
		tabs.PUT("/:tab/active", h.SetActivePane)
		tabs.PUT("/:tab/branches/:branch/ratio", h.ResizeSplit)
	}

	r.GET("/settings", h.GetSettings)
	r.PUT("/settings", h.UpdateSettings)
	r.PUT("/settings/pinned", h.SetPinned)

	r.GET("/sessions", h.ListSessions)
	r.POST("/logs", h.IngestLogs)

	if h.completer != nil {
		r.GET("/complete", h.Complete)
	}
	if h.commands != nil {
		r.POST("/commands/exec", h.ExecCommand)
		r.POST("/commands/stream", h.StreamCommand)
	}
}

// Health handles health check
func (h *Handlers) Health(c *gin.Context) {
	sessions := 0
	if h.sessions != nil {
		sessions = len(h.sessions.List())
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"version":  h.version,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
		"tabs":     len(h.layout.Tabs()),
		"sessions": sessions,
	})
}

// ListSessions lists live backend sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	list := []terminal.SessionInfo{}
	if h.sessions != nil {
		list = append(list, h.sessions.List()...)
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": list,
		"count":    len(list),
	})
}

// fail writes err with the status its kind maps to
func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   msg,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrTabNotFound),
		errors.Is(err, orchestrator.ErrPaneNotFound),
		errors.Is(err, orchestrator.ErrBranchNotFound),
		errors.Is(err, workspace.ErrPaneNotMounted):
		return http.StatusNotFound
	case errors.Is(err, orchestrator.ErrLastPane):
		return http.StatusConflict
	case errors.Is(err, orchestrator.ErrInvalidRatio):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
