package http

import (
	"net/http"

	"github.com/GriffinCanCode/menuterm/backend/internal/domain/panetree"
	"github.com/gin-gonic/gin"
)

// SplitPane splits a pane and starts a shell in the new one
func (h *Handlers) SplitPane(c *gin.Context) {
	tabID, paneID := c.Param("tab"), c.Param("pane")

	var req struct {
		Direction string `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	direction, err := panetree.ParseDirection(req.Direction)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	newPaneID, err := h.workspace.SplitPane(tabID, paneID, direction)
	if err != nil {
		h.fail(c, err)
		return
	}

	state, _ := h.layout.State(tabID)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"pane_id": newPaneID,
		"tab":     newTabView(tabID, state),
	})
}

// ClosePane closes a pane. Closing the last pane of a tab is refused.
func (h *Handlers) ClosePane(c *gin.Context) {
	tabID, paneID := c.Param("tab"), c.Param("pane")

	if err := h.workspace.ClosePane(tabID, paneID); err != nil {
		h.fail(c, err)
		return
	}

	state, _ := h.layout.State(tabID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tab":     newTabView(tabID, state),
	})
}

// RestartPane gives a pane a fresh session
func (h *Handlers) RestartPane(c *gin.Context) {
	tabID, paneID := c.Param("tab"), c.Param("pane")

	if err := h.workspace.RestartPane(tabID, paneID); err != nil {
		h.fail(c, err)
		return
	}

	info, _ := h.workspace.Pane(paneID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pane":    info,
	})
}

// SetActivePane focuses a pane
func (h *Handlers) SetActivePane(c *gin.Context) {
	tabID := c.Param("tab")

	var req struct {
		PaneID string `json:"pane_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.layout.SetActivePane(tabID, req.PaneID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"active_pane_id": req.PaneID,
	})
}

// ResizeSplit sets a branch's ratio. Ratios are clamped into the configured
// band; reset restores an even split.
func (h *Handlers) ResizeSplit(c *gin.Context) {
	tabID, branchID := c.Param("tab"), c.Param("branch")

	var req struct {
		Ratio *float64 `json:"ratio"`
		Reset bool     `json:"reset"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	var ratio float64
	switch {
	case req.Reset:
		ratio = 0.5
	case req.Ratio != nil:
		ratio = h.ratio.Clamp(*req.Ratio)
	default:
		badRequest(c, "ratio or reset is required")
		return
	}

	if err := h.layout.ResizeSplit(tabID, branchID, ratio); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"branch_id": branchID,
		"ratio":     ratio,
	})
}
