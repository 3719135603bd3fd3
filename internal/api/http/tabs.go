package http

import (
	"fmt"
	"net/http"

	"github.com/GriffinCanCode/menuterm/backend/internal/domain/orchestrator"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/panetree"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/workspace"
	"github.com/gin-gonic/gin"
)

// TabView is a tab's layout as returned by the API
type TabView struct {
	TabID string `json:"tab_id"`
	orchestrator.TabPaneState
	PaneCount int `json:"pane_count"`
}

func newTabView(tabID string, state orchestrator.TabPaneState) TabView {
	return TabView{
		TabID:        tabID,
		TabPaneState: state,
		PaneCount:    panetree.CountLeaves(state.Root),
	}
}

// ListTabs lists all tabs
func (h *Handlers) ListTabs(c *gin.Context) {
	tabs := []TabView{}
	for _, tabID := range h.layout.Tabs() {
		if state, ok := h.layout.State(tabID); ok {
			tabs = append(tabs, newTabView(tabID, state))
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"tabs":  tabs,
		"count": len(tabs),
	})
}

// CreateTab opens a tab with a single pane running a shell
func (h *Handlers) CreateTab(c *gin.Context) {
	tabID, paneID := h.workspace.OpenTab()
	state, _ := h.layout.State(tabID)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"tab":     newTabView(tabID, state),
		"pane_id": paneID,
	})
}

// GetTab returns a tab's tree, active pane and pane count
func (h *Handlers) GetTab(c *gin.Context) {
	tabID := c.Param("tab")

	state, ok := h.layout.State(tabID)
	if !ok {
		h.fail(c, fmt.Errorf("%w: %s", orchestrator.ErrTabNotFound, tabID))
		return
	}
	c.JSON(http.StatusOK, newTabView(tabID, state))
}

// CloseTab closes a tab and all of its sessions
func (h *Handlers) CloseTab(c *gin.Context) {
	tabID := c.Param("tab")

	if err := h.workspace.CloseTab(tabID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tab_id":  tabID,
	})
}

// ListPanes lists the panes of a tab in layout order with their sessions
func (h *Handlers) ListPanes(c *gin.Context) {
	tabID := c.Param("tab")

	state, ok := h.layout.State(tabID)
	if !ok {
		h.fail(c, fmt.Errorf("%w: %s", orchestrator.ErrTabNotFound, tabID))
		return
	}

	panes := []workspace.PaneInfo{}
	for _, leaf := range panetree.Leaves(state.Root) {
		info, mounted := h.workspace.Pane(leaf.ID)
		if !mounted {
			info = workspace.PaneInfo{TabID: tabID, PaneID: leaf.ID, SessionID: leaf.SessionID, State: "unmounted"}
		}
		panes = append(panes, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"tab_id":         tabID,
		"active_pane_id": state.ActivePaneID,
		"panes":          panes,
		"count":          len(panes),
	})
}
