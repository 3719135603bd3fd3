package workspace

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/menuterm/backend/internal/domain/orchestrator"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/panetree"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/ptysession"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/surface"
	"github.com/GriffinCanCode/menuterm/backend/internal/shared/id"
	"go.uber.org/zap"
)

// ErrPaneNotMounted is returned for panes with no session
var ErrPaneNotMounted = errors.New("pane not mounted")

// Manager mounts sessions for the panes the orchestrator lays out
type Manager struct {
	layout   *orchestrator.Orchestrator
	surfaces *surface.Registry
	backend  ptysession.Backend
	router   *ptysession.Router
	opts     ptysession.Options
	logger   *zap.Logger

	// syncMu serializes reconciling mounts against the layout, so a Sync
	// working from an older tree can't undo a newer one
	syncMu sync.Mutex

	mu     sync.Mutex
	mounts map[string]*mount
}

type mount struct {
	tabID   string
	session *ptysession.Session
}

// PaneInfo describes a mounted pane
type PaneInfo struct {
	TabID     string `json:"tab_id"`
	PaneID    string `json:"pane_id"`
	SessionID string `json:"session_id,omitempty"`
	State     string `json:"state"`
	Cols      int    `json:"cols"`
	Rows      int    `json:"rows"`
}

// New creates a Manager. opts is the template for every mounted session;
// its OnSessionCreated is replaced per pane.
func New(layout *orchestrator.Orchestrator, surfaces *surface.Registry, backend ptysession.Backend,
	router *ptysession.Router, opts ptysession.Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		layout:   layout,
		surfaces: surfaces,
		backend:  backend,
		router:   router,
		opts:     opts,
		logger:   logger,
		mounts:   make(map[string]*mount),
	}
	surfaces.SetResizeHandler(m.resized)
	return m
}

// OpenTab creates a tab with one pane and starts its shell
func (m *Manager) OpenTab() (tabID, paneID string) {
	tabID = id.NewTabID().String()
	paneID = m.layout.InitializeTabPanes(tabID)
	m.Sync(tabID)
	return tabID, paneID
}

// CloseTab drops a tab and closes all of its sessions
func (m *Manager) CloseTab(tabID string) error {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	state, ok := m.layout.CleanupTabPanes(tabID)
	if !ok {
		return fmt.Errorf("%w: %s", orchestrator.ErrTabNotFound, tabID)
	}
	for _, leaf := range panetree.Leaves(state.Root) {
		m.unmount(leaf.ID)
	}
	return nil
}

// SplitPane splits paneID and starts a shell in the new pane
func (m *Manager) SplitPane(tabID, paneID string, direction panetree.Direction) (string, error) {
	newPaneID, err := m.layout.SplitPane(tabID, paneID, direction)
	if err != nil {
		return "", err
	}
	m.Sync(tabID)
	return newPaneID, nil
}

// ClosePane removes paneID from its tab and closes its session
func (m *Manager) ClosePane(tabID, paneID string) error {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	if err := m.layout.ClosePane(tabID, paneID); err != nil {
		return err
	}
	m.unmount(paneID)
	return nil
}

// Sync mounts sessions for unmounted panes of tabID and disposes sessions of
// panes no longer in its tree
func (m *Manager) Sync(tabID string) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	state, ok := m.layout.State(tabID)
	if !ok {
		return
	}

	leaves := panetree.Leaves(state.Root)
	present := make(map[string]bool, len(leaves))
	for _, leaf := range leaves {
		present[leaf.ID] = true
	}

	var stale []string
	m.mu.Lock()
	for paneID, mt := range m.mounts {
		if mt.tabID == tabID && !present[paneID] {
			stale = append(stale, paneID)
		}
	}
	m.mu.Unlock()

	for _, paneID := range stale {
		m.unmount(paneID)
	}
	for _, leaf := range leaves {
		m.mount(tabID, leaf.ID, leaf.SessionID)
	}
}

// Input sends keystrokes to paneID's session
func (m *Manager) Input(paneID, data string) error {
	s, ok := m.session(paneID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPaneNotMounted, paneID)
	}
	s.Write(data)
	return nil
}

// Resize reports the client-measured size of paneID. The session is resized
// once the size is applied, which may be deferred while the pane is frozen.
func (m *Manager) Resize(paneID string, cols, rows int) error {
	if _, ok := m.session(paneID); !ok {
		return fmt.Errorf("%w: %s", ErrPaneNotMounted, paneID)
	}
	m.surfaces.Ensure(paneID).ReportSize(cols, rows)
	return nil
}

// RestartPane gives paneID a fresh session object. A live backend session is
// handed over and reused; otherwise a new one is created. This is the way out
// of the failed state.
func (m *Manager) RestartPane(tabID, paneID string) error {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	m.mu.Lock()
	mt, ok := m.mounts[paneID]
	if !ok || mt.tabID != tabID {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPaneNotMounted, paneID)
	}
	delete(m.mounts, paneID)
	m.mu.Unlock()

	sessionID := mt.session.Detach()
	m.logger.Info("Restarting pane",
		zap.String("tab_id", tabID),
		zap.String("pane_id", paneID),
		zap.String("session_id", sessionID))

	m.mount(tabID, paneID, sessionID)
	return nil
}

// Pane describes paneID's session
func (m *Manager) Pane(paneID string) (PaneInfo, bool) {
	m.mu.Lock()
	mt, ok := m.mounts[paneID]
	m.mu.Unlock()
	if !ok {
		return PaneInfo{}, false
	}

	cols, rows := m.surfaces.Ensure(paneID).Size()
	return PaneInfo{
		TabID:     mt.tabID,
		PaneID:    paneID,
		SessionID: mt.session.SessionID(),
		State:     mt.session.State().String(),
		Cols:      cols,
		Rows:      rows,
	}, true
}

// Snapshot returns the retained output of paneID
func (m *Manager) Snapshot(paneID string) string {
	s, ok := m.surfaces.Get(paneID)
	if !ok {
		return ""
	}
	return s.Snapshot()
}

// Layout returns the orchestrator the manager follows
func (m *Manager) Layout() *orchestrator.Orchestrator {
	return m.layout
}

// Surfaces returns the surface registry
func (m *Manager) Surfaces() *surface.Registry {
	return m.surfaces
}

// Shutdown closes every session
func (m *Manager) Shutdown() {
	m.mu.Lock()
	mounts := m.mounts
	m.mounts = make(map[string]*mount)
	m.mu.Unlock()

	for paneID, mt := range mounts {
		mt.session.Dispose()
		m.surfaces.Remove(paneID)
	}
}

func (m *Manager) mount(tabID, paneID, existingSessionID string) {
	m.mu.Lock()
	if _, ok := m.mounts[paneID]; ok {
		m.mu.Unlock()
		return
	}

	surf := m.surfaces.Ensure(paneID)
	opts := m.opts
	opts.Logger = m.logger.With(zap.String("tab_id", tabID), zap.String("pane_id", paneID))
	opts.OnSessionCreated = func(sessionID string) {
		if err := m.layout.UpdatePaneSessionID(tabID, paneID, sessionID); err != nil {
			m.logger.Debug("Pane gone before its session was recorded",
				zap.String("pane_id", paneID),
				zap.Error(err))
		}
	}
	s := ptysession.New(m.backend, m.router, surf, opts)
	m.mounts[paneID] = &mount{tabID: tabID, session: s}
	m.mu.Unlock()

	cols, rows := surf.Size()
	if existingSessionID != "" {
		s.Reuse(existingSessionID, cols, rows)
		return
	}
	s.Create(cols, rows)
}

func (m *Manager) unmount(paneID string) {
	m.mu.Lock()
	mt, ok := m.mounts[paneID]
	delete(m.mounts, paneID)
	m.mu.Unlock()

	if ok {
		mt.session.Dispose()
	}
	m.surfaces.Remove(paneID)
}

func (m *Manager) session(paneID string) (*ptysession.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.mounts[paneID]
	if !ok {
		return nil, false
	}
	return mt.session, true
}

func (m *Manager) resized(paneID string, cols, rows int) {
	if s, ok := m.session(paneID); ok {
		s.Resize(cols, rows)
	}
}
