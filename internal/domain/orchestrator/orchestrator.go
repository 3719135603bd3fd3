package orchestrator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/menuterm/backend/internal/domain/panetree"
	"github.com/GriffinCanCode/menuterm/backend/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// DefaultSettleDelay is one frame at 60Hz
const DefaultSettleDelay = 16 * time.Millisecond

var (
	ErrTabNotFound    = errors.New("tab not found")
	ErrPaneNotFound   = errors.New("pane not found")
	ErrBranchNotFound = errors.New("branch not found")
	ErrLastPane       = errors.New("cannot close the last pane")
	ErrInvalidRatio   = errors.New("ratio must be between 0 and 1")
)

// TabPaneState is the layout of one tab. Version increases with every
// change to any tab, so a consumer can drop a state older than one it has.
type TabPaneState struct {
	Root         panetree.Node `json:"root"`
	ActivePaneID string        `json:"active_pane_id"`
	Version      uint64        `json:"version"`
}

// UnmarshalJSON decodes Root through panetree.Unmarshal
func (s *TabPaneState) UnmarshalJSON(data []byte) error {
	var aux struct {
		Root         json.RawMessage `json:"root"`
		ActivePaneID string          `json:"active_pane_id"`
		Version      uint64          `json:"version"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var root panetree.Node
	if raw := bytes.TrimSpace(aux.Root); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		node, err := panetree.Unmarshal(raw)
		if err != nil {
			return err
		}
		root = node
	}
	*s = TabPaneState{Root: root, ActivePaneID: aux.ActivePaneID, Version: aux.Version}
	return nil
}

// LayoutFreezer is told which panes must hold their layout while a split is
// applied. Implementations must not call back into the Orchestrator.
type LayoutFreezer interface {
	Freeze(tabID string, paneIDs []string)
	Unfreeze(tabID string, paneIDs []string)
}

// ChangeFunc observes a tab after it changed. removed is true once the tab is gone.
type ChangeFunc func(tabID string, state TabPaneState, removed bool)

// Options configures an Orchestrator
type Options struct {
	Freezer     LayoutFreezer
	SettleDelay time.Duration
	Logger      *zap.Logger
	Metrics     *monitoring.Metrics
}

type change struct {
	tabID   string
	state   TabPaneState
	removed bool
}

// Orchestrator owns the pane trees of all tabs
type Orchestrator struct {
	mu      sync.RWMutex
	tabs    map[string]TabPaneState
	version uint64
	// Changes are queued under mu in commit order and delivered by one
	// goroutine at a time, outside mu.
	pending  []change
	draining bool

	freezer  LayoutFreezer
	settle   time.Duration
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	watchMu  sync.RWMutex
	watchers []ChangeFunc
}

// New creates an Orchestrator with no tabs
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	settle := opts.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &Orchestrator{
		tabs:    make(map[string]TabPaneState),
		freezer: opts.Freezer,
		settle:  settle,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// OnChange registers fn to run after every change to a tab
func (o *Orchestrator) OnChange(fn ChangeFunc) {
	o.watchMu.Lock()
	defer o.watchMu.Unlock()
	o.watchers = append(o.watchers, fn)
}

// InitializeTabPanes gives tabID a single fresh pane and returns its id.
// An already initialized tab keeps its layout and returns its active pane.
func (o *Orchestrator) InitializeTabPanes(tabID string) string {
	o.mu.Lock()
	if state, ok := o.tabs[tabID]; ok {
		o.mu.Unlock()
		return state.ActivePaneID
	}
	leaf := panetree.NewLeaf()
	o.commitLocked(tabID, TabPaneState{Root: leaf, ActivePaneID: leaf.ID})
	o.mu.Unlock()

	o.logger.Debug("Initialized tab", zap.String("tab_id", tabID), zap.String("pane_id", leaf.ID))
	o.notify()
	return leaf.ID
}

// CleanupTabPanes drops tabID and returns its final layout
func (o *Orchestrator) CleanupTabPanes(tabID string) (TabPaneState, bool) {
	o.mu.Lock()
	state, ok := o.tabs[tabID]
	if !ok {
		o.mu.Unlock()
		return TabPaneState{}, false
	}
	delete(o.tabs, tabID)
	o.version++
	o.pending = append(o.pending, change{tabID: tabID, state: state, removed: true})
	o.updateGaugesLocked()
	o.mu.Unlock()

	o.logger.Debug("Cleaned up tab", zap.String("tab_id", tabID))
	o.notify()
	return state, true
}

// SplitPane splits paneID along direction and focuses the new pane, whose
// id is returned. Panes that existed before the split are frozen until the
// layout has had SettleDelay to settle.
func (o *Orchestrator) SplitPane(tabID, paneID string, direction panetree.Direction) (string, error) {
	o.mu.Lock()
	state, ok := o.tabs[tabID]
	if !ok {
		o.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrTabNotFound, tabID)
	}
	if !panetree.Contains(state.Root, paneID) {
		o.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrPaneNotFound, paneID)
	}

	frozen := panetree.LeafIDs(state.Root)
	o.freeze(tabID, frozen)

	res, ok := panetree.Split(state.Root, paneID, direction)
	if !ok {
		o.mu.Unlock()
		o.unfreeze(tabID, frozen)
		return "", fmt.Errorf("%w: %s", ErrPaneNotFound, paneID)
	}
	o.commitLocked(tabID, TabPaneState{Root: res.Root, ActivePaneID: res.NewPaneID})
	o.mu.Unlock()

	o.metrics.RecordSplit(direction.String())
	o.logger.Debug("Split pane",
		zap.String("tab_id", tabID),
		zap.String("pane_id", paneID),
		zap.String("new_pane_id", res.NewPaneID),
		zap.Stringer("direction", direction))
	o.notify()

	time.AfterFunc(o.settle, func() { o.unfreeze(tabID, frozen) })
	return res.NewPaneID, nil
}

// ClosePane removes paneID. If it was focused, focus moves to its sibling.
// Closing the only pane of a tab fails with ErrLastPane and changes nothing.
func (o *Orchestrator) ClosePane(tabID, paneID string) error {
	o.mu.Lock()
	state, ok := o.tabs[tabID]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTabNotFound, tabID)
	}

	next, _ := panetree.FindNextPaneAfterClose(state.Root, paneID)
	root := panetree.Remove(state.Root, paneID)
	switch {
	case root == nil:
		o.mu.Unlock()
		o.metrics.RecordClose("last_pane")
		return ErrLastPane
	case root == state.Root:
		o.mu.Unlock()
		o.metrics.RecordClose("not_found")
		return fmt.Errorf("%w: %s", ErrPaneNotFound, paneID)
	}

	active := state.ActivePaneID
	if active == paneID || !panetree.Contains(root, active) {
		active = next
	}
	o.commitLocked(tabID, TabPaneState{Root: root, ActivePaneID: active})
	o.mu.Unlock()

	o.metrics.RecordClose("closed")
	o.logger.Debug("Closed pane",
		zap.String("tab_id", tabID),
		zap.String("pane_id", paneID),
		zap.String("active_pane_id", active))
	o.notify()
	return nil
}

// SetActivePane focuses paneID
func (o *Orchestrator) SetActivePane(tabID, paneID string) error {
	return o.mutate(tabID, func(state TabPaneState) (TabPaneState, error) {
		if !panetree.Contains(state.Root, paneID) {
			return state, fmt.Errorf("%w: %s", ErrPaneNotFound, paneID)
		}
		state.ActivePaneID = paneID
		return state, nil
	})
}

// UpdatePaneSessionID records the PTY session bound to paneID
func (o *Orchestrator) UpdatePaneSessionID(tabID, paneID, sessionID string) error {
	return o.mutate(tabID, func(state TabPaneState) (TabPaneState, error) {
		if !panetree.Contains(state.Root, paneID) {
			return state, fmt.Errorf("%w: %s", ErrPaneNotFound, paneID)
		}
		state.Root = panetree.UpdatePaneSession(state.Root, paneID, sessionID)
		return state, nil
	})
}

// ResizeSplit sets the ratio of branchID. The ratio is taken as given; only
// values outside (0, 1) are rejected.
func (o *Orchestrator) ResizeSplit(tabID, branchID string, ratio float64) error {
	if !(ratio > 0 && ratio < 1) {
		return fmt.Errorf("%w: %v", ErrInvalidRatio, ratio)
	}
	return o.mutate(tabID, func(state TabPaneState) (TabPaneState, error) {
		if _, ok := panetree.FindBranch(state.Root, branchID); !ok {
			return state, fmt.Errorf("%w: %s", ErrBranchNotFound, branchID)
		}
		state.Root = panetree.UpdateBranchRatio(state.Root, branchID, ratio)
		return state, nil
	})
}

// GetPaneTree returns the current root of tabID
func (o *Orchestrator) GetPaneTree(tabID string) (panetree.Node, bool) {
	state, ok := o.State(tabID)
	return state.Root, ok
}

// GetActivePaneID returns the focused pane of tabID
func (o *Orchestrator) GetActivePaneID(tabID string) (string, bool) {
	state, ok := o.State(tabID)
	return state.ActivePaneID, ok
}

// GetAllPanes returns the leaves of tabID in layout order
func (o *Orchestrator) GetAllPanes(tabID string) []*panetree.Leaf {
	state, ok := o.State(tabID)
	if !ok {
		return nil
	}
	return panetree.Leaves(state.Root)
}

// GetPaneCount returns the number of panes in tabID, 0 for unknown tabs
func (o *Orchestrator) GetPaneCount(tabID string) int {
	state, ok := o.State(tabID)
	if !ok {
		return 0
	}
	return panetree.CountLeaves(state.Root)
}

// State returns a snapshot of tabID's layout
func (o *Orchestrator) State(tabID string) (TabPaneState, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	state, ok := o.tabs[tabID]
	return state, ok
}

// Tabs returns the ids of all initialized tabs, sorted
func (o *Orchestrator) Tabs() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ids := make([]string, 0, len(o.tabs))
	for id := range o.tabs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FindPane returns the tab holding paneID
func (o *Orchestrator) FindPane(paneID string) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for tabID, state := range o.tabs {
		if panetree.Contains(state.Root, paneID) {
			return tabID, true
		}
	}
	return "", false
}

func (o *Orchestrator) mutate(tabID string, fn func(TabPaneState) (TabPaneState, error)) error {
	o.mu.Lock()
	state, ok := o.tabs[tabID]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTabNotFound, tabID)
	}
	updated, err := fn(state)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	if updated == state {
		o.mu.Unlock()
		return nil
	}
	o.commitLocked(tabID, updated)
	o.mu.Unlock()

	o.notify()
	return nil
}

func (o *Orchestrator) freeze(tabID string, paneIDs []string) {
	if o.freezer == nil {
		return
	}
	o.freezer.Freeze(tabID, paneIDs)
	o.metrics.AddFrozen(len(paneIDs))
}

func (o *Orchestrator) unfreeze(tabID string, paneIDs []string) {
	if o.freezer == nil {
		return
	}
	o.freezer.Unfreeze(tabID, paneIDs)
	o.metrics.AddFrozen(-len(paneIDs))
}

func (o *Orchestrator) updateGaugesLocked() {
	panes := 0
	for _, state := range o.tabs {
		panes += panetree.CountLeaves(state.Root)
	}
	o.metrics.SetLayout(len(o.tabs), panes)
}

// commitLocked stores state under a new version and queues its notification
func (o *Orchestrator) commitLocked(tabID string, state TabPaneState) {
	o.version++
	state.Version = o.version
	o.tabs[tabID] = state
	o.pending = append(o.pending, change{tabID: tabID, state: state})
	o.updateGaugesLocked()
}

// notify delivers queued changes in commit order. If another goroutine is
// already delivering, it picks up ours too, so watchers never see an older
// state after a newer one. A watcher may call back into the Orchestrator.
func (o *Orchestrator) notify() {
	o.mu.Lock()
	if o.draining {
		o.mu.Unlock()
		return
	}
	o.draining = true
	for len(o.pending) > 0 {
		c := o.pending[0]
		o.pending[0] = change{}
		o.pending = o.pending[1:]
		o.mu.Unlock()

		o.watchMu.RLock()
		watchers := append([]ChangeFunc(nil), o.watchers...)
		o.watchMu.RUnlock()
		for _, fn := range watchers {
			fn(c.tabID, c.state, c.removed)
		}

		o.mu.Lock()
	}
	o.pending = nil
	o.draining = false
	o.mu.Unlock()
}
