package surface

import (
	"sync"

	"go.uber.org/zap"
)

// DefaultScrollback is the number of output bytes kept per pane
const DefaultScrollback = 256 * 1024

// Listener receives surface activity. Callbacks run on the writer's goroutine
// and must not block.
type Listener struct {
	Output func(paneID, data string)
	Freeze func(tabID string, paneIDs []string, frozen bool)
}

// Options configures a Registry
type Options struct {
	Scrollback int
	// OnResize runs when a pane's applied size changes
	OnResize func(paneID string, cols, rows int)
	Logger   *zap.Logger
}

// Registry owns the surfaces of all panes
type Registry struct {
	scrollback int
	onResize   func(string, int, int)
	logger     *zap.Logger

	mu        sync.RWMutex
	surfaces  map[string]*Surface
	listeners map[uint64]Listener
	nextID    uint64
}

// NewRegistry creates an empty registry
func NewRegistry(opts Options) *Registry {
	if opts.Scrollback <= 0 {
		opts.Scrollback = DefaultScrollback
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		scrollback: opts.Scrollback,
		onResize:   opts.OnResize,
		logger:     logger,
		surfaces:   make(map[string]*Surface),
		listeners:  make(map[uint64]Listener),
	}
}

// Ensure returns the surface for paneID, creating it if needed
func (r *Registry) Ensure(paneID string) *Surface {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.surfaces[paneID]; ok {
		return s
	}
	s := newSurface(paneID, r.scrollback, r.emitOutput, r.resized)
	r.surfaces[paneID] = s
	return s
}

// Get returns the surface for paneID
func (r *Registry) Get(paneID string) (*Surface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.surfaces[paneID]
	return s, ok
}

// Remove forgets paneID's surface
func (r *Registry) Remove(paneID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.surfaces, paneID)
}

// Len returns the number of surfaces
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.surfaces)
}

// Subscribe registers l and returns a function that removes it
func (r *Registry) Subscribe(l Listener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.listeners[id] = l

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
}

// Freeze holds size reports for paneIDs
func (r *Registry) Freeze(tabID string, paneIDs []string) {
	for _, id := range paneIDs {
		r.Ensure(id).freeze()
	}
	r.logger.Debug("Froze layout", zap.String("tab_id", tabID), zap.Strings("pane_ids", paneIDs))
	r.emitFreeze(tabID, paneIDs, true)
}

// Unfreeze applies the most recent held size of each pane
func (r *Registry) Unfreeze(tabID string, paneIDs []string) {
	for _, id := range paneIDs {
		if s, ok := r.Get(id); ok {
			s.unfreeze()
		}
	}
	r.logger.Debug("Unfroze layout", zap.String("tab_id", tabID), zap.Strings("pane_ids", paneIDs))
	r.emitFreeze(tabID, paneIDs, false)
}

func (r *Registry) snapshotListeners() []Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		out = append(out, l)
	}
	return out
}

func (r *Registry) emitOutput(paneID, data string) {
	for _, l := range r.snapshotListeners() {
		if l.Output != nil {
			l.Output(paneID, data)
		}
	}
}

func (r *Registry) emitFreeze(tabID string, paneIDs []string, frozen bool) {
	for _, l := range r.snapshotListeners() {
		if l.Freeze != nil {
			l.Freeze(tabID, paneIDs, frozen)
		}
	}
}

func (r *Registry) resized(paneID string, cols, rows int) {
	r.mu.RLock()
	fn := r.onResize
	r.mu.RUnlock()

	if fn != nil {
		fn(paneID, cols, rows)
	}
}

// SetResizeHandler replaces the callback run when a pane's size changes
func (r *Registry) SetResizeHandler(fn func(paneID string, cols, rows int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onResize = fn
}
