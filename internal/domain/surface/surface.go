package surface

import (
	"sync"
)

// Default size reported before the client measures the pane
const (
	DefaultCols = 80
	DefaultRows = 24
)

// Surface is one pane's output sink and size source
type Surface struct {
	paneID     string
	scrollback *Scrollback
	onOutput   func(paneID, data string)
	onResize   func(paneID string, cols, rows int)

	// outMu orders scrollback writes with listener delivery and Replay
	outMu sync.Mutex

	mu      sync.Mutex
	cols    int
	rows    int
	frozen  int
	pending *size
}

type size struct{ cols, rows int }

func newSurface(paneID string, scrollback int, onOutput func(string, string), onResize func(string, int, int)) *Surface {
	return &Surface{
		paneID:     paneID,
		scrollback: NewScrollback(scrollback),
		onOutput:   onOutput,
		onResize:   onResize,
		cols:       DefaultCols,
		rows:       DefaultRows,
	}
}

// PaneID returns the pane this surface renders
func (s *Surface) PaneID() string {
	return s.paneID
}

// Write records output and forwards it to listeners
func (s *Surface) Write(data string) {
	if data == "" {
		return
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()

	_, _ = s.scrollback.Write([]byte(data))
	if s.onOutput != nil {
		s.onOutput(s.paneID, data)
	}
}

// Size returns the last applied dimensions
func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

// Snapshot returns the retained scrollback
func (s *Surface) Snapshot() string {
	return string(s.scrollback.Bytes())
}

// Replay calls fn with the retained scrollback. No output is written or
// delivered to listeners while fn runs, so a listener registered from fn
// sees exactly the output that follows the snapshot.
func (s *Surface) Replay(fn func(snapshot string)) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fn(string(s.scrollback.Bytes()))
}

// ReportSize records a size measured by the client. It reports whether the
// size was applied now; a frozen surface holds it until Unfreeze.
func (s *Surface) ReportSize(cols, rows int) bool {
	if cols <= 0 || rows <= 0 {
		return false
	}

	s.mu.Lock()
	if s.frozen > 0 {
		s.pending = &size{cols, rows}
		s.mu.Unlock()
		return false
	}
	changed := s.cols != cols || s.rows != rows
	s.cols, s.rows = cols, rows
	s.mu.Unlock()

	if changed && s.onResize != nil {
		s.onResize(s.paneID, cols, rows)
	}
	return true
}

// Frozen reports whether size reports are being held
func (s *Surface) Frozen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frozen > 0
}

func (s *Surface) freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen++
}

func (s *Surface) unfreeze() {
	s.mu.Lock()
	if s.frozen == 0 {
		s.mu.Unlock()
		return
	}
	s.frozen--
	if s.frozen > 0 || s.pending == nil {
		s.mu.Unlock()
		return
	}
	next := *s.pending
	s.pending = nil
	s.mu.Unlock()

	s.ReportSize(next.cols, next.rows)
}
