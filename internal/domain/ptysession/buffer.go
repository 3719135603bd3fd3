package ptysession

import (
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/menuterm/backend/internal/infrastructure/monitoring"
)

// DefaultFlushInterval is how long output is held before it is handed on
const DefaultFlushInterval = 5 * time.Millisecond

// DataBuffer coalesces output chunks that arrive within one flush interval
// into a single onFlush call.
type DataBuffer struct {
	mu       sync.Mutex
	pending  []string
	size     int
	timer    *time.Timer
	seq      uint64
	disposed bool

	interval time.Duration
	onFlush  func(string)
	metrics  *monitoring.Metrics
}

// NewDataBuffer creates a buffer that delivers joined chunks to onFlush
func NewDataBuffer(interval time.Duration, onFlush func(string)) *DataBuffer {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &DataBuffer{
		interval: interval,
		onFlush:  onFlush,
	}
}

// Push queues chunk and arms the flush timer if it is not already armed.
// Empty chunks and pushes after Dispose are dropped.
func (b *DataBuffer) Push(chunk string) {
	if chunk == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return
	}
	b.pending = append(b.pending, chunk)
	b.size += len(chunk)

	if b.timer == nil {
		b.seq++
		seq := b.seq
		b.timer = time.AfterFunc(b.interval, func() { b.fire(seq) })
	}
}

// Flush delivers pending data now and disarms the timer
func (b *DataBuffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked()
	b.flushLocked()
}

// Clear drops pending data without delivering it
func (b *DataBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked()
	b.pending = nil
	b.size = 0
}

// Dispose flushes what is pending and stops accepting data
func (b *DataBuffer) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return
	}
	b.stopLocked()
	b.flushLocked()
	b.disposed = true
}

// Pending returns the number of queued chunks
func (b *DataBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *DataBuffer) fire(seq uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A Flush or Clear since arming bumped seq
	if seq != b.seq || b.timer == nil {
		return
	}
	b.timer = nil
	b.flushLocked()
}

func (b *DataBuffer) stopLocked() {
	if b.timer == nil {
		return
	}
	b.timer.Stop()
	b.timer = nil
	b.seq++
}

func (b *DataBuffer) flushLocked() {
	if len(b.pending) == 0 {
		return
	}
	chunks, size := len(b.pending), b.size
	joined := strings.Join(b.pending, "")
	b.pending = nil
	b.size = 0

	if b.onFlush != nil {
		b.onFlush(joined)
	}
	b.metrics.RecordFlush(chunks, size)
}
