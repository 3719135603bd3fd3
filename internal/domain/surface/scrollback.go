package surface

import "sync"

// Scrollback is a thread-safe circular buffer for terminal output
type Scrollback struct {
	data []byte
	size int
	head int
	tail int
	full bool
	mu   sync.RWMutex
}

// NewScrollback creates a buffer keeping the last size bytes
func NewScrollback(size int) *Scrollback {
	if size <= 0 {
		size = 1
	}
	return &Scrollback{
		data: make([]byte, size),
		size: size,
	}
}

// Write writes data to the buffer, overwriting the oldest bytes when full
func (b *Scrollback) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Only the tail of an oversized write can survive
	if len(p) >= b.size {
		copy(b.data, p[len(p)-b.size:])
		b.head, b.tail, b.full = 0, 0, true
		return len(p), nil
	}

	for _, c := range p {
		b.data[b.tail] = c
		b.tail = (b.tail + 1) % b.size
		if b.full {
			b.head = b.tail
		} else if b.tail == b.head {
			b.full = true
		}
	}

	return len(p), nil
}

// Bytes returns a copy of the buffered data, oldest first
func (b *Scrollback) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := b.lenLocked()
	result := make([]byte, n)
	if n == 0 {
		return result
	}
	if b.head < b.tail {
		copy(result, b.data[b.head:b.tail])
		return result
	}
	// Wrapped around
	first := copy(result, b.data[b.head:])
	copy(result[first:], b.data[:b.tail])
	return result
}

// Len returns the number of buffered bytes
func (b *Scrollback) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lenLocked()
}

// Reset drops all buffered data
func (b *Scrollback) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head, b.tail, b.full = 0, 0, false
}

func (b *Scrollback) lenLocked() int {
	if b.full {
		return b.size
	}
	if b.tail >= b.head {
		return b.tail - b.head
	}
	return b.size - b.head + b.tail
}
