// Package id provides centralized ID generation for tabs, panes and requests.
//
// IDs are ULIDs with a short type prefix (tab_*, pane_*, split_*, req_*):
//   - Lexicographic sortability: creation order survives in logs and snapshots
//   - Debuggable: the prefix tells a pane id from a split id at a glance
//   - Type safety: separate string types prevent passing a tab id where a pane id belongs
//
// PTY session ids are not generated here; they come from the terminal backend.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TabID identifies a window tab owning one pane tree
type TabID string

// PaneID identifies a leaf of a pane tree
type PaneID string

// BranchID identifies a split container of a pane tree
type BranchID string

// RequestID identifies an API request or trace
type RequestID string

const (
	TabPrefix     = "tab"
	PanePrefix    = "pane"
	BranchPrefix  = "split"
	RequestPrefix = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewTabID generates a new tab ID
func NewTabID() TabID {
	return TabID(Default().GenerateWithPrefix(TabPrefix))
}

// NewPaneID generates a new pane ID
func NewPaneID() PaneID {
	return PaneID(Default().GenerateWithPrefix(PanePrefix))
}

// NewBranchID generates a new split container ID
func NewBranchID() BranchID {
	return BranchID(Default().GenerateWithPrefix(BranchPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (id TabID) String() string     { return string(id) }
func (id PaneID) String() string    { return string(id) }
func (id BranchID) String() string  { return string(id) }
func (id RequestID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string, accepting an optional "prefix_" in front of it
func Parse(id string) (ulid.ULID, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	return ulid.Parse(id)
}

// Timestamp extracts the creation time from a (possibly prefixed) ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// HasPrefix reports whether id carries the given type prefix
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"_")
}
