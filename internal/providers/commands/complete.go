package commands

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCompletionTTL is how long a PATH scan is reused
const DefaultCompletionTTL = time.Minute

// builtins are offered even though they are not files on PATH
var builtins = []string{
	"alias", "cat", "cd", "clear", "cp", "echo", "exit", "export", "find", "grep", "help",
	"history", "ls", "mkdir", "mv", "pwd", "quit", "rm", "type", "unalias", "unset", "where",
	"which",
}

// Completer answers command-name completions from a cached scan of $PATH
type Completer struct {
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group

	mu      sync.RWMutex
	names   []string // sorted, unique
	scanned time.Time
}

// NewCompleter creates a Completer; the first lookup scans $PATH
func NewCompleter(ttl time.Duration, logger *zap.Logger) *Completer {
	if ttl <= 0 {
		ttl = DefaultCompletionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{ttl: ttl, logger: logger}
}

// Complete returns the sorted command names starting with prefix. An empty
// prefix completes to nothing.
func (c *Completer) Complete(prefix string) []string {
	if prefix == "" {
		return []string{}
	}
	names := c.index()

	i := sort.SearchStrings(names, prefix)
	out := []string{}
	for ; i < len(names) && strings.HasPrefix(names[i], prefix); i++ {
		out = append(out, names[i])
	}
	return out
}

// Refresh rescans $PATH now
func (c *Completer) Refresh() []string {
	v, _, _ := c.group.Do("scan", func() (interface{}, error) {
		names := scanPath(os.Getenv("PATH"))
		c.mu.Lock()
		c.names = names
		c.scanned = time.Now()
		c.mu.Unlock()
		c.logger.Debug("Indexed PATH", zap.Int("commands", len(names)))
		return names, nil
	})
	return v.([]string)
}

func (c *Completer) index() []string {
	c.mu.RLock()
	names, fresh := c.names, !c.scanned.IsZero() && time.Since(c.scanned) < c.ttl
	c.mu.RUnlock()
	if fresh {
		return names
	}
	return c.Refresh()
}

func scanPath(pathEnv string) []string {
	seen := make(map[string]struct{}, len(builtins))
	for _, name := range builtins {
		seen[name] = struct{}{}
	}

	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			// Stat follows symlinks, which is how most of /usr/local/bin is populated
			info, err := os.Stat(filepath.Join(dir, entry.Name()))
			if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
				continue
			}
			seen[entry.Name()] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
