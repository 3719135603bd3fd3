package terminal

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidSize is returned for dimensions outside the supported range
var ErrInvalidSize = errors.New("invalid terminal size")

// Options configures a Manager
type Options struct {
	// Shell overrides $SHELL
	Shell string
	// WorkingDir overrides $HOME
	WorkingDir string
	// Env is added to every shell's environment
	Env map[string]string
	// EventBuffer is the capacity of the event channel
	EventBuffer int
	Logger      *zap.Logger
}

// Session represents an active terminal session
type Session struct {
	ID         string
	Shell      string
	WorkingDir string
	Cols       int
	Rows       int
	StartedAt  time.Time

	// Process management
	cmd  *exec.Cmd
	ptmx *os.File

	// Lifecycle
	mu     sync.RWMutex
	closed bool
}

func (s *Session) info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SessionInfo{
		ID:         s.ID,
		Shell:      s.Shell,
		WorkingDir: s.WorkingDir,
		Cols:       s.Cols,
		Rows:       s.Rows,
		StartedAt:  s.StartedAt,
		Active:     !s.closed,
	}
}

// SessionInfo is the public representation of a session
type SessionInfo struct {
	ID         string    `json:"id"`
	Shell      string    `json:"shell"`
	WorkingDir string    `json:"working_dir"`
	Cols       int       `json:"cols"`
	Rows       int       `json:"rows"`
	StartedAt  time.Time `json:"started_at"`
	Active     bool      `json:"active"`
}
