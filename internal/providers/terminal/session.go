package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/GriffinCanCode/menuterm/backend/internal/domain/ptysession"
	"github.com/creack/pty"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	readChunkSize      = 4096
	defaultEventBuffer = 256
)

// Manager manages terminal sessions
type Manager struct {
	sessions sync.Map // map[string]*Session
	events   chan ptysession.Event
	opts     Options
	logger   *zap.Logger

	readers  sync.WaitGroup
	done     chan struct{}
	shutdown sync.Once
}

// NewManager creates a new session manager
func NewManager(opts Options) *Manager {
	if opts.EventBuffer < 0 {
		opts.EventBuffer = 0
	} else if opts.EventBuffer == 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		events: make(chan ptysession.Event, opts.EventBuffer),
		opts:   opts,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// ValidateSize checks dimensions against the supported range
func ValidateSize(cols, rows int) error {
	if cols < ptysession.MinCols || cols > ptysession.MaxCols {
		return fmt.Errorf("%w: cols %d must be between %d and %d",
			ErrInvalidSize, cols, ptysession.MinCols, ptysession.MaxCols)
	}
	if rows < ptysession.MinRows || rows > ptysession.MaxRows {
		return fmt.Errorf("%w: rows %d must be between %d and %d",
			ErrInvalidSize, rows, ptysession.MinRows, ptysession.MaxRows)
	}
	return nil
}

// Create spawns a shell on a new PTY and returns its session id
func (m *Manager) Create(ctx context.Context, cols, rows int) (string, error) {
	if err := ValidateSize(cols, rows); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	select {
	case <-m.done:
		return "", errors.New("terminal manager is shut down")
	default:
	}

	shell := m.shell()
	workingDir := m.workingDir()
	sessionID := uuid.NewString()

	cmd := exec.Command(shell)
	cmd.Dir = workingDir
	cmd.Env = m.environ(shell, workingDir)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return "", fmt.Errorf("failed to start PTY: %w", err)
	}

	session := &Session{
		ID:         sessionID,
		Shell:      shell,
		WorkingDir: workingDir,
		Cols:       cols,
		Rows:       rows,
		StartedAt:  time.Now(),
		cmd:        cmd,
		ptmx:       ptmx,
	}
	m.sessions.Store(sessionID, session)

	m.readers.Add(1)
	go m.readOutput(session)

	m.logger.Info("Started shell",
		zap.String("session_id", sessionID),
		zap.String("shell", shell),
		zap.Int("cols", cols),
		zap.Int("rows", rows))

	return sessionID, nil
}

// readOutput streams PTY output until EOF, then reaps the child and
// reports its exit
func (m *Manager) readOutput(session *Session) {
	defer m.readers.Done()

	buf := make([]byte, readChunkSize)
	var carry []byte
	for {
		n, err := session.ptmx.Read(buf)
		if n > 0 {
			var data string
			data, carry = decodeChunk(carry, buf[:n])
			if data != "" {
				m.emit(ptysession.OutputEvent(session.ID, data))
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !session.isClosed() {
				m.logger.Debug("PTY read ended", zap.String("session_id", session.ID), zap.Error(err))
			}
			break
		}
	}
	if len(carry) > 0 {
		m.emit(ptysession.OutputEvent(session.ID, strings.ToValidUTF8(string(carry), "�")))
	}

	code := -1
	waitErr := session.cmd.Wait()
	if !session.isClosed() {
		code = exitCode(waitErr)
	}

	session.markClosed()
	_ = session.ptmx.Close()
	m.sessions.CompareAndDelete(session.ID, session)

	m.logger.Info("Shell exited", zap.String("session_id", session.ID), zap.Int("exit_code", code))
	m.emit(ptysession.ExitEvent(session.ID, code))
}

// decodeChunk converts bytes to text, holding back an incomplete trailing
// UTF-8 sequence for the next read and replacing invalid bytes
func decodeChunk(carry, chunk []byte) (string, []byte) {
	data := append(carry, chunk...)

	cut := len(data)
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if utf8.RuneStart(data[i]) {
			if !utf8.FullRune(data[i:]) {
				cut = i
			}
			break
		}
	}

	var rest []byte
	if cut < len(data) {
		rest = append([]byte(nil), data[cut:]...)
	}
	return strings.ToValidUTF8(string(data[:cut]), "�"), rest
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func (m *Manager) emit(ev ptysession.Event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

// Write sends input to a session
func (m *Manager) Write(ctx context.Context, sessionID, data string) error {
	session, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	if session.isClosed() {
		return fmt.Errorf("session is closed: %s", sessionID)
	}

	if _, err := io.WriteString(session.ptmx, data); err != nil {
		return fmt.Errorf("failed to write to PTY: %w", err)
	}
	return nil
}

// Resize changes terminal dimensions
func (m *Manager) Resize(ctx context.Context, sessionID string, cols, rows int) error {
	if err := ValidateSize(cols, rows); err != nil {
		return err
	}
	session, err := m.lookup(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return fmt.Errorf("session is closed: %s", sessionID)
	}

	if err := pty.Setsize(session.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	}); err != nil {
		return fmt.Errorf("failed to resize PTY: %w", err)
	}
	session.Cols = cols
	session.Rows = rows
	return nil
}

// Close terminates a session. Closing an unknown session is not an error.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	value, ok := m.sessions.LoadAndDelete(sessionID)
	if !ok {
		return nil
	}
	session := value.(*Session)

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return nil
	}
	session.closed = true

	// Killing the child makes the reader see EOF
	if session.cmd.Process != nil {
		_ = session.cmd.Process.Kill()
	}
	_ = session.ptmx.Close()

	m.logger.Debug("Closed session", zap.String("session_id", sessionID))
	return nil
}

// Events returns the stream of output and exit events for all sessions
func (m *Manager) Events() <-chan ptysession.Event {
	return m.events
}

// Get retrieves session info
func (m *Manager) Get(sessionID string) (*SessionInfo, error) {
	session, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	info := session.info()
	return &info, nil
}

// List returns all sessions ordered by start time
func (m *Manager) List() []SessionInfo {
	var sessions []SessionInfo
	m.sessions.Range(func(_, value interface{}) bool {
		sessions = append(sessions, value.(*Session).info())
		return true
	})
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.Before(sessions[j].StartedAt)
	})
	return sessions
}

// Shutdown closes every session, waits for their readers and closes the
// event stream
func (m *Manager) Shutdown() {
	m.shutdown.Do(func() {
		close(m.done)
		m.sessions.Range(func(key, _ interface{}) bool {
			_ = m.Close(context.Background(), key.(string))
			return true
		})
		m.readers.Wait()
		close(m.events)
	})
}

func (m *Manager) lookup(sessionID string) (*Session, error) {
	value, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ptysession.ErrSessionNotFound, sessionID)
	}
	return value.(*Session), nil
}

func (m *Manager) shell() string {
	if m.opts.Shell != "" {
		return m.opts.Shell
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	for _, candidate := range []string{"/bin/zsh", "/bin/bash"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "/bin/sh"
}

func (m *Manager) workingDir() string {
	if m.opts.WorkingDir != "" {
		return m.opts.WorkingDir
	}
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	return "/"
}

func (m *Manager) environ(shell, workingDir string) []string {
	env := map[string]string{}
	var order []string
	set := func(key, value string) {
		if _, ok := env[key]; !ok {
			order = append(order, key)
		}
		env[key] = value
	}

	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok {
			set(key, value)
		}
	}
	set("TERM", "xterm-256color")
	set("COLORTERM", "truecolor")
	if env["HOME"] == "" {
		set("HOME", workingDir)
	}
	set("SHELL", shell)
	if env["LANG"] == "" {
		set("LANG", "en_US.UTF-8")
	}
	for key, value := range m.opts.Env {
		set(key, value)
	}

	out := make([]string, 0, len(order))
	for _, key := range order {
		out = append(out, key+"="+env[key])
	}
	return out
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
