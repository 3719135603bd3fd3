package ptysession

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/menuterm/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/menuterm/backend/internal/infrastructure/resilience"
	"go.uber.org/zap"
)

// State is a Session's lifecycle state
type State int

const (
	StateUninitialized State = iota
	StateCreating
	StateActive
	StateExiting
	StateRestarting
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCreating:
		return "creating"
	case StateActive:
		return "active"
	case StateExiting:
		return "exiting"
	case StateRestarting:
		return "restarting"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures a Session
type Options struct {
	MaxRetries    int
	RetryDelay    time.Duration
	RestartDelay  time.Duration
	FlushInterval time.Duration

	// OnSessionCreated runs after a backend session is created or reused
	OnSessionCreated func(sessionID string)

	Logger  *zap.Logger
	Metrics *monitoring.Metrics
}

// DefaultOptions returns the standard retry and restart timing
func DefaultOptions() Options {
	return Options{
		MaxRetries:    3,
		RetryDelay:    time.Second,
		RestartDelay:  time.Second,
		FlushInterval: DefaultFlushInterval,
	}
}

// Session owns one pane's backend PTY session
type Session struct {
	backend  Backend
	router   *Router
	renderer Renderer
	policy   resilience.Linear
	opts     Options
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	// ctx is cancelled on Close or Detach and aborts in-flight backend calls
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	sessionID  string
	active     bool
	retryCount int
	destroyed  bool
	state      State
	generation uint64
	timer      *resilience.Task
	buffer     *DataBuffer
}

// New creates an uninitialized session writing into renderer
func New(backend Backend, router *Router, renderer Renderer, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		backend:  backend,
		router:   router,
		renderer: renderer,
		policy:   resilience.Linear{MaxRetries: opts.MaxRetries, Step: opts.RetryDelay},
		opts:     opts,
		logger:   logger,
		metrics:  opts.Metrics,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Create starts a new create chain. The first attempt runs on the calling
// goroutine; retries run on timers. Any earlier chain is superseded.
func (s *Session) Create(cols, rows int) {
	gen, previous, ok := s.begin()
	if !ok {
		return
	}
	s.closeReplaced(previous)
	s.attempt(gen, cols, rows, 0)
}

// Reuse adopts an existing backend session by resizing it. If the resize
// fails the backend session is gone and a fresh one is created instead.
func (s *Session) Reuse(sessionID string, cols, rows int) {
	gen, previous, ok := s.begin()
	if !ok {
		return
	}
	if previous != sessionID {
		s.closeReplaced(previous)
	}

	c, r := ClampSize(cols, rows)
	if err := s.backend.Resize(s.ctx, sessionID, c, r); err != nil {
		s.logger.Info("Existing session unavailable, creating a new one",
			zap.String("session_id", sessionID),
			zap.Error(err))
		s.attempt(gen, cols, rows, 0)
		return
	}

	s.mu.Lock()
	if s.destroyed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.bindLocked(sessionID)
	s.mu.Unlock()

	s.logger.Debug("Reused session", zap.String("session_id", sessionID))
	s.created(sessionID)
}

// Write sends input to the active session. On failure the stale session is
// closed and exactly one new create chain is started.
func (s *Session) Write(data string) {
	s.mu.Lock()
	id := s.sessionID
	if s.destroyed || !s.active || id == "" {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	err := s.backend.Write(s.ctx, id, data)
	if err == nil {
		return
	}
	s.metrics.IncWriteErrors()

	s.mu.Lock()
	// A concurrent failure or exit already moved the session on
	if s.destroyed || s.sessionID != id {
		s.mu.Unlock()
		return
	}
	s.logger.Warn("Write failed, reconnecting",
		zap.String("session_id", id),
		zap.Error(err))
	s.flushLocked()
	s.renderer.Write(msgReconnecting)
	s.unbindLocked()
	s.mu.Unlock()

	s.metrics.IncReconnects()
	_ = s.backend.Close(s.ctx, id)

	cols, rows := s.renderer.Size()
	s.Create(cols, rows)
}

// Resize changes the active session's dimensions. Failures are logged only.
func (s *Session) Resize(cols, rows int) {
	s.mu.Lock()
	id := s.sessionID
	if s.destroyed || !s.active || id == "" {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	c, r := ClampSize(cols, rows)
	if err := s.backend.Resize(s.ctx, id, c, r); err != nil {
		s.metrics.IncResizeErrors()
		s.logger.Warn("Resize failed",
			zap.String("session_id", id),
			zap.Int("cols", c),
			zap.Int("rows", r),
			zap.Error(err))
	}
}

// Close cancels pending timers, flushes buffered output and closes the
// backend session. It is idempotent.
func (s *Session) Close() {
	id, ok := s.teardown()
	if !ok || id == "" {
		return
	}
	if err := s.backend.Close(context.Background(), id); err != nil {
		s.logger.Warn("Close failed", zap.String("session_id", id), zap.Error(err))
	}
}

// Dispose is Close
func (s *Session) Dispose() {
	s.Close()
}

// Detach releases the session like Close but leaves the backend session
// running so it can be adopted later with Reuse. It returns that id.
func (s *Session) Detach() string {
	id, _ := s.teardown()
	return id
}

// SessionID returns the current backend session id, or "" if none
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// State returns the lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsActive reports whether a backend session is bound
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// RetryCount returns the number of retries made by the current create chain
func (s *Session) RetryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retryCount
}

// begin supersedes any running chain and returns the new generation along
// with the backend session it unbound, if one was active
func (s *Session) begin() (uint64, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return 0, "", false
	}
	s.timer.Cancel()
	s.timer = nil
	previous := s.sessionID
	if previous != "" {
		s.flushLocked()
		s.unbindLocked()
	}
	s.generation++
	s.retryCount = 0
	s.state = StateCreating
	return s.generation, previous, true
}

// closeReplaced closes a backend session this one no longer uses
func (s *Session) closeReplaced(id string) {
	if id == "" {
		return
	}
	s.logger.Debug("Closing replaced session", zap.String("session_id", id))
	if err := s.backend.Close(s.ctx, id); err != nil {
		s.logger.Warn("Close failed", zap.String("session_id", id), zap.Error(err))
	}
}

func (s *Session) attempt(gen uint64, cols, rows, retry int) {
	s.mu.Lock()
	if s.destroyed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.retryCount = retry
	s.state = StateCreating
	s.mu.Unlock()

	c, r := ClampSize(cols, rows)
	id, err := s.backend.Create(s.ctx, c, r)
	if err != nil {
		s.metrics.RecordCreateAttempt("failure")
		s.failed(gen, cols, rows, retry, err)
		return
	}
	s.metrics.RecordCreateAttempt("success")

	s.mu.Lock()
	if s.destroyed || gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("Closing orphaned session", zap.String("session_id", id))
		_ = s.backend.Close(context.Background(), id)
		return
	}
	s.bindLocked(id)
	s.mu.Unlock()

	s.logger.Debug("Created session",
		zap.String("session_id", id),
		zap.Int("cols", c),
		zap.Int("rows", r),
		zap.Int("retry", retry))
	s.created(id)
}

func (s *Session) failed(gen uint64, cols, rows, retry int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed || gen != s.generation {
		return
	}

	s.logger.Warn("Failed to create session",
		zap.Int("attempt", retry+1),
		zap.Int("max_attempts", s.policy.Attempts()),
		zap.Error(err))
	s.flushLocked()
	s.renderer.Write(createFailedMessage(retry+1, s.policy.Attempts(), err))

	delay, ok := s.policy.Next(retry)
	if !ok {
		s.logger.Error("Giving up on session creation", zap.Int("attempts", retry+1))
		s.renderer.Write(msgExhausted)
		s.state = StateFailed
		return
	}
	s.timer = resilience.Schedule(delay, func() {
		s.attempt(gen, cols, rows, retry+1)
	})
}

func (s *Session) created(id string) {
	if s.opts.OnSessionCreated != nil {
		s.opts.OnSessionCreated(id)
	}
}

func (s *Session) bindLocked(id string) {
	s.sessionID = id
	s.active = true
	s.retryCount = 0
	s.state = StateActive
	if s.buffer == nil {
		s.buffer = NewDataBuffer(s.opts.FlushInterval, s.renderer.Write)
		s.buffer.metrics = s.metrics
	}
	s.router.bind(id, s)
	s.metrics.SessionUp()
}

// flushLocked writes pending output ahead of a diagnostic line
func (s *Session) flushLocked() {
	if s.buffer != nil {
		s.buffer.Flush()
	}
}

func (s *Session) unbindLocked() {
	if s.sessionID != "" {
		s.router.unbind(s.sessionID, s)
		s.metrics.SessionDown()
	}
	s.sessionID = ""
	s.active = false
}

// deliver is called by the Router for events keyed to this session
func (s *Session) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed || ev.SessionID == "" || ev.SessionID != s.sessionID {
		return
	}

	switch ev.Kind {
	case EventOutput:
		s.buffer.Push(ev.Data)
	case EventExit:
		s.exitedLocked(ev)
	}
}

func (s *Session) exitedLocked(ev Event) {
	s.state = StateExiting
	s.flushLocked()
	s.renderer.Write(exitMessage(ev.ExitCode))
	s.unbindLocked()

	s.logger.Info("Process exited, scheduling restart",
		zap.String("session_id", ev.SessionID),
		zap.Duration("delay", s.opts.RestartDelay))

	s.timer.Cancel()
	s.generation++
	gen := s.generation
	s.retryCount = 0
	s.state = StateRestarting
	s.timer = resilience.Schedule(s.opts.RestartDelay, func() {
		s.restart(gen)
	})
}

func (s *Session) restart(gen uint64) {
	s.mu.Lock()
	if s.destroyed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	cols, rows := s.renderer.Size()
	s.mu.Unlock()

	s.metrics.IncRestarts()
	s.attempt(gen, cols, rows, 0)
}

// teardown marks the session destroyed and returns the id it held
func (s *Session) teardown() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return "", false
	}
	s.destroyed = true
	s.state = StateClosed
	s.timer.Cancel()
	s.timer = nil

	id := s.sessionID
	s.unbindLocked()
	if s.buffer != nil {
		s.buffer.Dispose()
	}
	s.cancel()
	return id, true
}
