package ptysession

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Router is the single consumer of a backend event stream. It hands each
// event to the session currently bound to the event's session id.
type Router struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *zap.Logger
}

// NewRouter creates an empty router
func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Run dispatches events until ctx is cancelled or events is closed
func (r *Router) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.Dispatch(ev)
		}
	}
}

// Dispatch delivers ev to its session and reports whether one was bound
func (r *Router) Dispatch(ev Event) bool {
	r.mu.RLock()
	s, ok := r.sessions[ev.SessionID]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debug("Dropping event for unbound session",
			zap.String("session_id", ev.SessionID),
			zap.Stringer("kind", ev.Kind))
		return false
	}
	s.deliver(ev)
	return true
}

// Len returns the number of bound sessions
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Router) bind(sessionID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = s
}

// unbind removes the binding only if it still belongs to s
func (r *Router) unbind(sessionID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[sessionID] == s {
		delete(r.sessions, sessionID)
	}
}
