package ptysession

import (
	"context"
	"errors"
)

// Dimension bounds accepted by the backend
const (
	MinCols = 20
	MaxCols = 500
	MinRows = 5
	MaxRows = 200
)

// ErrSessionNotFound is returned by a Backend for an unknown session id
var ErrSessionNotFound = errors.New("session not found")

// EventKind tags a backend event
type EventKind int

const (
	EventOutput EventKind = iota
	EventExit
)

func (k EventKind) String() string {
	switch k {
	case EventOutput:
		return "output"
	case EventExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Event is one message on the backend's shared event stream.
// ExitCode is nil for output events and for exits with no known status.
type Event struct {
	Kind      EventKind
	SessionID string
	Data      string
	ExitCode  *int
}

// OutputEvent builds an output event
func OutputEvent(sessionID, data string) Event {
	return Event{Kind: EventOutput, SessionID: sessionID, Data: data}
}

// ExitEvent builds an exit event; pass a negative code when the status is unknown
func ExitEvent(sessionID string, code int) Event {
	ev := Event{Kind: EventExit, SessionID: sessionID}
	if code >= 0 {
		ev.ExitCode = &code
	}
	return ev
}

// Backend spawns and drives PTY sessions. Events for every session it owns
// are delivered on the single channel returned by Events.
type Backend interface {
	Create(ctx context.Context, cols, rows int) (string, error)
	Write(ctx context.Context, sessionID, data string) error
	Resize(ctx context.Context, sessionID string, cols, rows int) error
	Close(ctx context.Context, sessionID string) error
	Events() <-chan Event
}

// Renderer is the terminal surface a session writes decoded output into
type Renderer interface {
	Write(data string)
	// Size reports the surface's current dimensions in cells
	Size() (cols, rows int)
}

// ClampSize forces dimensions into the range the backend accepts
func ClampSize(cols, rows int) (int, int) {
	return clamp(cols, MinCols, MaxCols), clamp(rows, MinRows, MaxRows)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
