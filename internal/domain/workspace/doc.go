// Package workspace keeps every pane of every tab bound to a live PTY session.
//
// The orchestrator decides the layout; the workspace follows it. After each
// layout change the workspace mounts a ptysession.Session for new panes,
// reusing a backend session when the pane already records one, and disposes
// the sessions of panes that were closed. Pane input and size reports are
// routed to the owning session.
package workspace
