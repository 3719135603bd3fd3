/*
Package server assembles the terminal core behind an HTTP server.

# Components

	terminal.Manager      native PTYs (creack/pty)
	ptysession.Router     demultiplexes the PTY event stream to pane sessions
	surface.Registry      per-pane scrollback, size and freeze state
	orchestrator          pane trees per tab
	workspace.Manager     mounts a session for every pane in a tree
	settings.Store        TOML settings with fsnotify hot reload

# Routes

	GET /health           liveness and counts
	GET /metrics          Prometheus
	GET /stream           WebSocket stream, see package ws
	GET|PUT /debug/log-level   read or change the log level at runtime
	    /api/v1/...       REST API, see package http

# Lifecycle

	srv, err := server.New(cfg, logger)
	...
	err = srv.Run(ctx)   // blocks until ctx is cancelled
	srv.Close()          // closes every PTY
*/
package server
