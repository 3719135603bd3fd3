// Package main is the entry point for the menuterm terminal server.
//
// The server hosts the terminal core for the menu bar app: it owns the PTYs,
// the pane layout of every tab and the user settings, and the UI drives it
// over REST and a WebSocket stream.
//
// Architecture:
//
//	UI (webview) → REST /api/v1  → orchestrator → workspace → PTY sessions
//	             ↔ WS /stream    ← surfaces (output, freeze) ← creack/pty
//
// Configuration:
//   - Environment variables (see internal/infrastructure/config)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Defaults: 127.0.0.1:7681, settings in the user config directory
//	./server
//
//	# Development mode (colored logs, debug level)
//	./server -dev -log-level debug -settings -
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown, every shell is closed
package main
