// Package logging provides structured logging using uber/zap.
//
// Output goes to stderr (the desktop shell reads our stdout) and optionally to
// a JSON log file. The level is atomic: LevelHandler exposes it over HTTP so a
// running server can be switched to debug without a restart.
//
// Components receive a *zap.Logger and attach tab_id, pane_id and session_id
// fields so a single pane's history can be grepped out of the stream.
//
// Example Usage:
//
//	logger := logging.FromConfig(logging.Config{Level: "info", File: "/tmp/menuterm.log"})
//	logger.Info("PTY session created", zap.String("session_id", id))
//	_ = logger.SetLevel("debug")
package logging
