// Package providers groups the OS-facing implementations the terminal core
// depends on.
//
// Available Providers:
//   - terminal: PTY backend built on creack/pty, one shell per session
//   - settings: TOML settings file with fsnotify hot reload
//
// The domain packages only see interfaces (ptysession.Backend and the
// settings store's Snapshot and Subscribe), so tests substitute mocks.
package providers
