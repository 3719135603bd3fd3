// Package terminal is the native PTY backend: it spawns the user's shell on a
// pseudo-terminal and streams its output.
//
// Features:
//   - PTY support via github.com/creack/pty
//   - Multiple concurrent sessions keyed by UUID
//   - Terminal resizing with dimension validation
//   - A single event stream carrying output and exit events for all sessions
//
// Architecture:
//   - Each session runs $SHELL (falling back to /bin/zsh, then /bin/bash) in $HOME
//   - A reader goroutine per session emits output in chunks of up to 4KiB
//   - When the PTY reaches EOF the child is reaped, an exit event is emitted
//     and the session is forgotten
//
// Example Usage:
//
//	m := terminal.NewManager(terminal.Options{})
//	defer m.Shutdown()
//
//	id, err := m.Create(ctx, 80, 24)
//	_ = m.Write(ctx, id, "ls -la\n")
//	for ev := range m.Events() {
//		fmt.Print(ev.Data)
//	}
//
// Manager satisfies ptysession.Backend.
package terminal
