// Package surface provides the server-side stand-in for each pane's terminal
// widget.
//
// A Surface receives decoded PTY output, keeps a bounded scrollback for
// clients that attach late, and fans output out to listeners. It also tracks
// the size the client last reported. While a pane is frozen around a layout
// change, size reports are held back and only the most recent one is applied
// when the pane is unfrozen.
//
// Registry implements orchestrator.LayoutFreezer.
package surface
