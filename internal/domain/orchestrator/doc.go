// Package orchestrator holds one pane tree per tab and exposes the mutations
// the UI performs on it: split, close, focus, session binding and ratio
// changes. Each tab's tree is replaced wholesale on every change; mutations
// for all tabs are serialized by a single lock.
//
// Splits run a freeze handshake with a LayoutFreezer: the panes that existed
// before the split are frozen, the tree is replaced, and after SettleDelay
// the same panes are unfrozen.
package orchestrator
