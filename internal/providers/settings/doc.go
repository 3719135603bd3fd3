// Package settings stores the user-facing preferences of the terminal window:
// opacity, font size, global shortcuts and the pinned flag.
//
// Settings live in a TOML file. Values outside their allowed range are
// clamped on load and on update; a missing or unreadable file yields the
// defaults. The pinned flag is also published through an atomic value so hot
// paths can read it without taking the store lock, and every change is pushed
// to subscribers.
//
// Watch reloads the file when it is edited externally.
package settings
