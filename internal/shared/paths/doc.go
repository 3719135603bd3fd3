// Package paths locates the per-user files the server reads and writes.
//
// # Layout
//
//	<user config dir>/menuterm/
//	  └── settings.toml
//
// # Usage
//
//	settingsPath := paths.SettingsFile()
//	workDir, err := paths.Expand("~/src")
package paths
