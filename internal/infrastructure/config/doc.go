// Package config provides 12-factor configuration for the menuterm backend.
//
// Configuration is loaded from environment variables with defaults; CLI flags
// in cmd/server can override the listen address.
//
// Configuration Sections:
//   - Server: HTTP listen address
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting of the REST API
//   - PTY: shell, retry/restart timing and output coalescing
//   - Layout: split ratio band and the post-split settle delay
//   - Settings: location of the user settings file
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("listening on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - PTY_SHELL, PTY_WORKDIR, PTY_MAX_RETRIES, PTY_RETRY_DELAY, PTY_RESTART_DELAY,
//     PTY_FLUSH_INTERVAL, PTY_EVENT_BUFFER, PTY_SCROLLBACK_BYTES
//   - LAYOUT_MIN_RATIO, LAYOUT_MAX_RATIO, LAYOUT_SETTLE_DELAY
//   - SETTINGS_PATH, SETTINGS_WATCH
package config
