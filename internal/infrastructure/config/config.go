package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	PTY       PTYConfig
	Layout    LayoutConfig
	Settings  SettingsConfig
	Commands  CommandsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"7681"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	// File receives a JSON copy of the log; empty logs to stderr only
	File string `envconfig:"LOG_FILE"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// PTYConfig holds PTY session configuration.
type PTYConfig struct {
	// Shell defaults to $SHELL, then /bin/zsh, then /bin/bash
	Shell string `envconfig:"PTY_SHELL"`
	// WorkingDir defaults to $HOME
	WorkingDir      string        `envconfig:"PTY_WORKDIR"`
	MaxRetries      int           `envconfig:"PTY_MAX_RETRIES" default:"3"`
	RetryDelay      time.Duration `envconfig:"PTY_RETRY_DELAY" default:"1s"`
	RestartDelay    time.Duration `envconfig:"PTY_RESTART_DELAY" default:"1s"`
	FlushInterval   time.Duration `envconfig:"PTY_FLUSH_INTERVAL" default:"5ms"`
	EventBuffer     int           `envconfig:"PTY_EVENT_BUFFER" default:"256"`
	ScrollbackBytes int           `envconfig:"PTY_SCROLLBACK_BYTES" default:"262144"`
}

// LayoutConfig holds pane layout configuration.
type LayoutConfig struct {
	MinRatio    float64       `envconfig:"LAYOUT_MIN_RATIO" default:"0.2"`
	MaxRatio    float64       `envconfig:"LAYOUT_MAX_RATIO" default:"0.8"`
	SettleDelay time.Duration `envconfig:"LAYOUT_SETTLE_DELAY" default:"16ms"`
}

// InMemorySettings as SETTINGS_PATH keeps settings in memory only
const InMemorySettings = "-"

// SettingsConfig locates the user settings file.
type SettingsConfig struct {
	// Path of the TOML settings file. Empty uses the user config
	// directory; InMemorySettings disables persistence.
	Path  string `envconfig:"SETTINGS_PATH"`
	Watch bool   `envconfig:"SETTINGS_WATCH" default:"true"`
}

// CommandsConfig bounds one-off command execution and completion.
type CommandsConfig struct {
	Timeout       time.Duration `envconfig:"COMMAND_TIMEOUT" default:"30s"`
	MaxTimeout    time.Duration `envconfig:"COMMAND_MAX_TIMEOUT" default:"5m"`
	CompletionTTL time.Duration `envconfig:"COMPLETION_TTL" default:"60s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "7681",
			Host: "127.0.0.1",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		PTY: PTYConfig{
			MaxRetries:      3,
			RetryDelay:      time.Second,
			RestartDelay:    time.Second,
			FlushInterval:   5 * time.Millisecond,
			EventBuffer:     256,
			ScrollbackBytes: 256 * 1024,
		},
		Layout: LayoutConfig{
			MinRatio:    0.2,
			MaxRatio:    0.8,
			SettleDelay: 16 * time.Millisecond,
		},
		Settings: SettingsConfig{
			Watch: true,
		},
		Commands: CommandsConfig{
			Timeout:       30 * time.Second,
			MaxTimeout:    5 * time.Minute,
			CompletionTTL: time.Minute,
		},
	}
}

// Validate checks cross-field constraints envconfig can't express.
func (c *Config) Validate() error {
	var errs []error
	if c.PTY.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("PTY_MAX_RETRIES must be >= 0, got %d", c.PTY.MaxRetries))
	}
	if c.PTY.FlushInterval <= 0 {
		errs = append(errs, fmt.Errorf("PTY_FLUSH_INTERVAL must be positive, got %s", c.PTY.FlushInterval))
	}
	if c.PTY.EventBuffer < 0 {
		errs = append(errs, fmt.Errorf("PTY_EVENT_BUFFER must be >= 0, got %d", c.PTY.EventBuffer))
	}
	if c.PTY.ScrollbackBytes <= 0 {
		errs = append(errs, fmt.Errorf("PTY_SCROLLBACK_BYTES must be positive, got %d", c.PTY.ScrollbackBytes))
	}
	if c.Layout.MinRatio <= 0 || c.Layout.MaxRatio >= 1 || c.Layout.MinRatio >= c.Layout.MaxRatio {
		errs = append(errs, fmt.Errorf("layout ratio band must satisfy 0 < min < max < 1, got [%g, %g]",
			c.Layout.MinRatio, c.Layout.MaxRatio))
	}
	if c.Commands.Timeout <= 0 || c.Commands.MaxTimeout < c.Commands.Timeout {
		errs = append(errs, fmt.Errorf("command timeouts must satisfy 0 < COMMAND_TIMEOUT <= COMMAND_MAX_TIMEOUT, got %s and %s",
			c.Commands.Timeout, c.Commands.MaxTimeout))
	}
	return errors.Join(errs...)
}
