package logging

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a zap.Logger whose level can be changed while it runs
type Logger struct {
	*zap.Logger
	level zap.AtomicLevel
}

// Config selects level, encoding and destination.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	// File additionally receives every entry, JSON-encoded. The desktop
	// shell owns our stdout, so logs go to stderr and, if set, here.
	File string
}

// New builds a logger writing to stderr and cfg.File.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	atom := zap.NewAtomicLevelAt(level)

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(cfg.Development), zapcore.Lock(os.Stderr), atom),
	}
	if cfg.File != "" {
		sink, _, err := zap.Open(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(newEncoder(false), sink, atom))
	}

	opts := []zap.Option{zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	} else {
		opts = append(opts, zap.AddStacktrace(zapcore.DPanicLevel))
	}

	return &Logger{
		Logger: zap.New(zapcore.NewTee(cores...), opts...),
		level:  atom,
	}, nil
}

// FromConfig builds a logger, falling back to stderr at info level when the
// level is unknown or the log file cannot be opened.
func FromConfig(cfg Config) *Logger {
	logger, err := New(cfg)
	if err == nil {
		return logger
	}
	fallback, fbErr := New(Config{Level: "info", Development: cfg.Development})
	if fbErr != nil {
		return NewNop()
	}
	fallback.Warn("Invalid logging config, using defaults", zap.Error(err))
	return fallback
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), level: zap.NewAtomicLevel()}
}

// SetLevel changes the minimum level of every core
func (l *Logger) SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.SetLevel(lvl)
	return nil
}

// Level returns the current minimum level name
func (l *Logger) Level() string {
	return l.level.Level().String()
}

// LevelHandler serves the level as JSON: GET reads it, PUT {"level":"debug"} sets it.
func (l *Logger) LevelHandler() http.Handler {
	return l.level
}

// ParseLevel accepts the zap level names, case-insensitively.
func ParseLevel(level string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}

func newEncoder(development bool) zapcore.Encoder {
	if development {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		return zapcore.NewConsoleEncoder(enc)
	}
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "message"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder
	return zapcore.NewJSONEncoder(enc)
}
