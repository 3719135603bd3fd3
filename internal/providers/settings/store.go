package settings

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// Store holds the current settings and persists changes
type Store struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	current Settings
	pinned  atomic.Bool

	subMu       sync.RWMutex
	subscribers map[uint64]func(Settings)
	nextSub     uint64
}

// NewStore loads settings from path. An empty path keeps settings in memory.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		path:        path,
		logger:      logger,
		subscribers: make(map[uint64]func(Settings)),
	}
	s.current = s.read()
	s.pinned.Store(s.current.Pinned)
	return s
}

// Path returns the settings file path
func (s *Store) Path() string {
	return s.path
}

// Get returns the current settings
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Pinned reports whether the window is pinned
func (s *Store) Pinned() bool {
	return s.pinned.Load()
}

// Update validates, stores and persists next
func (s *Store) Update(next Settings) (Settings, error) {
	next.Validate()
	return next, s.replace(next, true)
}

// Modify applies fn to a copy of the current settings, then validates,
// stores and persists the result. The read and the write happen under one
// lock, so a concurrent change is never overwritten with stale values. If
// fn fails nothing changes.
func (s *Store) Modify(fn func(*Settings) error) (Settings, error) {
	s.mu.Lock()
	next := s.current
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return Settings{}, err
	}
	next.Validate()
	changed, err := s.storeLocked(next, true)
	s.mu.Unlock()

	if changed {
		s.publish(next)
	}
	return next, err
}

// SetPinned changes only the pinned flag
func (s *Store) SetPinned(pinned bool) (Settings, error) {
	return s.Modify(func(next *Settings) error {
		next.Pinned = pinned
		return nil
	})
}

// Subscribe registers fn to receive every change and returns a function that
// removes it
func (s *Store) Subscribe(fn func(Settings)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.subscribers[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

// Reload re-reads the file and publishes the result if it differs
func (s *Store) Reload() Settings {
	next := s.read()
	if err := s.replace(next, false); err != nil {
		s.logger.Warn("Failed to apply reloaded settings", zap.Error(err))
	}
	return next
}

func (s *Store) replace(next Settings, persist bool) error {
	s.mu.Lock()
	changed, err := s.storeLocked(next, persist)
	s.mu.Unlock()

	if changed {
		s.publish(next)
	}
	return err
}

func (s *Store) storeLocked(next Settings, persist bool) (bool, error) {
	if next == s.current {
		return false, nil
	}
	s.current = next
	s.pinned.Store(next.Pinned)

	if !persist {
		return true, nil
	}
	return true, s.write(next)
}

func (s *Store) publish(next Settings) {
	s.subMu.RLock()
	subs := make([]func(Settings), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(next)
	}
}

// read loads the file, falling back to defaults
func (s *Store) read() Settings {
	settings := Defaults()
	if s.path == "" {
		return settings
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to read settings, using defaults", zap.String("path", s.path), zap.Error(err))
		}
		return settings
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		s.logger.Error("Failed to parse settings, using defaults", zap.String("path", s.path), zap.Error(err))
		return Defaults()
	}
	settings.Validate()
	return settings
}

// write replaces the file atomically
func (s *Store) write(settings Settings) error {
	if s.path == "" {
		return nil
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}

	s.logger.Debug("Saved settings", zap.String("path", s.path))
	return nil
}
