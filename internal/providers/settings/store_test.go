package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := Defaults()

	assert.Equal(t, 0.9, s.Opacity)
	assert.Equal(t, 13, s.FontSize)
	assert.Equal(t, "CommandOrControl+Shift+T", s.GlobalShortcut)
	assert.True(t, s.ShortcutEnabled)
	assert.Equal(t, "CommandOrControl+Backquote", s.PinShortcut)
	assert.False(t, s.OnboardingComplete)
	assert.False(t, s.Pinned)
}

func TestValidateClamps(t *testing.T) {
	s := Settings{Opacity: 0.1, FontSize: 40}
	s.Validate()
	assert.Equal(t, MinOpacity, s.Opacity)
	assert.Equal(t, MaxFontSize, s.FontSize)

	s = Settings{Opacity: 2, FontSize: 2}
	s.Validate()
	assert.Equal(t, MaxOpacity, s.Opacity)
	assert.Equal(t, MinFontSize, s.FontSize)
}

func TestStoreMissingFileUsesDefaults(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "settings.toml"), nil)
	assert.Equal(t, Defaults(), store.Get())
	assert.False(t, store.Pinned())
}

func TestStoreInvalidFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("opacity = [not toml"), 0o644))

	store := NewStore(path, nil)
	assert.Equal(t, Defaults(), store.Get())
}

func TestStoreLoadsAndClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	content := "opacity = 0.05\nfont_size = 18\npinned = true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store := NewStore(path, nil)
	got := store.Get()

	assert.Equal(t, MinOpacity, got.Opacity)
	assert.Equal(t, 18, got.FontSize)
	assert.True(t, got.Pinned)
	assert.True(t, store.Pinned())
	// Unset keys keep their defaults
	assert.Equal(t, "CommandOrControl+Shift+T", got.GlobalShortcut)
}

func TestStoreUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")
	store := NewStore(path, nil)

	next := store.Get()
	next.FontSize = 99
	next.OnboardingComplete = true
	saved, err := store.Update(next)
	require.NoError(t, err)
	assert.Equal(t, MaxFontSize, saved.FontSize)

	reloaded := NewStore(path, nil)
	assert.Equal(t, saved, reloaded.Get())
}

func TestSetPinnedPublishes(t *testing.T) {
	store := NewStore("", nil)

	var mu sync.Mutex
	var seen []bool
	cancel := store.Subscribe(func(s Settings) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Pinned)
	})

	_, err := store.SetPinned(true)
	require.NoError(t, err)
	assert.True(t, store.Pinned())

	// No change, no notification
	_, err = store.SetPinned(true)
	require.NoError(t, err)

	cancel()
	_, err = store.SetPinned(false)
	require.NoError(t, err)
	assert.False(t, store.Pinned())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true}, seen)
}

func TestModifyDoesNotLoseConcurrentChanges(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "settings.toml"), nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	modified := make(chan error, 1)
	go func() {
		_, err := store.Modify(func(next *Settings) error {
			close(entered)
			<-release
			next.FontSize = 18
			return nil
		})
		modified <- err
	}()
	<-entered

	pinned := make(chan error, 1)
	go func() {
		_, err := store.SetPinned(true)
		pinned <- err
	}()
	assert.Never(t, func() bool { return len(pinned) > 0 }, 20*time.Millisecond, time.Millisecond,
		"SetPinned waits for the change in progress")

	close(release)
	require.NoError(t, <-modified)
	require.NoError(t, <-pinned)

	got := store.Get()
	assert.Equal(t, 18, got.FontSize)
	assert.True(t, got.Pinned)
	assert.Equal(t, got, NewStore(store.Path(), nil).Get())
}

func TestModifyErrorChangesNothing(t *testing.T) {
	store := NewStore("", nil)
	calls := 0
	store.Subscribe(func(Settings) { calls++ })

	errBad := errors.New("bad input")
	_, err := store.Modify(func(next *Settings) error {
		next.FontSize = 20
		return errBad
	})
	assert.ErrorIs(t, err, errBad)
	assert.Equal(t, Defaults(), store.Get())
	assert.Zero(t, calls)
}

func TestWatchReloadsExternalEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	store := NewStore(path, nil)

	changed := make(chan Settings, 4)
	store.Subscribe(func(s Settings) { changed <- s })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx, 5*time.Millisecond) }()

	// Give the watcher time to register
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("pinned = true\nfont_size = 20\n"), 0o644))

	select {
	case s := <-changed:
		assert.True(t, s.Pinned)
		assert.Equal(t, 20, s.FontSize)
	case <-time.After(5 * time.Second):
		t.Fatal("settings change not observed")
	}
	assert.True(t, store.Pinned())

	cancel()
	assert.NoError(t, <-done)
}

func TestWatchWithoutPathBlocksUntilDone(t *testing.T) {
	store := NewStore("", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, store.Watch(ctx, 0))
}
