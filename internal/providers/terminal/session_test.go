package terminal

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/menuterm/backend/internal/domain/ptysession"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSize(t *testing.T) {
	tests := []struct {
		name       string
		cols, rows int
		wantErr    string
	}{
		{"typical", 80, 24, ""},
		{"minimum", ptysession.MinCols, ptysession.MinRows, ""},
		{"maximum", ptysession.MaxCols, ptysession.MaxRows, ""},
		{"cols too small", 10, 24, "cols 10"},
		{"cols too large", 501, 24, "cols 501"},
		{"rows too small", 80, 2, "rows 2"},
		{"rows too large", 80, 500, "rows 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSize(tt.cols, tt.rows)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidSize)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateRejectsInvalidSize(t *testing.T) {
	m := NewManager(Options{})
	defer m.Shutdown()

	_, err := m.Create(context.Background(), 5, 24)
	assert.ErrorIs(t, err, ErrInvalidSize)
	assert.Empty(t, m.List())
}

func TestUnknownSession(t *testing.T) {
	m := NewManager(Options{})
	defer m.Shutdown()
	ctx := context.Background()

	err := m.Write(ctx, "nonexistent-session-id", "test")
	assert.ErrorIs(t, err, ptysession.ErrSessionNotFound)
	assert.Contains(t, err.Error(), "session not found")

	err = m.Resize(ctx, "nonexistent-session-id", 80, 24)
	assert.ErrorIs(t, err, ptysession.ErrSessionNotFound)

	_, err = m.Get("nonexistent-session-id")
	assert.ErrorIs(t, err, ptysession.ErrSessionNotFound)

	// Closing a missing session is a no-op
	assert.NoError(t, m.Close(ctx, "nonexistent-session-id"))
}

func TestResizeValidatesBeforeLookup(t *testing.T) {
	m := NewManager(Options{})
	defer m.Shutdown()

	err := m.Resize(context.Background(), "nonexistent-session-id", 80, 1)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestDecodeChunk(t *testing.T) {
	euro := []byte("€") // 3 bytes

	data, rest := decodeChunk(nil, append([]byte("a"), euro[:2]...))
	assert.Equal(t, "a", data)
	assert.Equal(t, euro[:2], rest)

	data, rest = decodeChunk(rest, euro[2:])
	assert.Equal(t, "€", data)
	assert.Empty(t, rest)

	data, _ = decodeChunk(nil, []byte{'o', 'k', 0xff, '!'})
	assert.Equal(t, "ok�!", data)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("LANG", "")
	m := NewManager(Options{Env: map[string]string{"MENUTERM": "1"}})
	defer m.Shutdown()

	env := m.environ("/bin/sh", "/tmp")
	assert.Contains(t, env, "TERM=xterm-256color")
	assert.Contains(t, env, "COLORTERM=truecolor")
	assert.Contains(t, env, "SHELL=/bin/sh")
	assert.Contains(t, env, "LANG=en_US.UTF-8")
	assert.Contains(t, env, "MENUTERM=1")
}

func TestShellSession(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	m := NewManager(Options{Shell: "/bin/sh", WorkingDir: os.TempDir()})
	defer m.Shutdown()
	ctx := context.Background()

	id, err := m.Create(ctx, 80, 24)
	if err != nil {
		t.Skipf("PTY unavailable: %v", err)
	}

	info, err := m.Get(id)
	require.NoError(t, err)
	assert.True(t, info.Active)
	assert.Len(t, m.List(), 1)

	require.NoError(t, m.Resize(ctx, id, 100, 30))
	require.NoError(t, m.Write(ctx, id, "echo menuterm-$((40+2))\n"))
	require.NoError(t, m.Write(ctx, id, "exit 3\n"))

	var output strings.Builder
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			require.Equal(t, id, ev.SessionID)
			if ev.Kind == ptysession.EventOutput {
				output.WriteString(ev.Data)
				continue
			}
			assert.Contains(t, output.String(), "menuterm-42")
			require.NotNil(t, ev.ExitCode)
			assert.Equal(t, 3, *ev.ExitCode)

			// The session is forgotten after exit
			_, err := m.Get(id)
			assert.ErrorIs(t, err, ptysession.ErrSessionNotFound)
			return
		case <-deadline:
			t.Fatalf("no exit event; output so far: %q", output.String())
		}
	}
}

func TestCloseStopsSession(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	m := NewManager(Options{Shell: "/bin/sh"})
	defer m.Shutdown()
	ctx := context.Background()

	id, err := m.Create(ctx, 80, 24)
	if err != nil {
		t.Skipf("PTY unavailable: %v", err)
	}

	require.NoError(t, m.Close(ctx, id))
	require.NoError(t, m.Close(ctx, id))

	err = m.Write(ctx, id, "echo\n")
	assert.ErrorIs(t, err, ptysession.ErrSessionNotFound)

	// The reader still reports the exit, with no code
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			if ev.Kind == ptysession.EventExit {
				assert.Nil(t, ev.ExitCode)
				return
			}
		case <-deadline:
			t.Fatal("no exit event after close")
		}
	}
}

func TestShutdownClosesEvents(t *testing.T) {
	m := NewManager(Options{})
	m.Shutdown()
	m.Shutdown()

	_, ok := <-m.Events()
	assert.False(t, ok)

	_, err := m.Create(context.Background(), 80, 24)
	assert.Error(t, err)
}
