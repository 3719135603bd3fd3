package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand(t *testing.T) {
	valid := []string{"ls", "/usr/bin/ls", "my_command", "command123", "./script", strings.Repeat("a", MaxCommandLength)}
	for _, name := range valid {
		assert.NoError(t, ValidateCommand(name), name)
	}

	tests := []struct {
		name string
		cmd  string
		want string
	}{
		{"empty", "", "empty"},
		{"too long", strings.Repeat("a", MaxCommandLength+1), "too long"},
		{"dash", "-rf", "start with '-'"},
		{"double dash", "--help", "start with '-'"},
		{"traversal", "../etc/passwd", "path traversal"},
		{"nested traversal", "foo/../bar", "path traversal"},
		{"newline", "cmd\n", `'\n'`},
		{"nul", "cmd\x00", `'\x00'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommand(tt.cmd)
			require.ErrorIs(t, err, ErrInvalidCommand)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	for _, c := range ";&|$`(){}[]<>'\"\\" {
		err := ValidateCommand("command" + string(c))
		require.ErrorIs(t, err, ErrInvalidCommand, string(c))
		assert.Contains(t, err.Error(), "forbidden character")
	}
}

func TestValidateArgs(t *testing.T) {
	assert.NoError(t, ValidateArgs(nil))
	assert.NoError(t, ValidateArgs(make([]string, MaxArgs)))
	assert.NoError(t, ValidateArgs([]string{strings.Repeat("a", MaxArgLength)}))

	err := ValidateArgs(make([]string, MaxArgs+1))
	assert.ErrorContains(t, err, "too many arguments")

	err = ValidateArgs([]string{strings.Repeat("a", MaxArgLength+1)})
	assert.ErrorContains(t, err, "argument 0 too long")

	err = ValidateArgs([]string{"arg0", "arg1", "arg2\x00bad"})
	assert.ErrorIs(t, err, ErrInvalidCommand)
	assert.ErrorContains(t, err, "argument 2 contains null byte")
}

func TestRunCollectsOutput(t *testing.T) {
	r := NewRunner(Options{})

	res, err := r.Run(context.Background(), "sh", []string{"-c", "echo out; echo err >&2; exit 3"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRunUsesWorkingDir(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(Options{WorkingDir: dir})

	res, err := r.Run(context.Background(), "pwd", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, dir+"\n", res.Stdout)
}

func TestRunErrors(t *testing.T) {
	r := NewRunner(Options{})
	ctx := context.Background()

	_, err := r.Run(ctx, "ls;rm", nil, 0)
	assert.ErrorIs(t, err, ErrInvalidCommand)

	_, err = r.Run(ctx, "menuterm-definitely-missing", nil, 0)
	assert.ErrorIs(t, err, ErrCommandNotFound)

	script := filepath.Join(t.TempDir(), "noexec")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0o644))
	_, err = r.Run(ctx, script, nil, 0)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestRunTimeout(t *testing.T) {
	r := NewRunner(Options{MaxTimeout: 100 * time.Millisecond})

	start := time.Now()
	_, err := r.Run(context.Background(), "sleep", []string{"5"}, time.Minute)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestStream(t *testing.T) {
	r := NewRunner(Options{})

	var chunks []Chunk
	code, err := r.Stream(context.Background(), "sh",
		[]string{"-c", "printf one; printf two >&2; exit 7"}, 0,
		func(c Chunk) { chunks = append(chunks, c) })
	require.NoError(t, err)
	assert.Equal(t, 7, code)

	var stdout, stderr strings.Builder
	for _, c := range chunks {
		if c.Stderr {
			stderr.WriteString(c.Data)
		} else {
			stdout.WriteString(c.Data)
		}
	}
	assert.Equal(t, "one", stdout.String())
	assert.Equal(t, "two", stderr.String())
}

func TestStreamRejectsInvalidCommand(t *testing.T) {
	r := NewRunner(Options{})
	called := false
	code, err := r.Stream(context.Background(), "$(reboot)", nil, 0, func(Chunk) { called = true })
	assert.ErrorIs(t, err, ErrInvalidCommand)
	assert.Equal(t, -1, code)
	assert.False(t, called)
}

func writeExecutable(t *testing.T, dir, name string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), mode))
}

func TestCompleter(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, dir, "zzmenu-tool", 0o755)
	writeExecutable(t, dir, "zzmenu-bin", 0o755)
	writeExecutable(t, dir, "zzmenu-data", 0o644)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "zzmenu-dir"), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+filepath.Join(dir, "missing"))

	c := NewCompleter(time.Hour, nil)
	assert.Equal(t, []string{"zzmenu-bin", "zzmenu-tool"}, c.Complete("zzmenu"))
	assert.Equal(t, []string{"unalias", "unset"}, c.Complete("un"))
	assert.Empty(t, c.Complete(""))
	assert.Empty(t, c.Complete("zzz-nothing"))
}

func TestCompleterCachesUntilRefresh(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir)
	c := NewCompleter(time.Hour, nil)
	assert.Empty(t, c.Complete("zzmenu"))

	writeExecutable(t, dir, "zzmenu-new", 0o755)
	assert.Empty(t, c.Complete("zzmenu"))

	c.Refresh()
	assert.Equal(t, []string{"zzmenu-new"}, c.Complete("zzmenu"))
}

func TestCompleterExpires(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir)
	c := NewCompleter(10*time.Millisecond, nil)
	assert.Empty(t, c.Complete("zzmenu"))

	writeExecutable(t, dir, "zzmenu-late", 0o755)
	assert.Eventually(t, func() bool {
		return len(c.Complete("zzmenu")) == 1
	}, time.Second, 20*time.Millisecond)
}
