package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxTimeout = 5 * time.Minute
	streamChunkSize   = 1024
)

// Result is the outcome of a finished command
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Chunk is a piece of streamed output
type Chunk struct {
	Data   string `json:"chunk"`
	Stderr bool   `json:"is_stderr"`
}

// Options configures a Runner
type Options struct {
	// WorkingDir for every command; empty inherits the server's
	WorkingDir string
	// Timeout applies when a caller passes none
	Timeout time.Duration
	// MaxTimeout caps caller-supplied timeouts
	MaxTimeout time.Duration
	Logger     *zap.Logger
}

// Runner executes one-off commands outside any PTY, without a shell
type Runner struct {
	opts   Options
	logger *zap.Logger
}

// NewRunner creates a Runner
func NewRunner(opts Options) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxTimeout <= 0 {
		opts.MaxTimeout = DefaultMaxTimeout
	}
	if opts.Timeout > opts.MaxTimeout {
		opts.Timeout = opts.MaxTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{opts: opts, logger: logger}
}

// Run executes name with args and collects its output. A zero timeout uses
// the default. A non-zero exit status is a Result, not an error.
func (r *Runner) Run(ctx context.Context, name string, args []string, timeout time.Duration) (Result, error) {
	cmd, ctx, cancel, err := r.prepare(ctx, name, args, timeout)
	if err != nil {
		return Result{}, err
	}
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	res := Result{
		Stdout: strings.ToValidUTF8(stdout.String(), "�"),
		Stderr: strings.ToValidUTF8(stderr.String(), "�"),
	}
	code, err := r.finish(ctx, name, runErr)
	res.ExitCode = code
	r.logger.Debug("Command finished",
		zap.String("command", name),
		zap.Int("exit_code", code),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	return res, err
}

// Stream executes name with args and hands stdout and stderr to emit in
// chunks as they arrive. emit is never called concurrently. It returns the
// exit code once both streams are drained.
func (r *Runner) Stream(ctx context.Context, name string, args []string, timeout time.Duration, emit func(Chunk)) (int, error) {
	cmd, ctx, cancel, err := r.prepare(ctx, name, args, timeout)
	if err != nil {
		return -1, err
	}
	defer cancel()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("failed to open stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("failed to open stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		_, err = r.finish(ctx, name, err)
		return -1, err
	}

	var mu sync.Mutex
	send := func(c Chunk) {
		mu.Lock()
		defer mu.Unlock()
		emit(c)
	}

	// Pipes must be drained before Wait closes them
	var g errgroup.Group
	g.Go(func() error { return pump(stdout, false, send) })
	g.Go(func() error { return pump(stderr, true, send) })
	if err := g.Wait(); err != nil {
		r.logger.Debug("Command output ended early", zap.String("command", name), zap.Error(err))
	}

	return r.finish(ctx, name, cmd.Wait())
}

func pump(rd io.Reader, isStderr bool, send func(Chunk)) error {
	buf := make([]byte, streamChunkSize)
	for {
		n, err := rd.Read(buf)
		if n > 0 {
			send(Chunk{Data: strings.ToValidUTF8(string(buf[:n]), "�"), Stderr: isStderr})
		}
		if errors.Is(err, io.EOF) || errors.Is(err, fs.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (r *Runner) prepare(ctx context.Context, name string, args []string, timeout time.Duration) (*exec.Cmd, context.Context, context.CancelFunc, error) {
	if err := ValidateCommand(name); err != nil {
		return nil, nil, nil, err
	}
	if err := ValidateArgs(args); err != nil {
		return nil, nil, nil, err
	}
	if timeout <= 0 {
		timeout = r.opts.Timeout
	}
	if timeout > r.opts.MaxTimeout {
		timeout = r.opts.MaxTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.opts.WorkingDir
	cmd.WaitDelay = time.Second
	return cmd, ctx, cancel, nil
}

// finish maps a Start/Run/Wait error to an exit code and a typed error
func (r *Runner) finish(ctx context.Context, name string, err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return -1, fmt.Errorf("%w: %s", ErrTimeout, name)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return -1, fmt.Errorf("%w: '%s', make sure it is installed and in your PATH", ErrCommandNotFound, name)
	case errors.Is(err, fs.ErrPermission):
		return -1, fmt.Errorf("%w: '%s'", ErrPermissionDenied, name)
	}
	return -1, fmt.Errorf("failed to execute '%s': %w", name, err)
}
