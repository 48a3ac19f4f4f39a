// Package executor runs a script tool as a single child process.
//
// Each Run writes the tool's script to a fresh temporary file, projects the
// inputs into the child environment, substitutes the script path into the
// tool's shell template, and waits for the command under the tool's timeout.
// The temporary file is removed on every path out of Run. Runs share no
// mutable state and may execute concurrently.
package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/germanamz/any-script-mcp/pkg/config"
	"github.com/germanamz/any-script-mcp/pkg/scalar"
)

const (
	// DefaultMaxOutput caps captured stdout.
	DefaultMaxOutput int64 = 10 * 1024 * 1024

	defaultWaitDelay = 2 * time.Second
)

// Runner executes script tools.
type Runner struct {
	log       *slog.Logger
	tempDir   string
	maxOutput int64
	baseEnv   []string
	shell     []string
	waitDelay time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger for execution events.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithTempDir sets where scripts are written. Defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(r *Runner) { r.tempDir = dir }
}

// WithMaxOutput sets the stdout cap in bytes.
func WithMaxOutput(n int64) Option {
	return func(r *Runner) { r.maxOutput = n }
}

// WithBaseEnv replaces the environment snapshot inputs are layered over.
func WithBaseEnv(env []string) Option {
	return func(r *Runner) { r.baseEnv = append([]string(nil), env...) }
}

// WithShell replaces the program used to interpret the resolved command
// line. The command is appended as the last argument.
func WithShell(argv ...string) Option {
	return func(r *Runner) { r.shell = append([]string(nil), argv...) }
}

// New creates a Runner. The current process environment is captured once
// and used as the base for every Run.
func New(opts ...Option) *Runner {
	r := &Runner{
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxOutput: DefaultMaxOutput,
		baseEnv:   os.Environ(),
		waitDelay: defaultWaitDelay,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Command returns the command line for a shell template with every {0}
// replaced by scriptPath.
func Command(shell, scriptPath string) string {
	return strings.ReplaceAll(shell, config.Placeholder, scriptPath)
}

// Run executes tool with inputs and returns its raw stdout. inputs must
// already be validated against the tool's declared inputs. Every failure is
// an *Error.
func (r *Runner) Run(ctx context.Context, tool config.ToolConfig, inputs map[string]scalar.Value) (string, error) {
	log := r.log.With("tool", tool.Name)
	start := time.Now()

	path, err := materialize(r.tempDir, tool.Run)
	if err != nil {
		return "", r.fail(ctx, log, start, &Error{Kind: KindIO, Tool: tool.Name, Err: err})
	}
	defer r.cleanup(log, path)

	env, err := Environ(r.baseEnv, inputs)
	if err != nil {
		return "", r.fail(ctx, log, start, &Error{Kind: KindIO, Tool: tool.Name, Err: err})
	}

	timeout := tool.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	shell := tool.Shell
	if shell == "" {
		shell = config.DefaultShell
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := r.argv(Command(shell, path))
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...) //nolint:gosec // running configured scripts is the point
	cmd.Env = env
	cmd.WaitDelay = r.waitDelay

	stdout := &cappedBuffer{limit: r.maxOutput, onOverflow: cancel}
	stderr := &cappedBuffer{limit: r.maxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return "", r.fail(ctx, log, start, &Error{Kind: KindIO, Tool: tool.Name, Err: err})
	}

	log.DebugContext(ctx, "tool started", "pid", cmd.Process.Pid, "timeout", timeout)

	waitErr := cmd.Wait()

	switch {
	case stdout.Overflowed():
		return "", r.fail(ctx, log, start, &Error{Kind: KindOutputTooLarge, Tool: tool.Name, Limit: r.maxOutput})
	case waitErr == nil, errors.Is(waitErr, exec.ErrWaitDelay) && cmd.ProcessState.Success():
		out := stdout.String()
		log.InfoContext(ctx, "tool finished",
			"duration", time.Since(start),
			"output", humanize.IBytes(uint64(len(out))),
		)

		return out, nil
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		return "", r.fail(ctx, log, start, &Error{Kind: KindTimeout, Tool: tool.Name, Timeout: timeout, Err: runCtx.Err()})
	case ctx.Err() != nil:
		return "", r.fail(ctx, log, start, &Error{Kind: KindCanceled, Tool: tool.Name, Err: ctx.Err()})
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return "", r.fail(ctx, log, start, &Error{
			Kind:     KindNonZeroExit,
			Tool:     tool.Name,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
			Err:      waitErr,
		})
	}

	return "", r.fail(ctx, log, start, &Error{Kind: KindIO, Tool: tool.Name, Err: waitErr})
}

func (r *Runner) argv(command string) []string {
	if len(r.shell) == 0 {
		return shellArgs(command)
	}

	return append(append([]string(nil), r.shell...), command)
}

func (r *Runner) fail(ctx context.Context, log *slog.Logger, start time.Time, err *Error) error {
	log.WarnContext(ctx, "tool failed",
		"kind", err.Kind.String(),
		"duration", time.Since(start),
		"error", err,
	)

	return err
}

func (r *Runner) cleanup(log *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("remove script failed", "path", path, "error", err)
	}
}
