// Package runner launches external analyzers as child processes under a hard
// deadline. Run never panics and never returns a Go error: every failure is
// reported through Result.Err so callers can carry on with other tools.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrToolUnavailable means the binary could not be found or started.
	ErrToolUnavailable = errors.New("tool unavailable")
	// ErrTimeout means the process outlived its deadline and was killed.
	ErrTimeout = errors.New("tool deadline exceeded")
	// ErrInvalidDeadline is returned for zero or negative deadlines.
	ErrInvalidDeadline = errors.New("deadline must be positive")
)

// waitDelay bounds how long Wait keeps draining pipes after the process was
// killed or exited while a descendant still holds them open.
const waitDelay = 500 * time.Millisecond

// Command is a tool invocation already bound to its target path.
type Command struct {
	Name string
	Args []string
	Dir  string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is the captured outcome of one invocation. Stdout and Stderr are
// empty whenever Err is ErrTimeout or ErrToolUnavailable.
type Result struct {
	Command  Command
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	PID      int
	Err      error
	Duration time.Duration
}

// Runner is the seam wrappers use to launch tools.
type Runner interface {
	Run(ctx context.Context, cmd Command, deadline time.Duration) Result
}

// Exec runs commands with os/exec.
type Exec struct{}

var _ Runner = Exec{}

func (Exec) Run(ctx context.Context, c Command, deadline time.Duration) Result {
	return Run(ctx, c, deadline)
}

// Run starts c, waits for it to exit or for deadline to pass, and returns the
// captured streams. A non-zero exit status is recorded in ExitCode but is not
// an error, since analyzers commonly exit non-zero when they report findings.
func Run(ctx context.Context, c Command, deadline time.Duration) Result {
	start := time.Now()
	res := Result{Command: c, ExitCode: -1}

	if deadline <= 0 {
		res.Err = fmt.Errorf("%s: %w (got %s)", c.Name, ErrInvalidDeadline, deadline)
		return res
	}

	path, err := exec.LookPath(c.Name)
	if err != nil {
		res.Err = fmt.Errorf("%w: %s: %v", ErrToolUnavailable, c.Name, err)
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	killGroup(cmd)

	if err := cmd.Start(); err != nil {
		res.Duration = time.Since(start)
		if ctx.Err() != nil {
			res.Err = contextErr(ctx, c.Name, deadline)
			return res
		}
		res.Err = fmt.Errorf("%w: %s: %v", ErrToolUnavailable, c.Name, err)
		return res
	}
	res.PID = cmd.Process.Pid

	err = cmd.Wait()
	res.Duration = time.Since(start)

	if err != nil && ctx.Err() != nil {
		res.Err = contextErr(ctx, c.Name, deadline)
		return res
	}

	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil, errors.As(err, &exitErr), errors.Is(err, exec.ErrWaitDelay):
	default:
		res.Err = fmt.Errorf("%s: %w", c.Name, err)
	}
	return res
}

// contextErr reports why ctx ended: the run's own deadline becomes ErrTimeout,
// a cancelled parent is passed through.
func contextErr(ctx context.Context, name string, deadline time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s killed after %s", ErrTimeout, name, deadline)
	}
	return fmt.Errorf("%s: %w", name, ctx.Err())
}
