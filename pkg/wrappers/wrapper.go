// Package wrappers binds each supported analyzer to its command line, its
// output parser and the corrections its output needs before normalization.
package wrappers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/user/secmerge/pkg/engine"
	"github.com/user/secmerge/pkg/logging"
	"github.com/user/secmerge/pkg/runner"
)

// ErrInvalidTarget is returned for paths a tool cannot analyse.
var ErrInvalidTarget = errors.New("invalid target")

// Tool is an engine.Analyzer that can describe itself.
type Tool interface {
	engine.Analyzer
	Description() string
	Binary() string
}

// base holds what every wrapper needs to launch its binary.
type base struct {
	binary  string
	timeout time.Duration
	runner  runner.Runner
}

func newBase(binary string, timeout time.Duration, r runner.Runner) base {
	if r == nil {
		r = runner.Exec{}
	}
	return base{binary: binary, timeout: timeout, runner: r}
}

func (b base) Binary() string { return b.binary }

// exec runs the command and turns launch failures and timeouts into errors.
// Non-zero exit statuses are only logged.
func (b base) exec(ctx context.Context, tool string, args []string, dir string) (runner.Result, error) {
	cmd := runner.Command{Name: b.binary, Args: args, Dir: dir}
	logging.Debugf("[%s] running %s", tool, cmd)

	res := b.runner.Run(ctx, cmd, b.timeout)
	if res.Err != nil {
		return res, res.Err
	}
	if res.ExitCode != 0 {
		logging.Debugf("[%s] exited with status %d after %s", tool, res.ExitCode, res.Duration)
	}
	return res, nil
}

type targetKind int

const (
	targetInvalid targetKind = iota
	targetFile
	targetDir
)

func kindOf(path string) targetKind {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return targetInvalid
	case info.IsDir():
		return targetDir
	case info.Mode().IsRegular():
		return targetFile
	}
	return targetInvalid
}

func invalidTarget(path, why string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidTarget, path, why)
}

// stampCWE formats a reported cwe, or sets UnknownCWE where none was reported.
func stampCWE(t engine.Table) engine.Table {
	return t.Apply(func(r engine.Record) {
		if v, ok := r[engine.ColCWE]; ok {
			r[engine.ColCWE] = engine.FormatCWE(v)
			return
		}
		r[engine.ColCWE] = engine.UnknownCWE
	})
}
