package wrappers

import (
	"bytes"
	"context"
	"time"

	"github.com/user/secmerge/pkg/engine"
	"github.com/user/secmerge/pkg/logging"
	"github.com/user/secmerge/pkg/parsers"
	"github.com/user/secmerge/pkg/runner"
)

// RatsWrapper runs the Rough Auditing Tool for Security with XML output.
// Rats never classifies its findings with a CWE.
type RatsWrapper struct {
	base
}

func NewRats(binary string, timeout time.Duration, r runner.Runner) *RatsWrapper {
	return &RatsWrapper{base: newBase(binary, timeout, r)}
}

func (w *RatsWrapper) Name() string { return engine.ToolRats }

func (w *RatsWrapper) Description() string {
	return "Runs rats at warning level 3 and reads its vulnerability nodes."
}

func (w *RatsWrapper) Family() engine.Family { return engine.FamilyNodeWalk }

func (w *RatsWrapper) Args(target string) []string {
	return []string{"--quiet", "--xml", "-w", "3", target}
}

func (w *RatsWrapper) Analyze(ctx context.Context, target string) (engine.Table, error) {
	res, err := w.exec(ctx, w.Name(), w.Args(target), "")
	if err != nil {
		return nil, err
	}
	if msg := bytes.TrimSpace(res.Stderr); len(msg) > 0 {
		logging.Warnf("[%s] %s: %s", w.Name(), target, msg)
	}

	table, err := parsers.For(w.Family()).Parse(res.Stdout)
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, nil
	}

	table = engine.CoerceLine(table).
		Set(engine.ColCWE, engine.UnknownCWE).
		Set(engine.ColTool, engine.ToolRats)
	return table, nil
}
