package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/secmerge/pkg/logging"
)

// Analyzer runs one external tool against a file or directory and returns
// its raw table. On failure it returns an empty table and an error
// describing what went wrong; the error never stops other analyzers.
type Analyzer interface {
	Name() string
	Family() Family
	Analyze(ctx context.Context, target string) (Table, error)
}

// Observer is told about every finished analyzer run.
type Observer interface {
	ToolFinished(tool string, rows int, elapsed time.Duration, err error)
}

// Diagnostic is a non-fatal notice about one tool's run.
type Diagnostic struct {
	Tool string
	Err  error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %v", d.Tool, d.Err)
}

func (d Diagnostic) Unwrap() error { return d.Err }

func (d Diagnostic) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"tool": d.Tool, "error": d.Err.Error()})
}

// Options configures an Engine. Analyzers are merged in slice order.
type Options struct {
	Analyzers []Analyzer
	Observer  Observer
	Logger    *zap.SugaredLogger
}

// Engine aggregates analyzer output for one path at a time. It holds no
// mutable state, so a single Engine can serve concurrent Scan calls.
type Engine struct {
	analyzers []Analyzer
	observer  Observer
	log       *zap.SugaredLogger
}

// New builds an engine from opts.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logging.L()
	}
	return &Engine{
		analyzers: opts.Analyzers,
		observer:  opts.Observer,
		log:       log,
	}
}

// Analyzers returns the configured analyzer names in merge order.
func (e *Engine) Analyzers() []string {
	names := make([]string, len(e.analyzers))
	for i, a := range e.analyzers {
		names[i] = a.Name()
	}
	return names
}

// Scan runs every analyzer on target concurrently, normalizes each table and
// merges them. It always returns a report, possibly empty, together with the
// diagnostics of tools that failed.
func (e *Engine) Scan(ctx context.Context, target string) (Report, []Diagnostic) {
	tables := make([]Table, len(e.analyzers))
	errs := make([]error, len(e.analyzers))

	var g errgroup.Group
	for i, a := range e.analyzers {
		i, a := i, a
		g.Go(func() error {
			tables[i], errs[i] = e.runOne(ctx, a, target)
			return nil
		})
	}
	_ = g.Wait()

	var diags []Diagnostic
	for i, err := range errs {
		if err == nil {
			continue
		}
		d := Diagnostic{Tool: e.analyzers[i].Name(), Err: err}
		e.log.With("tool", d.Tool, "target", target).Warnf("analyzer failed: %v", err)
		diags = append(diags, d)
	}

	report := Merge(target, tables...)
	e.log.With("target", target).Debugf("merged %d findings from %d tools", len(report.Findings), len(e.analyzers))
	return report, diags
}

func (e *Engine) runOne(ctx context.Context, a Analyzer, target string) (t Table, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("analyzer panicked: %v", r)
		}
		if e.observer != nil {
			e.observer.ToolFinished(a.Name(), len(t), time.Since(start), err)
		}
	}()

	raw, err := a.Analyze(ctx, target)
	if err != nil {
		return nil, err
	}
	e.log.With("tool", a.Name(), "target", target).Debugf("parsed %d raw rows", len(raw))
	return Normalize(raw, a.Family()), nil
}
