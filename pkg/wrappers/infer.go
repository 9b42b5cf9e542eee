package wrappers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/user/secmerge/pkg/engine"
	"github.com/user/secmerge/pkg/parsers"
	"github.com/user/secmerge/pkg/runner"
)

// ErrNoReport means infer finished without writing report.json.
var ErrNoReport = errors.New("infer produced no report")

// InferWrapper runs infer over a single-file compilation and reads the
// report.json array it leaves in its results directory.
type InferWrapper struct {
	base
	compiler string
}

func NewInfer(binary, compiler string, timeout time.Duration, r runner.Runner) *InferWrapper {
	if compiler == "" {
		compiler = "gcc"
	}
	return &InferWrapper{base: newBase(binary, timeout, r), compiler: compiler}
}

func (i *InferWrapper) Name() string { return engine.ToolInfer }

func (i *InferWrapper) Description() string {
	return "Runs infer on a compiler invocation for one file and reads report.json."
}

func (i *InferWrapper) Family() engine.Family { return engine.FamilyJSON }

func (i *InferWrapper) Args(resultsDir, target string) []string {
	return []string{"run", "--results-dir", resultsDir, "--", i.compiler, "-c", target}
}

func (i *InferWrapper) Analyze(ctx context.Context, target string) (engine.Table, error) {
	if kindOf(target) != targetFile {
		return nil, invalidTarget(target, "infer analyses single files only")
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, err
	}

	// a private results dir per run, also used as the working directory so
	// the compiler's object file does not land next to the source
	resultsDir, err := os.MkdirTemp("", "secmerge-infer-*")
	if err != nil {
		return nil, fmt.Errorf("create infer results dir: %w", err)
	}
	defer os.RemoveAll(resultsDir)

	if _, err := i.exec(ctx, i.Name(), i.Args(resultsDir, abs), resultsDir); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(resultsDir, "report.json"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoReport, err)
	}
	table, err := parsers.For(i.Family()).Parse(data)
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, nil
	}

	table = stampCWE(engine.CoerceLine(table)).Set(engine.ColTool, engine.ToolInfer)
	return table, nil
}
