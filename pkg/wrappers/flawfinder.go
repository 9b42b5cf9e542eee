package wrappers

import (
	"context"
	"time"

	"github.com/user/secmerge/pkg/engine"
	"github.com/user/secmerge/pkg/parsers"
	"github.com/user/secmerge/pkg/runner"
)

// FlawFinderWrapper runs flawfinder in CSV mode on a file or a directory.
type FlawFinderWrapper struct {
	base
}

func NewFlawFinder(binary string, timeout time.Duration, r runner.Runner) *FlawFinderWrapper {
	return &FlawFinderWrapper{base: newBase(binary, timeout, r)}
}

func (f *FlawFinderWrapper) Name() string { return engine.ToolFlawFinder }

func (f *FlawFinderWrapper) Description() string {
	return "Runs flawfinder and reads its CSV output, header row first."
}

func (f *FlawFinderWrapper) Family() engine.Family { return engine.FamilyDelimited }

// Args returns the command line for target, or an error when target is
// neither a file nor a directory.
func (f *FlawFinderWrapper) Args(target string) ([]string, error) {
	switch kindOf(target) {
	case targetFile:
		return []string{"--csv", target}, nil
	case targetDir:
		return []string{"--csv", "--inputs", target}, nil
	}
	return nil, invalidTarget(target, "not a file or directory")
}

func (f *FlawFinderWrapper) Analyze(ctx context.Context, target string) (engine.Table, error) {
	args, err := f.Args(target)
	if err != nil {
		return nil, err
	}
	res, err := f.exec(ctx, f.Name(), args, "")
	if err != nil {
		return nil, err
	}

	table, err := parsers.For(f.Family()).Parse(res.Stdout)
	if err != nil {
		return nil, err
	}
	if len(table) > 0 {
		table.Set(engine.ColTool, engine.ToolFlawFinder)
	}
	return table, nil
}
