package wrappers

import (
	"bytes"
	"context"
	"time"

	"github.com/user/secmerge/pkg/engine"
	"github.com/user/secmerge/pkg/parsers"
	"github.com/user/secmerge/pkg/runner"
	"github.com/user/secmerge/pkg/snippet"
)

// CppCheckWrapper runs cppcheck with XML output. cppcheck does not report
// the offending statement, so context is read back from the source file.
type CppCheckWrapper struct {
	base
}

func NewCppCheck(binary string, timeout time.Duration, r runner.Runner) *CppCheckWrapper {
	return &CppCheckWrapper{base: newBase(binary, timeout, r)}
}

func (c *CppCheckWrapper) Name() string { return engine.ToolCppCheck }

func (c *CppCheckWrapper) Description() string {
	return "Runs cppcheck and reads its version 2 XML report, one row per reported location."
}

func (c *CppCheckWrapper) Family() engine.Family { return engine.FamilyAttribute }

func (c *CppCheckWrapper) Args(target string) []string {
	return []string{"-f", target, "--xml", "--xml-version=2"}
}

func (c *CppCheckWrapper) Analyze(ctx context.Context, target string) (engine.Table, error) {
	res, err := c.exec(ctx, c.Name(), c.Args(target), "")
	if err != nil {
		return nil, err
	}

	// the XML report goes to stderr, progress lines to stdout
	out := res.Stderr
	if len(bytes.TrimSpace(out)) == 0 {
		out = res.Stdout
	}
	table, err := parsers.For(c.Family()).Parse(out)
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, nil
	}

	table = stampCWE(engine.CoerceLine(table)).Set(engine.ColTool, engine.ToolCppCheck)
	addContext(table, target)
	return table, nil
}

// addContext fills the context column from the source line each row points
// at. Rows without a usable line get an empty context.
func addContext(table engine.Table, target string) {
	table.Apply(func(r engine.Record) {
		n, ok := engine.ParseLine(r[engine.ColLine])
		if !ok {
			r[engine.ColContext] = ""
			return
		}
		r[engine.ColContext] = snippet.Statement(target, n-1)
	})
}
