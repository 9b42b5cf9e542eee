package wrappers

import (
	"os/exec"

	"github.com/user/secmerge/pkg/config"
	"github.com/user/secmerge/pkg/engine"
	"github.com/user/secmerge/pkg/runner"
)

// New builds the wrapper for a configured tool name. ok is false for names
// no wrapper exists for.
func New(name string, tc config.ToolConfig, r runner.Runner) (Tool, bool) {
	switch name {
	case config.ToolCppCheck:
		return NewCppCheck(tc.Binary, tc.Timeout, r), true
	case config.ToolFlawFinder:
		return NewFlawFinder(tc.Binary, tc.Timeout, r), true
	case config.ToolRats:
		return NewRats(tc.Binary, tc.Timeout, r), true
	case config.ToolInfer:
		return NewInfer(tc.Binary, tc.Compiler, tc.Timeout, r), true
	}
	return nil, false
}

// FromConfig returns the enabled tools in merge order.
func FromConfig(cfg *config.Config, r runner.Runner) []engine.Analyzer {
	var out []engine.Analyzer
	for _, name := range cfg.Enabled() {
		if t, ok := New(name, cfg.Tools[name], r); ok {
			out = append(out, t)
		}
	}
	return out
}

// Status describes whether a configured tool can be launched.
type Status struct {
	Name    string
	Binary  string
	Path    string
	Enabled bool
}

func (s Status) Installed() bool { return s.Path != "" }

// Available resolves every known tool's binary on PATH.
func Available(cfg *config.Config) []Status {
	out := make([]Status, 0, len(config.ToolNames))
	for _, name := range config.ToolNames {
		tc := cfg.Tools[name]
		s := Status{Name: name, Binary: tc.Binary, Enabled: !tc.Disabled}
		if p, err := exec.LookPath(tc.Binary); err == nil {
			s.Path = p
		}
		out = append(out, s)
	}
	return out
}
