package runner

import (
	"context"
	"sync"
	"time"
)

// Fake returns canned results keyed by binary name and records every call.
type Fake struct {
	mu      sync.Mutex
	Results map[string]Result
	Calls   []Command
}

var _ Runner = (*Fake)(nil)

func (f *Fake) Run(ctx context.Context, c Command, deadline time.Duration) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, c)

	res, ok := f.Results[c.Name]
	if !ok {
		return Result{Command: c, ExitCode: -1, Err: ErrToolUnavailable}
	}
	res.Command = c
	return res
}

// Last returns the most recent call for name.
func (f *Fake) Last(name string) (Command, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Calls) - 1; i >= 0; i-- {
		if f.Calls[i].Name == name {
			return f.Calls[i], true
		}
	}
	return Command{}, false
}
