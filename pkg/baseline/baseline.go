// Package baseline saves merged findings to a snapshot file and compares a
// later scan against it.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/user/secmerge/pkg/engine"
)

const DefaultPath = ".secmerge-baseline.json"

// Entry is the part of a finding that identifies it across scans.
type Entry struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Tool string `json:"tool"`
	CWE  string `json:"cwe"`
	Name string `json:"name"`
	Msg  string `json:"msg"`
}

func entryOf(f engine.Finding) Entry {
	return Entry{
		File: f.File,
		Line: f.Line,
		Tool: f.Get(engine.ColTool),
		CWE:  f.CWE,
		Name: f.Get(engine.ColName),
		Msg:  f.Get(engine.ColMsg),
	}
}

// Key identifies an entry. The message is left out since tools embed
// variable names and counts in it.
func (e Entry) Key() string {
	return strings.Join([]string{e.File, strconv.Itoa(e.Line), e.Tool, e.CWE, e.Name}, "|")
}

type Snapshot struct {
	Created time.Time `json:"created"`
	Entries []Entry   `json:"entries"`
}

// FromReports builds a snapshot of every finding in reports.
func FromReports(reports []engine.Report) Snapshot {
	s := Snapshot{Created: time.Now().UTC(), Entries: []Entry{}}
	for _, r := range reports {
		for _, f := range r.Findings {
			s.Entries = append(s.Entries, entryOf(f))
		}
	}
	sortEntries(s.Entries)
	return s
}

func Save(path string, s Snapshot) error {
	if path == "" {
		path = DefaultPath
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func Load(path string) (Snapshot, error) {
	if path == "" {
		path = DefaultPath
	}
	var s Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse baseline %s: %w", path, err)
	}
	return s, nil
}

// Diff splits findings into those absent from the baseline (New), those
// only in the baseline (Fixed) and those in both (Unchanged).
type Diff struct {
	New       []Entry `json:"new"`
	Fixed     []Entry `json:"fixed"`
	Unchanged []Entry `json:"unchanged"`
}

func Compare(current, base Snapshot) Diff {
	d := Diff{New: []Entry{}, Fixed: []Entry{}, Unchanged: []Entry{}}

	seen := make(map[string]bool, len(base.Entries))
	for _, e := range base.Entries {
		seen[e.Key()] = false
	}
	for _, e := range current.Entries {
		if _, ok := seen[e.Key()]; ok {
			seen[e.Key()] = true
			d.Unchanged = append(d.Unchanged, e)
			continue
		}
		d.New = append(d.New, e)
	}
	for _, e := range base.Entries {
		if !seen[e.Key()] {
			d.Fixed = append(d.Fixed, e)
		}
	}
	return d
}

// Summary is a short human readable account of d.
func (d Diff) Summary(limit int) string {
	var sb strings.Builder
	section := func(title, mark string, entries []Entry) {
		fmt.Fprintf(&sb, "%s: %d\n", title, len(entries))
		for i, e := range entries {
			if limit > 0 && i == limit {
				fmt.Fprintf(&sb, "  ... and %d more.\n", len(entries)-limit)
				break
			}
			fmt.Fprintf(&sb, "  [%s] %s:%d %s %s (%s)\n", mark, e.File, e.Line, e.CWE, e.Name, e.Tool)
		}
	}
	section("NEW", "+", d.New)
	section("FIXED", "-", d.Fixed)
	section("UNCHANGED", "=", d.Unchanged)
	return sb.String()
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
}
