package engine

import (
	"sort"
	"strings"
)

// Record is one tool-native row. A key that is not present means the tool
// did not report that field; an empty value is still a reported value.
type Record map[string]string

// Get returns the value stored under key and whether it was reported.
func (r Record) Get(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}

// Clone returns an independent copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered sequence of tool-native records (a RawTable). Its
// column set varies from tool to tool and from row to row.
type Table []Record

// Columns returns the sorted union of keys across all rows.
func (t Table) Columns() []string {
	seen := make(map[string]struct{})
	for _, r := range t {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// HasColumn reports whether any row carries col.
func (t Table) HasColumn(col string) bool {
	for _, r := range t {
		if _, ok := r[col]; ok {
			return true
		}
	}
	return false
}

// Rename moves values from old keys to new keys in every row. Keys missing
// from mapping are left untouched.
func (t Table) Rename(mapping map[string]string) Table {
	for _, r := range t {
		for from, to := range mapping {
			v, ok := r[from]
			if !ok {
				continue
			}
			delete(r, from)
			r[to] = v
		}
	}
	return t
}

// LowerColumns lower-cases every key.
func (t Table) LowerColumns() Table {
	for i, r := range t {
		lowered := make(Record, len(r))
		for k, v := range r {
			lowered[strings.ToLower(strings.TrimSpace(k))] = v
		}
		t[i] = lowered
	}
	return t
}

// Drop removes the given columns from every row.
func (t Table) Drop(cols ...string) Table {
	for _, r := range t {
		for _, c := range cols {
			delete(r, c)
		}
	}
	return t
}

// Set stores val under col in every row.
func (t Table) Set(col, val string) Table {
	for _, r := range t {
		r[col] = val
	}
	return t
}

// Apply calls fn on every row.
func (t Table) Apply(fn func(Record)) Table {
	for _, r := range t {
		fn(r)
	}
	return t
}
