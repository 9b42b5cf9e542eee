package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// UnknownCWE marks a finding whose tool reported no weakness class.
const UnknownCWE = "CWE-unknown"

var cweNumber = regexp.MustCompile(`(?i)(?:CWE-?)?(\d+)`)

// FormatCWE renders a raw tool value as "CWE-<n>". Multi-valued fields such as
// FlawFinder's "CWE-120, CWE-20" keep the first identifier. Values carrying no
// number become UnknownCWE.
func FormatCWE(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, UnknownCWE) {
		return UnknownCWE
	}
	m := cweNumber.FindStringSubmatch(raw)
	if m == nil {
		return UnknownCWE
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return UnknownCWE
	}
	return "CWE-" + strconv.Itoa(n)
}

// ParseLine converts a reported line to an integer. It accepts surrounding
// whitespace and float spellings like "12.0" that CSV exporters produce.
func ParseLine(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// CoerceLine rewrites the line column of every row to its integer form and
// removes it from rows where it is not numeric. Such rows are later rejected
// by Merge because line is mandatory.
func CoerceLine(t Table) Table {
	return t.Apply(func(r Record) {
		v, ok := r[ColLine]
		if !ok {
			return
		}
		n, ok := ParseLine(v)
		if !ok {
			delete(r, ColLine)
			return
		}
		r[ColLine] = strconv.Itoa(n)
	})
}
