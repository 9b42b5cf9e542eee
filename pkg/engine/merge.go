package engine

import "strings"

// NoiseColumns carry tool-internal data that means nothing across tools.
var NoiseColumns = []string{"toolversion", "fingerprint", "ruleid", "suggestion"}

const colInconclusive = "inconclusive"

// Merge combines normalized per-tool tables into the report for file.
//
// Rows keep their per-tool order and tools keep the order they are passed in.
// A row without a numeric line or without a cwe is discarded. Every kept
// finding has File set to file, whatever path the tool reported.
func Merge(file string, tables ...Table) Report {
	report := Report{File: file}

	var work Table
	for _, t := range tables {
		if len(t) > 0 {
			work = append(work, t...)
		}
	}
	if len(work) == 0 {
		return report
	}

	work = work.Drop(NoiseColumns...)
	if work.HasColumn(colInconclusive) {
		work = work.Drop(colInconclusive)
	}

	report.Findings = make([]Finding, 0, len(work))
	for _, r := range work {
		f, ok := findingFromRecord(r)
		if !ok {
			continue
		}
		f.File = file
		report.Findings = append(report.Findings, f)
	}
	return report
}

// findingFromRecord projects a normalized row onto the canonical schema. It
// fails when a mandatory field is missing.
func findingFromRecord(r Record) (Finding, bool) {
	rawLine, ok := r[ColLine]
	if !ok {
		return Finding{}, false
	}
	line, ok := ParseLine(rawLine)
	if !ok {
		return Finding{}, false
	}
	cwe, ok := r[ColCWE]
	if !ok {
		return Finding{}, false
	}

	opt := func(col string) *string {
		v, ok := r[col]
		if !ok {
			return nil
		}
		return &v
	}

	f := Finding{
		Line:         line,
		Column:       opt(ColColumn),
		DefaultLevel: opt(ColDefaultLevel),
		Level:        opt(ColLevel),
		Category:     opt(ColCategory),
		Name:         opt(ColName),
		Msg:          opt(ColMsg),
		Note:         opt(ColNote),
		CWE:          cwe,
		Context:      opt(ColContext),
		HelpURI:      opt(ColHelpURI),
		Severity:     opt(ColSeverity),
		Tool:         r[ColTool],
		Type:         opt(ColType),
	}
	if f.Context != nil {
		trimmed := strings.TrimSpace(*f.Context)
		f.Context = &trimmed
	}
	return f, true
}
