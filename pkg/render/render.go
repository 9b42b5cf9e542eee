// Package render writes merged reports in the supported output formats.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/user/secmerge/pkg/engine"
)

// Formats accepted by Write.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

var Formats = []string{FormatTable, FormatJSON, FormatCSV}

// maxCell caps table cells so long messages do not wreck the layout.
const maxCell = 60

// Write renders the findings of every report to w.
func Write(w io.Writer, format string, reports []engine.Report) error {
	switch format {
	case FormatTable:
		return Table(w, reports)
	case FormatJSON:
		return JSON(w, reports)
	case FormatCSV:
		return CSV(w, reports)
	}
	return fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

func findings(reports []engine.Report) []engine.Finding {
	out := []engine.Finding{}
	for _, r := range reports {
		out = append(out, r.Findings...)
	}
	return out
}

// JSON writes a single array of findings with canonical keys.
func JSON(w io.Writer, reports []engine.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings(reports))
}

// CSV writes the canonical header followed by one record per finding.
func CSV(w io.Writer, reports []engine.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(engine.Columns); err != nil {
		return err
	}
	for _, f := range findings(reports) {
		if err := cw.Write(f.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var tableColumns = []string{
	engine.ColFile, engine.ColLine, engine.ColTool, engine.ColCWE,
	engine.ColName, engine.ColSeverity, engine.ColMsg,
}

// Table writes an aligned summary of each finding followed by per-tool
// totals.
func Table(w io.Writer, reports []engine.Report) error {
	all := findings(reports)
	if len(all) == 0 {
		_, err := fmt.Fprintln(w, "No findings.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(tableColumns, "\t")))
	for _, f := range all {
		cells := make([]string, len(tableColumns))
		for i, col := range tableColumns {
			cells[i] = clip(f.Get(col))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts := map[string]int{}
	for _, r := range reports {
		for tool, n := range r.CountByTool() {
			counts[tool] += n
		}
	}
	tools := make([]string, 0, len(counts))
	for tool := range counts {
		tools = append(tools, tool)
	}
	sort.Strings(tools)

	parts := make([]string, len(tools))
	for i, tool := range tools {
		parts[i] = fmt.Sprintf("%s=%d", tool, counts[tool])
	}
	_, err := fmt.Fprintf(w, "\n%d findings (%s)\n", len(all), strings.Join(parts, ", "))
	return err
}

func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxCell {
		return s
	}
	return string(r[:maxCell-3]) + "..."
}
