package engine

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Sentinel stands in for a field the originating tool did not report. It only
// appears in rendered output; inside the engine absence is a nil pointer.
const Sentinel = "-"

// Canonical report columns, in output order.
const (
	ColFile         = "file"
	ColLine         = "line"
	ColColumn       = "column"
	ColDefaultLevel = "defaultlevel"
	ColLevel        = "level"
	ColCategory     = "category"
	ColName         = "name"
	ColMsg          = "msg"
	ColNote         = "note"
	ColCWE          = "cwe"
	ColContext      = "context"
	ColHelpURI      = "helpuri"
	ColSeverity     = "severity"
	ColTool         = "tool"
	ColType         = "type"
)

// Columns is the fixed canonical schema every report exposes.
var Columns = []string{
	ColFile, ColLine, ColColumn, ColDefaultLevel, ColLevel, ColCategory, ColName,
	ColMsg, ColNote, ColCWE, ColContext, ColHelpURI, ColSeverity, ColTool, ColType,
}

// Tool attribution values.
const (
	ToolCppCheck   = "CppCheck"
	ToolFlawFinder = "FlawFinder"
	ToolRats       = "Rats"
	ToolInfer      = "infer"
)

// Finding is one normalized vulnerability record contributed by one analyzer.
// Line and CWE are mandatory; every other field may be absent.
type Finding struct {
	File         string
	Line         int
	Column       *string
	DefaultLevel *string
	Level        *string
	Category     *string
	Name         *string
	Msg          *string
	Note         *string
	CWE          string
	Context      *string
	HelpURI      *string
	Severity     *string
	Tool         string
	Type         *string
}

// Str returns a pointer to s, for building findings in code and tests.
func Str(s string) *string { return &s }

func orSentinel(s *string) string {
	if s == nil {
		return Sentinel
	}
	return *s
}

// Get returns the wire value of a canonical column.
func (f Finding) Get(col string) string {
	switch col {
	case ColFile:
		return f.File
	case ColLine:
		return strconv.Itoa(f.Line)
	case ColColumn:
		return orSentinel(f.Column)
	case ColDefaultLevel:
		return orSentinel(f.DefaultLevel)
	case ColLevel:
		return orSentinel(f.Level)
	case ColCategory:
		return orSentinel(f.Category)
	case ColName:
		return orSentinel(f.Name)
	case ColMsg:
		return orSentinel(f.Msg)
	case ColNote:
		return orSentinel(f.Note)
	case ColCWE:
		return f.CWE
	case ColContext:
		return orSentinel(f.Context)
	case ColHelpURI:
		return orSentinel(f.HelpURI)
	case ColSeverity:
		return orSentinel(f.Severity)
	case ColTool:
		if f.Tool == "" {
			return Sentinel
		}
		return f.Tool
	case ColType:
		return orSentinel(f.Type)
	}
	return Sentinel
}

// Values returns the row in canonical column order.
func (f Finding) Values() []string {
	out := make([]string, len(Columns))
	for i, col := range Columns {
		out[i] = f.Get(col)
	}
	return out
}

// MarshalJSON writes the finding as an object whose keys follow Columns.
// line is emitted as a number, everything else as a string.
func (f Finding) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(col)
		buf.Write(key)
		buf.WriteByte(':')
		if col == ColLine {
			buf.WriteString(strconv.Itoa(f.Line))
			continue
		}
		val, err := json.Marshal(f.Get(col))
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Report is the merged, column-complete result for one input path.
type Report struct {
	File     string    `json:"file"`
	Findings []Finding `json:"findings"`
}

// Empty reports whether no finding survived the merge.
func (r Report) Empty() bool {
	return len(r.Findings) == 0
}

// CountByTool returns the number of findings attributed to each tool.
func (r Report) CountByTool() map[string]int {
	out := make(map[string]int)
	for _, f := range r.Findings {
		out[f.Tool]++
	}
	return out
}
