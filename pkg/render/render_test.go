package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/secmerge/pkg/engine"
)

func sampleReports() []engine.Report {
	return []engine.Report{
		{File: "a.c", Findings: []engine.Finding{
			{File: "a.c", Line: 4, CWE: "CWE-476", Name: engine.Str("nullPointer"), Tool: engine.ToolCppCheck},
			{File: "a.c", Line: 9, CWE: "CWE-120", Msg: engine.Str("buffer, overflow"), Tool: engine.ToolFlawFinder},
		}},
		{File: "b.c"},
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleReports()))

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, float64(4), got[0]["line"])
	assert.Equal(t, "nullPointer", got[0]["name"])
	assert.Equal(t, engine.Sentinel, got[0]["msg"])
	assert.Len(t, got[0], len(engine.Columns))
}

func TestJSONEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, []engine.Report{{File: "x.c"}}))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleReports()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, engine.Columns, records[0])
	assert.Equal(t, "buffer, overflow", records[2][7])
	assert.Equal(t, "9", records[2][1])
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, sampleReports()))

	out := buf.String()
	assert.Contains(t, out, "FILE")
	assert.Contains(t, out, "nullPointer")
	assert.Contains(t, out, "2 findings (CppCheck=1, FlawFinder=1)")
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, nil))
	assert.Equal(t, "No findings.\n", buf.String())
}

func TestUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "xml", nil))
}

func TestClip(t *testing.T) {
	long := strings.Repeat("x", 100)
	assert.Len(t, clip(long), maxCell)
	assert.Equal(t, "a b", clip("a\n  b"))
}
