package wrappers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/secmerge/pkg/config"
	"github.com/user/secmerge/pkg/engine"
	"github.com/user/secmerge/pkg/runner"
)

const nullPointerXML = `<?xml version="1.0" encoding="UTF-8"?>
<results version="2">
  <cppcheck version="2.13"/>
  <errors>
    <error id="nullPointer" severity="error" msg="Null pointer dereference: p" verbose="Null pointer dereference: p" inconclusive="false">
      <location file0="sample.c" file="sample.c" line="4" column="2" info="Null pointer dereference"/>
    </error>
  </errors>
</results>
`

const sampleSource = "#include <stdio.h>\n\nint main(void) {\nint *p = NULL;\n*p = 1;\n}\n"

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.c")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCppCheckEndToEnd(t *testing.T) {
	src := writeSource(t, sampleSource)
	fake := &runner.Fake{Results: map[string]runner.Result{
		"cppcheck": {Stderr: []byte(nullPointerXML), Stdout: []byte("Checking sample.c ...\n")},
	}}

	e := engine.New(engine.Options{Analyzers: []engine.Analyzer{NewCppCheck("cppcheck", time.Second, fake)}})
	report, diags := e.Scan(context.Background(), src)

	require.Empty(t, diags)
	require.Len(t, report.Findings, 1)
	f := report.Findings[0]
	assert.Equal(t, 4, f.Line)
	assert.Equal(t, engine.UnknownCWE, f.CWE)
	assert.Equal(t, "nullPointer", f.Get(engine.ColName))
	assert.Equal(t, "int *p = NULL;", f.Get(engine.ColContext))
	assert.Equal(t, engine.ToolCppCheck, f.Tool)
	assert.Equal(t, "Null pointer dereference", f.Get(engine.ColNote))
	assert.Equal(t, "2", f.Get(engine.ColColumn))

	cmd, ok := fake.Last("cppcheck")
	require.True(t, ok)
	assert.Equal(t, []string{"-f", src, "--xml", "--xml-version=2"}, cmd.Args)
}

func TestCppCheckFallsBackToStdout(t *testing.T) {
	src := writeSource(t, sampleSource)
	fake := &runner.Fake{Results: map[string]runner.Result{
		"cppcheck": {Stdout: []byte(nullPointerXML)},
	}}

	table, err := NewCppCheck("cppcheck", time.Second, fake).Analyze(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "int *p = NULL;", table[0][engine.ColContext])
}

func TestCppCheckReportedCWE(t *testing.T) {
	src := writeSource(t, sampleSource)
	xml := strings.Replace(nullPointerXML, `inconclusive="false"`, `inconclusive="false" cwe="476"`, 1)
	fake := &runner.Fake{Results: map[string]runner.Result{
		"cppcheck": {Stderr: []byte(xml)},
	}}

	e := engine.New(engine.Options{Analyzers: []engine.Analyzer{NewCppCheck("cppcheck", time.Second, fake)}})
	report, diags := e.Scan(context.Background(), src)

	require.Empty(t, diags)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "CWE-476", report.Findings[0].CWE)
	assert.Equal(t, 4, report.Findings[0].Line)
	assert.Equal(t, "int *p = NULL;", report.Findings[0].Get(engine.ColContext))
}

func TestCppCheckLineOutOfRange(t *testing.T) {
	src := writeSource(t, "int x;\n")
	fake := &runner.Fake{Results: map[string]runner.Result{
		"cppcheck": {Stderr: []byte(nullPointerXML)},
	}}

	table, err := NewCppCheck("cppcheck", time.Second, fake).Analyze(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "", table[0][engine.ColContext])
}

func TestAllToolsEmpty(t *testing.T) {
	src := writeSource(t, sampleSource)
	fake := &runner.Fake{Results: map[string]runner.Result{
		"flawfinder": {Stdout: []byte("")},
		"cppcheck":   {Stderr: []byte(`<?xml version="1.0"?><results version="2"><errors></errors></results>`)},
		"rats":       {Stdout: []byte(`<?xml version="1.0"?><rats_output></rats_output>`)},
	}}

	e := engine.New(engine.Options{Analyzers: []engine.Analyzer{
		NewFlawFinder("flawfinder", time.Second, fake),
		NewCppCheck("cppcheck", time.Second, fake),
		NewRats("rats", time.Second, fake),
	}})
	report, diags := e.Scan(context.Background(), src)

	assert.Empty(t, diags)
	assert.True(t, report.Empty())
	assert.Equal(t, src, report.File)
}

const flawfinderCSV = "File,Line,Column,DefaultLevel,Level,Category,Name,Warning,Suggestion,Note,CWEs,Context,Fingerprint,ToolVersion,RuleId,HelpUri\n" +
	"sample.c,5,3,4,4,buffer,strcpy,Does not check for buffer overflows when copying to destination (CWE-120),Consider using snprintf,Risk is high,CWE-120,\"  strcpy(buf, argv[1]);\",abc123,2.0.19,FF1001,https://cwe.mitre.org/data/definitions/120.html\n"

func TestFlawFinder(t *testing.T) {
	src := writeSource(t, sampleSource)
	fake := &runner.Fake{Results: map[string]runner.Result{
		"flawfinder": {Stdout: []byte(flawfinderCSV)},
	}}

	e := engine.New(engine.Options{Analyzers: []engine.Analyzer{NewFlawFinder("flawfinder", time.Second, fake)}})
	report, diags := e.Scan(context.Background(), src)

	require.Empty(t, diags)
	require.Len(t, report.Findings, 1)
	f := report.Findings[0]
	assert.Equal(t, 5, f.Line)
	assert.Equal(t, "CWE-120", f.CWE)
	assert.Equal(t, "strcpy", f.Get(engine.ColName))
	assert.Equal(t, "Consider using snprintf  Risk is high", f.Get(engine.ColNote))
	assert.Equal(t, "strcpy(buf, argv[1]);", f.Get(engine.ColContext))
	assert.Equal(t, engine.ToolFlawFinder, f.Tool)

	cmd, _ := fake.Last("flawfinder")
	assert.Equal(t, []string{"--csv", src}, cmd.Args)
}

func TestFlawFinderArgs(t *testing.T) {
	dir := t.TempDir()
	f := NewFlawFinder("flawfinder", time.Second, nil)

	args, err := f.Args(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"--csv", "--inputs", dir}, args)

	_, err = f.Args(filepath.Join(dir, "missing.c"))
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

const ratsXML = `<?xml version="1.0"?><rats_output>
<stats><dbcount lang="c">334</dbcount></stats>
<vulnerability>
  <severity>High</severity>
  <type>fixed size global buffer</type>
  <message>
    Extra care should be taken to ensure that character arrays that are
    allocated on the stack are used safely.
  </message>
  <file>
    <name>sample.c</name>
    <line>3</line>
    <line>7</line>
  </file>
</vulnerability>
</rats_output>
`

func TestRats(t *testing.T) {
	src := writeSource(t, sampleSource)
	fake := &runner.Fake{Results: map[string]runner.Result{
		"rats": {Stdout: []byte(ratsXML), Stderr: []byte("rats: warning\n")},
	}}

	e := engine.New(engine.Options{Analyzers: []engine.Analyzer{NewRats("rats", time.Second, fake)}})
	report, diags := e.Scan(context.Background(), src)

	require.Empty(t, diags)
	require.Len(t, report.Findings, 2)
	for i, line := range []int{3, 7} {
		f := report.Findings[i]
		assert.Equal(t, line, f.Line)
		assert.Equal(t, engine.UnknownCWE, f.CWE)
		assert.Equal(t, "High", f.Get(engine.ColSeverity))
		assert.Equal(t, "fixed size global buffer", f.Get(engine.ColCategory))
		assert.Equal(t, engine.ToolRats, f.Tool)
	}
}

func TestToolUnavailableIsDiagnostic(t *testing.T) {
	src := writeSource(t, sampleSource)
	fake := &runner.Fake{Results: map[string]runner.Result{
		"flawfinder": {Stdout: []byte(flawfinderCSV)},
	}}

	e := engine.New(engine.Options{Analyzers: []engine.Analyzer{
		NewFlawFinder("flawfinder", time.Second, fake),
		NewCppCheck("cppcheck", time.Second, fake),
	}})
	report, diags := e.Scan(context.Background(), src)

	assert.Len(t, report.Findings, 1)
	require.Len(t, diags, 1)
	assert.Equal(t, engine.ToolCppCheck, diags[0].Tool)
	assert.ErrorIs(t, diags[0], runner.ErrToolUnavailable)
}

// reportWriter stands in for infer by writing report.json into the results
// directory it was given.
type reportWriter struct {
	report string
	cmd    runner.Command
}

func (w *reportWriter) Run(_ context.Context, c runner.Command, _ time.Duration) runner.Result {
	w.cmd = c
	for i, a := range c.Args {
		if a == "--results-dir" && i+1 < len(c.Args) && w.report != "" {
			_ = os.WriteFile(filepath.Join(c.Args[i+1], "report.json"), []byte(w.report), 0o644)
		}
	}
	return runner.Result{Command: c}
}

const inferJSON = `[{"bug_type":"NULLPTR_DEREFERENCE","qualifier":"pointer p last assigned on line 4 could be null","severity":"ERROR","line":5,"column":3,"procedure":"main","file":"sample.c","bug_type_hum":"Null Dereference"}]`

func TestInfer(t *testing.T) {
	src := writeSource(t, sampleSource)
	fake := &reportWriter{report: inferJSON}

	i := NewInfer("infer", "", time.Second, fake)
	e := engine.New(engine.Options{Analyzers: []engine.Analyzer{i}})
	report, diags := e.Scan(context.Background(), src)

	require.Empty(t, diags)
	require.Len(t, report.Findings, 1)
	f := report.Findings[0]
	assert.Equal(t, 5, f.Line)
	assert.Equal(t, engine.UnknownCWE, f.CWE)
	assert.Equal(t, "NULLPTR_DEREFERENCE", f.Get(engine.ColName))
	assert.Equal(t, "Null Dereference", f.Get(engine.ColCategory))
	assert.Equal(t, engine.ToolInfer, f.Tool)

	resultsDir := fake.cmd.Args[2]
	assert.Equal(t, resultsDir, fake.cmd.Dir)
	assert.Equal(t, []string{"--", "gcc", "-c", src}, fake.cmd.Args[3:])
	_, err := os.Stat(resultsDir)
	assert.True(t, os.IsNotExist(err), "results dir should be removed")
}

func TestInferMissingReport(t *testing.T) {
	src := writeSource(t, sampleSource)
	_, err := NewInfer("infer", "clang", time.Second, &reportWriter{}).Analyze(context.Background(), src)
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestInferRejectsDirectory(t *testing.T) {
	_, err := NewInfer("infer", "", time.Second, &reportWriter{}).Analyze(context.Background(), t.TempDir())
	assert.True(t, errors.Is(err, ErrInvalidTarget))
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	tools := FromConfig(cfg, &runner.Fake{})

	names := make([]string, len(tools))
	for i, a := range tools {
		names[i] = a.Name()
	}
	assert.Equal(t, []string{engine.ToolFlawFinder, engine.ToolCppCheck, engine.ToolRats}, names)

	infer := cfg.Tools[config.ToolInfer]
	infer.Disabled = false
	cfg.Tools[config.ToolInfer] = infer
	assert.Len(t, FromConfig(cfg, nil), 4)
}

func TestAvailable(t *testing.T) {
	cfg := config.Default()
	rats := cfg.Tools[config.ToolRats]
	rats.Binary = "definitely-not-a-real-binary-xyz"
	cfg.Tools[config.ToolRats] = rats

	statuses := Available(cfg)
	require.Len(t, statuses, len(config.ToolNames))
	for _, s := range statuses {
		if s.Name == config.ToolRats {
			assert.False(t, s.Installed())
		}
		if s.Name == config.ToolInfer {
			assert.False(t, s.Enabled)
		}
	}
}
