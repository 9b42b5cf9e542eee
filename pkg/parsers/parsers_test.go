package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/secmerge/pkg/engine"
)

const cppcheckReport = `<?xml version="1.0" encoding="UTF-8"?>
<results version="2">
    <cppcheck version="2.13.0"/>
    <errors>
        <error id="nullPointer" severity="error" msg="Null pointer dereference: p" verbose="Null pointer dereference: p" cwe="476" file0="a.c">
            <location file="a.c" line="4" column="2" info="Null pointer dereference"/>
            <location file="a.c" line="3" column="10" info="Assignment &apos;p=NULL&apos;"/>
            <location file="a.c" line="9"/>
        </error>
        <error id="missingIncludeSystem" severity="information" msg="Include file not found"/>
    </errors>
</results>`

const ratsReport = `<?xml version="1.0"?><rats_output>
<stats><dbcount lang="c">334</dbcount></stats>
<vulnerability>
  <severity>High</severity>
  <type>fixed size global buffer</type>
  <message>
    Extra care should be taken to ensure that character arrays that are
    allocated on the stack are used safely.
  </message>
  <file>
    <name>a.c</name>
    <line>4</line>
    <line>9</line>
  </file>
  <file>
    <name>b.c</name>
    <line>12</line>
  </file>
</vulnerability>
<vulnerability>
  <severity>Medium</severity>
  <message>Check buffer boundaries</message>
  <file><name>a.c</name><line>20</line></file>
</vulnerability>
<timing><total_lines>30</total_lines></timing>
</rats_output>`

const flawfinderReport = `File,Line,Column,DefaultLevel,Level,Category,Name,Warning,Suggestion,Note,CWEs,Context,Fingerprint,ToolVersion,RuleId,HelpUri
a.c,5,3,4,4,buffer,strcpy,"Does not check for buffer overflows when copying to destination [MS-banned] (CWE-120)","Consider using snprintf, strcpy_s, or strlcpy (warning: strncpy easily misused)",,CWE-120,"  strcpy(buf, argv[1]);",a1b2,2.0.19,FF1001,https://cwe.mitre.org/data/definitions/120.html
a.c,8,10,2,2,buffer,char,"Statically-sized arrays can be improperly restricted","Perform bounds checking","Risk is low",CWE-119!/CWE-120,"  char buf[10];",c3d4,2.0.19,FF1013,
`

const inferReport = `[
  {"bug_type": "NULL_DEREFERENCE", "qualifier": "pointer p last assigned on line 3 could be null", "severity": "ERROR",
   "line": 4, "column": 3, "file": "a.c", "procedure": "main", "censored_reason": null, "is_new": true,
   "bug_trace": [{"level": 0, "filename": "a.c", "line_number": 3}]}
]`

func TestParseLocationsExplodesLocations(t *testing.T) {
	table, err := ParseLocations([]byte(cppcheckReport))
	require.NoError(t, err)
	require.Len(t, table, 4)

	first := table[0]
	assert.Equal(t, "nullPointer", first["id"])
	assert.Equal(t, "476", first["cwe"])
	assert.Equal(t, "4", first["line"])
	assert.Equal(t, "2", first["column"])
	assert.Equal(t, "Null pointer dereference", first["info"])
	_, hasFile0 := first["file0"]
	assert.False(t, hasFile0)

	assert.Equal(t, "Assignment 'p=NULL'", table[1]["info"])
	assert.Equal(t, "nullPointer", table[1]["id"])

	_, hasColumn := table[2]["column"]
	assert.False(t, hasColumn)
	assert.Equal(t, "9", table[2]["line"])

	_, hasLine := table[3]["line"]
	assert.False(t, hasLine)
	assert.Equal(t, "missingIncludeSystem", table[3]["id"])
}

func TestParseLocationsSkipsPreamble(t *testing.T) {
	table, err := ParseLocations([]byte("Checking a.c ...\n" + cppcheckReport))
	require.NoError(t, err)
	assert.Len(t, table, 4)
}

func TestParseLocationsLatin1Declaration(t *testing.T) {
	raw := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><results><errors><error id="x" msg="caf`), 0xe9)
	raw = append(raw, []byte(`"><location line="1"/></error></errors></results>`)...)

	table, err := ParseLocations(raw)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "café", table[0]["msg"])
}

func TestParseNodesCrossProduct(t *testing.T) {
	table, err := ParseNodes([]byte(ratsReport))
	require.NoError(t, err)
	require.Len(t, table, 4)

	assert.Equal(t, engine.Record{
		"severity": "High",
		"type":     "fixed size global buffer",
		"message":  "Extra care should be taken to ensure that character arrays that are\n    allocated on the stack are used safely.",
		"file":     "a.c",
		"line":     "4",
	}, table[0])
	assert.Equal(t, "9", table[1]["line"])
	assert.Equal(t, "b.c", table[2]["file"])
	assert.Equal(t, "12", table[2]["line"])

	_, hasType := table[3]["type"]
	assert.False(t, hasType)
	assert.Equal(t, "Medium", table[3]["severity"])
}

func TestParseDelimited(t *testing.T) {
	table, err := ParseDelimited([]byte(flawfinderReport))
	require.NoError(t, err)
	require.Len(t, table, 2)

	assert.Equal(t, "a.c", table[0]["File"])
	assert.Equal(t, "5", table[0]["Line"])
	assert.Equal(t, "CWE-120", table[0]["CWEs"])
	assert.Equal(t, "  strcpy(buf, argv[1]);", table[0]["Context"])
	_, hasNote := table[0]["Note"]
	assert.False(t, hasNote)
	_, hasHelp := table[1]["HelpUri"]
	assert.False(t, hasHelp)
	assert.Equal(t, "Risk is low", table[1]["Note"])
}

func TestParseDelimitedHeaderOnly(t *testing.T) {
	table, err := ParseDelimited([]byte("File,Line,CWEs\n"))
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestParseJSONArray(t *testing.T) {
	table, err := ParseJSONArray([]byte(inferReport))
	require.NoError(t, err)
	require.Len(t, table, 1)

	row := table[0]
	assert.Equal(t, "NULL_DEREFERENCE", row["bug_type"])
	assert.Equal(t, "4", row["line"])
	assert.Equal(t, "true", row["is_new"])
	assert.Equal(t, `[{"filename":"a.c","level":0,"line_number":3}]`, row["bug_trace"])
	_, hasNull := row["censored_reason"]
	assert.False(t, hasNull)
}

func TestEmptyInputYieldsEmptyTable(t *testing.T) {
	for _, fam := range []engine.Family{engine.FamilyAttribute, engine.FamilyNodeWalk, engine.FamilyDelimited, engine.FamilyJSON} {
		table, err := For(fam).Parse([]byte("  \n"))
		assert.NoError(t, err, fam)
		assert.Empty(t, table, fam)

		table, err = For(fam).Parse(nil)
		assert.NoError(t, err, fam)
		assert.Empty(t, table, fam)
	}
}

func TestMalformedInput(t *testing.T) {
	cases := map[engine.Family]string{
		engine.FamilyAttribute: `<results><errors><error id="x">`,
		engine.FamilyNodeWalk:  `not xml at all`,
		engine.FamilyDelimited: "a,b\n1,x\"y\n",
		engine.FamilyJSON:      `{"not": "an array"}`,
	}
	for fam, raw := range cases {
		table, err := For(fam).Parse([]byte(raw))
		assert.ErrorIs(t, err, ErrParse, fam)
		assert.Empty(t, table, fam)
	}
}

func TestForUnknownFamily(t *testing.T) {
	assert.Nil(t, For(engine.Family("yaml")))
}
