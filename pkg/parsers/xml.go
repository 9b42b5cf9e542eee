package parsers

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/user/secmerge/pkg/engine"
)

// XML structures for the attribute/locations format (cppcheck --xml-version=2)
type locationsReport struct {
	Errors []locationsError `xml:"errors>error"`
}

type locationsError struct {
	Attrs     []xml.Attr          `xml:",any,attr"`
	Locations []locationsLocation `xml:"location"`
}

type locationsLocation struct {
	Line   *string `xml:"line,attr"`
	Column *string `xml:"column,attr"`
	Info   *string `xml:"info,attr"`
}

// ParseLocations reads an <errors><error ...><location .../></error></errors>
// report. Each error becomes one row per nested location, sharing the error's
// attributes and adding that location's line, column and info. An error with
// no location still yields one row, without a line.
func ParseLocations(raw []byte) (engine.Table, error) {
	if blank(raw) {
		return nil, nil
	}
	var report locationsReport
	if err := decodeXML(raw, &report); err != nil {
		return nil, fmt.Errorf("%w: locations xml: %v", ErrParse, err)
	}

	var table engine.Table
	for _, e := range report.Errors {
		base := make(engine.Record, len(e.Attrs))
		for _, a := range e.Attrs {
			base[a.Name.Local] = a.Value
		}
		delete(base, "file0")

		if len(e.Locations) == 0 {
			table = append(table, base)
			continue
		}
		for _, loc := range e.Locations {
			row := base.Clone()
			setOpt(row, "line", loc.Line)
			setOpt(row, "column", loc.Column)
			setOpt(row, "info", loc.Info)
			table = append(table, row)
		}
	}
	return table, nil
}

// XML structures for the node-walk format (rats --xml)
type nodesReport struct {
	Vulnerabilities []nodeVulnerability `xml:"vulnerability"`
}

type nodeVulnerability struct {
	Severity *string    `xml:"severity"`
	Type     *string    `xml:"type"`
	Message  *string    `xml:"message"`
	Files    []nodeFile `xml:"file"`
}

type nodeFile struct {
	Name  *string  `xml:"name"`
	Lines []string `xml:"line"`
}

// ParseNodes reads a flat list of <vulnerability> nodes and emits one row per
// (vulnerability, file, line) combination.
func ParseNodes(raw []byte) (engine.Table, error) {
	if blank(raw) {
		return nil, nil
	}
	var report nodesReport
	if err := decodeXML(raw, &report); err != nil {
		return nil, fmt.Errorf("%w: node xml: %v", ErrParse, err)
	}

	var table engine.Table
	for _, v := range report.Vulnerabilities {
		base := engine.Record{}
		setText(base, "severity", v.Severity)
		setText(base, "type", v.Type)
		setText(base, "message", v.Message)

		for _, f := range v.Files {
			for _, line := range f.Lines {
				row := base.Clone()
				setText(row, "file", f.Name)
				row["line"] = strings.TrimSpace(line)
				table = append(table, row)
			}
		}
	}
	return table, nil
}

func decodeXML(raw []byte, v interface{}) error {
	dec := xml.NewDecoder(bytes.NewReader(trimPreamble(raw)))
	dec.CharsetReader = charsetReader
	return dec.Decode(v)
}

// charsetReader lets reports declare encodings such as ISO-8859-1.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder().Reader(input), nil
}

// trimPreamble drops progress chatter some tools print before the document.
func trimPreamble(raw []byte) []byte {
	if i := bytes.IndexByte(raw, '<'); i > 0 {
		return raw[i:]
	}
	return raw
}

func setOpt(r engine.Record, key string, v *string) {
	if v != nil {
		r[key] = *v
	}
}

func setText(r engine.Record, key string, v *string) {
	if v != nil {
		r[key] = strings.TrimSpace(*v)
	}
}
