package parsers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/user/secmerge/pkg/engine"
)

// ParseDelimited reads comma separated text whose first row is the header.
// Empty cells are treated as unreported fields.
func ParseDelimited(raw []byte) (engine.Table, error) {
	if blank(raw) {
		return nil, nil
	}
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: csv header: %v", ErrParse, err)
	}

	var table engine.Table
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv row %d: %v", ErrParse, len(table)+1, err)
		}
		row := make(engine.Record, len(header))
		for i, name := range header {
			if i >= len(record) || record[i] == "" {
				continue
			}
			row[name] = record[i]
		}
		table = append(table, row)
	}
	return table, nil
}

// ParseJSONArray reads a JSON array of objects. Scalar values are kept in
// their textual form, null means unreported and nested values are stored as
// compact JSON.
func ParseJSONArray(raw []byte) (engine.Table, error) {
	if blank(raw) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var objects []map[string]interface{}
	if err := dec.Decode(&objects); err != nil {
		return nil, fmt.Errorf("%w: json array: %v", ErrParse, err)
	}

	table := make(engine.Table, 0, len(objects))
	for _, obj := range objects {
		row := make(engine.Record, len(obj))
		for k, v := range obj {
			s, ok, err := jsonScalar(v)
			if err != nil {
				return nil, fmt.Errorf("%w: json field %q: %v", ErrParse, k, err)
			}
			if ok {
				row[k] = s
			}
		}
		table = append(table, row)
	}
	return table, nil
}

func jsonScalar(v interface{}) (string, bool, error) {
	switch val := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return val, true, nil
	case json.Number:
		return val.String(), true, nil
	case bool:
		return strconv.FormatBool(val), true, nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", false, err
		}
		return string(b), true, nil
	}
}
