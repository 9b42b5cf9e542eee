// Package parsers turns raw analyzer output into engine.Table rows. Parsers
// never panic: malformed input yields an empty table and an error wrapping
// ErrParse, and empty input yields an empty table with no error.
package parsers

import (
	"bytes"
	"errors"

	"github.com/user/secmerge/pkg/engine"
)

// ErrParse marks output that is not well formed for its expected format.
var ErrParse = errors.New("malformed tool output")

// Parser converts one tool's raw output into a table.
type Parser interface {
	Parse(raw []byte) (engine.Table, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(raw []byte) (engine.Table, error)

func (f ParserFunc) Parse(raw []byte) (engine.Table, error) { return f(raw) }

// For returns the parser for a tool family.
func For(family engine.Family) Parser {
	switch family {
	case engine.FamilyAttribute:
		return ParserFunc(ParseLocations)
	case engine.FamilyNodeWalk:
		return ParserFunc(ParseNodes)
	case engine.FamilyDelimited:
		return ParserFunc(ParseDelimited)
	case engine.FamilyJSON:
		return ParserFunc(ParseJSONArray)
	}
	return nil
}

func blank(raw []byte) bool {
	return len(bytes.TrimSpace(raw)) == 0
}
