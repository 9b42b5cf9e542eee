package engine

// Family identifies the output format a tool speaks and therefore which
// column clean-up its table needs.
type Family string

const (
	// FamilyAttribute is an XML report with one element per finding and nested
	// location elements (CppCheck).
	FamilyAttribute Family = "attribute"
	// FamilyNodeWalk is an XML report of vulnerability nodes listing file and
	// line children (Rats).
	FamilyNodeWalk Family = "nodewalk"
	// FamilyDelimited is comma separated text with a header row (FlawFinder).
	FamilyDelimited Family = "delimited"
	// FamilyJSON is a JSON array of objects (infer).
	FamilyJSON Family = "json"
)

var renames = map[Family]map[string]string{
	FamilyAttribute: {"info": ColNote, "id": ColName},
	FamilyNodeWalk:  {"message": ColMsg, "type": ColCategory},
	FamilyDelimited: {"cwes": ColCWE, "warning": ColMsg},
	FamilyJSON:      {"bug_type": ColName, "qualifier": ColMsg, "bug_type_hum": ColCategory},
}

// duplicate columns that repeat canonical information under another name
var duplicates = map[Family][]string{
	FamilyAttribute: {"verbose"},
}

// Normalize performs the tool-local clean-up of a raw table: it renames
// native columns to canonical names, folds or drops redundant columns and
// enforces the CWE identifier format. Column completion happens in Merge.
func Normalize(t Table, family Family) Table {
	if len(t) == 0 {
		return nil
	}
	if family == FamilyDelimited {
		t = t.LowerColumns()
	}
	t = t.Rename(renames[family]).Drop(duplicates[family]...)

	if family == FamilyDelimited {
		t = foldSuggestion(t)
	}

	return t.Apply(func(r Record) {
		if v, ok := r[ColCWE]; ok {
			r[ColCWE] = FormatCWE(v)
		}
	})
}

// foldSuggestion merges FlawFinder's suggestion column into note, since both
// carry remediation text, and drops suggestion.
func foldSuggestion(t Table) Table {
	return t.Apply(func(r Record) {
		suggestion, hasSuggestion := r["suggestion"]
		note, hasNote := r[ColNote]
		switch {
		case hasSuggestion && hasNote:
			r[ColNote] = suggestion + "  " + note
		case hasSuggestion:
			r[ColNote] = suggestion
		}
		delete(r, "suggestion")
	})
}
