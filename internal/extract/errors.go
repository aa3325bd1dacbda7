package extract

import "fmt"

// StructuralError reports a page whose layout does not match the expected
// shape: a required node is missing or an ordinal list is too short.
type StructuralError struct {
	Field    string
	Index    int
	Selector string
}

func (e *StructuralError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("extract %s: no node at index %d for %q", e.Field, e.Index, e.Selector)
	}
	return fmt.Sprintf("extract %s: no match for %q", e.Field, e.Selector)
}

// FieldDefect records a numeric field whose text did not parse. The field is
// left nil on the record; the record itself is still emitted.
type FieldDefect struct {
	Field string
	Raw   string
}
