package diag

import (
	"sort"

	"go.uber.org/multierr"
)

// List is an ordered collection of diagnostics.
type List []Diagnostic

// HasErrors reports whether any diagnostic blocks execution.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError || d.Severity == SeverityInternal {
			return true
		}
	}
	return false
}

// Sorted returns a copy ordered by file, then position.
func (l List) Sorted() List {
	out := append(List(nil), l...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Span, out[j].Span
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Start < b.Start
	})
	return out
}

// Err folds the list into a single error, or nil when it is empty.
func (l List) Err() error {
	var err error
	for _, d := range l {
		err = multierr.Append(err, d)
	}
	return err
}
