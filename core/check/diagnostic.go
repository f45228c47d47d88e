package check

import (
	"fmt"
	"sort"

	"github.com/emenda-labs/upgradecheck/core/changespec"
)

// Location is a position in a source file. Line and Column are 1-based;
// a zero Line marks a location the host could not attribute.
type Location struct {
	Filename string `json:"file"`
	Offset   int    `json:"offset"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// IsValid reports whether the location points into a file.
func (l Location) IsValid() bool {
	return l.Line > 0
}

func (l Location) String() string {
	if !l.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%s:%d:%d", l.Filename, l.Line, l.Column)
}

// Range is a half-open byte range [Start.Offset, End.Offset) in one file.
type Range struct {
	Start Location `json:"start"`
	End   Location `json:"end"`
}

// Match is what a host delivers for each member access that passed a
// pattern: where it is, where its base expression is, and the exact
// qualified name of the declaration it refers to. Key is the name of the
// pattern that accepted the access, when the host knows it.
type Match struct {
	Location     Location
	BaseLocation Location
	Name         changespec.QualifiedName
	Key          changespec.QualifiedName
	Range        Range
}

// Replacement substitutes Text for the source covered by Range.
type Replacement struct {
	Range Range  `json:"range"`
	Text  string `json:"text"`
}

// Diagnostic is a finding emitted for a match that hit the registry.
type Diagnostic struct {
	Check    string            `json:"check"`
	Location Location          `json:"location"`
	Range    Range             `json:"range"`
	Message  string            `json:"message"`
	Change   changespec.Change `json:"change"`
	Fix      *Replacement      `json:"fix,omitempty"`
}

// MergeDiagnostics flattens per-unit results, keeping the first diagnostic
// for each source range, and orders them by file and offset. Units that
// share files (test variants of a package, headers scanned twice) report
// the same access more than once.
func MergeDiagnostics(results [][]Diagnostic) []Diagnostic {
	type key struct {
		file       string
		start, end int
	}
	seen := make(map[key]bool)
	var out []Diagnostic
	for _, ds := range results {
		for _, d := range ds {
			k := key{d.Range.Start.Filename, d.Range.Start.Offset, d.Range.End.Offset}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Range.Start, out[j].Range.Start
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Offset < b.Offset
	})
	return out
}
