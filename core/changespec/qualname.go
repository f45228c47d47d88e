package changespec

import (
	"strings"
)

// Scope separators understood by ParseQualifiedName.
const (
	ScopeSeparator   = "::"
	GoScopeSeparator = "."
)

// QualifiedName is the root-to-leaf scope path of a declaration,
// e.g. ["clang", "CFGBlock", "getTerminator"].
//
// Two names are equal when their segments are equal, regardless of the
// separator used to render them.
type QualifiedName struct {
	segments []string
	sep      string
}

// NewQualifiedName builds a name from segments rendered with sep.
func NewQualifiedName(sep string, segments ...string) QualifiedName {
	if sep == "" {
		sep = ScopeSeparator
	}
	return QualifiedName{segments: append([]string(nil), segments...), sep: sep}
}

// ParseQualifiedName splits s into segments. Names containing "::" are split
// on it. Otherwise s is read as a Go name: the import path runs up to the
// first "." after its last "/", and the remainder is split on ".".
func ParseQualifiedName(s string) QualifiedName {
	s = strings.TrimSpace(s)
	if s == "" {
		return QualifiedName{sep: ScopeSeparator}
	}
	if strings.Contains(s, ScopeSeparator) {
		return QualifiedName{
			segments: strings.Split(strings.TrimPrefix(s, ScopeSeparator), ScopeSeparator),
			sep:      ScopeSeparator,
		}
	}

	prefix, rest := "", s
	if i := strings.LastIndex(s, "/"); i >= 0 {
		prefix, rest = s[:i+1], s[i+1:]
	}
	parts := strings.Split(rest, GoScopeSeparator)
	parts[0] = prefix + parts[0]
	return QualifiedName{segments: parts, sep: GoScopeSeparator}
}

// Segments returns a copy of the scope path.
func (q QualifiedName) Segments() []string {
	return append([]string(nil), q.segments...)
}

// Len returns the number of segments.
func (q QualifiedName) Len() int {
	return len(q.segments)
}

// IsZero reports whether the name has no segments.
func (q QualifiedName) IsZero() bool {
	return len(q.segments) == 0
}

// Leaf returns the final (unqualified) segment.
func (q QualifiedName) Leaf() string {
	if len(q.segments) == 0 {
		return ""
	}
	return q.segments[len(q.segments)-1]
}

// Separator returns the separator used by String.
func (q QualifiedName) Separator() string {
	if q.sep == "" {
		return ScopeSeparator
	}
	return q.sep
}

// Key returns the canonical registry key: segments joined by "::".
func (q QualifiedName) Key() string {
	return strings.Join(q.segments, ScopeSeparator)
}

// String renders the name with its own separator.
func (q QualifiedName) String() string {
	return strings.Join(q.segments, q.Separator())
}

// Equal reports whether both names have the same segments.
func (q QualifiedName) Equal(other QualifiedName) bool {
	if len(q.segments) != len(other.segments) {
		return false
	}
	for i := range q.segments {
		if q.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

func (q QualifiedName) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

func (q *QualifiedName) UnmarshalText(text []byte) error {
	*q = ParseQualifiedName(string(text))
	return nil
}
