package changespec

import "fmt"

// ChangeKind classifies the declaration a change applies to.
// It is informational: matching and fix text never depend on it.
type ChangeKind string

const (
	ChangeKindField  ChangeKind = "field"
	ChangeKindMethod ChangeKind = "method"
)

// Raw kind tokens accepted in the first column of a change file.
const (
	TokenRemovedField = "Removed_Field"
	TokenRenamedField = "Renamed_Field"
	TokenMovedField   = "Moved_Field"
	TokenMethod       = "Method"
)

var kindTokens = map[string]ChangeKind{
	TokenRemovedField: ChangeKindField,
	TokenRenamedField: ChangeKindField,
	TokenMovedField:   ChangeKindField,
	TokenMethod:       ChangeKindMethod,
}

// ParseChangeKind decodes a raw kind token. The three field tokens are
// synonyms; any token outside the fixed set is an error.
func ParseChangeKind(token string) (ChangeKind, error) {
	kind, ok := kindTokens[token]
	if !ok {
		return "", fmt.Errorf("unknown change kind %q", token)
	}
	return kind, nil
}

// Change is a single change record: a declaration scheduled to change in
// the next library version and, optionally, the literal source text that
// replaces an access to it.
type Change struct {
	Kind    ChangeKind    `json:"kind"`
	Token   string        `json:"token"`
	Name    QualifiedName `json:"name"`
	FixText string        `json:"fix_text,omitempty"`
}

// HasFix reports whether the change carries an automated rewrite.
// An empty FixText marks a breaking change with no rewrite.
func (c Change) HasFix() bool {
	return c.FixText != ""
}

// ChangeSpec is the full set of changes between two module versions.
type ChangeSpec struct {
	Module     string   `json:"module"`
	OldVersion string   `json:"old_version"`
	NewVersion string   `json:"new_version"`
	Changes    []Change `json:"changes"`
}
