package cpp

import (
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/emenda-labs/upgradecheck/core/pattern"
)

const (
	captureAccess = "access"
	captureMember = "member"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// accessQuery renders one tree-sitter pattern per leaf name. Each pattern
// selects member accesses whose member identifier equals the leaf.
func accessQuery(leaves []string) string {
	var b strings.Builder
	for _, leaf := range leaves {
		fmt.Fprintf(&b, "(field_expression field: (field_identifier) @%s (#eq? @%s %q)) @%s\n",
			captureMember, captureMember, leaf, captureAccess)
	}
	return b.String()
}

// compileQuery builds the member access query for every leaf in set that
// can name a C++ member. It returns nil when no leaf qualifies.
func compileQuery(set *pattern.Set) (*sitter.Query, []string, error) {
	var leaves, skipped []string
	for _, leaf := range set.Leaves() {
		if identifierRe.MatchString(leaf) {
			leaves = append(leaves, leaf)
		} else {
			skipped = append(skipped, leaf)
		}
	}
	if len(leaves) == 0 {
		return nil, skipped, nil
	}
	q, err := sitter.NewQuery([]byte(accessQuery(leaves)), cpp.GetLanguage())
	if err != nil {
		return nil, skipped, fmt.Errorf("compiling member access query: %w", err)
	}
	return q, skipped, nil
}

// accesses runs q over root and returns the matched field_expression nodes
// in document order.
func accesses(q *sitter.Query, root *sitter.Node, src []byte) []*sitter.Node {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, root)

	var out []*sitter.Node
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, src)
		for _, capture := range match.Captures {
			if q.CaptureNameForId(capture.Index) == captureAccess {
				out = append(out, capture.Node)
			}
		}
	}
	return out
}
