package pattern

import (
	"fmt"
	"sort"

	"github.com/emenda-labs/upgradecheck/core/changespec"
	"github.com/emenda-labs/upgradecheck/core/registry"
)

// Pattern is the search predicate compiled for one registry entry.
type Pattern struct {
	Name  changespec.QualifiedName
	Leaf  string
	Match Predicate
}

// Strategy turns a qualified name into a Pattern.
type Strategy interface {
	Name() string
	Compile(name changespec.QualifiedName) Pattern
}

const (
	StrategyLeaf       = "leaf"
	StrategyStructural = "structural"
)

var (
	// Leaf matches on the final segment only. It over-matches by design;
	// exact lookup at match time restores precision.
	Leaf Strategy = leafStrategy{}

	// Structural requires the full chain of immediate parents to match
	// s_n, s_n-1, ... s_1 and leaves everything above s_1 unconstrained.
	Structural Strategy = structuralStrategy{}
)

// ParseStrategy resolves a strategy by name. The empty string selects Leaf.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", StrategyLeaf:
		return Leaf, nil
	case StrategyStructural:
		return Structural, nil
	default:
		return nil, fmt.Errorf("unknown pattern strategy %q (want %s or %s)", name, StrategyLeaf, StrategyStructural)
	}
}

type leafStrategy struct{}

func (leafStrategy) Name() string { return StrategyLeaf }

func (leafStrategy) Compile(name changespec.QualifiedName) Pattern {
	return Pattern{Name: name, Leaf: name.Leaf(), Match: HasName(name.Leaf())}
}

type structuralStrategy struct{}

func (structuralStrategy) Name() string { return StrategyStructural }

// Compile builds the matcher from the outermost segment inward:
//
//	NamedDecl("m", NamedDecl("C", NamedDecl("N", Anything())))
func (structuralStrategy) Compile(name changespec.QualifiedName) Pattern {
	matcher := Anything()
	for _, segment := range name.Segments() {
		matcher = NamedDecl(segment, matcher)
	}
	return Pattern{Name: name, Leaf: name.Leaf(), Match: matcher}
}

// Compile produces one pattern per registry entry, in registry order.
func Compile(reg *registry.Registry, strategy Strategy) []Pattern {
	changes := reg.Changes()
	patterns := make([]Pattern, 0, len(changes))
	for _, c := range changes {
		patterns = append(patterns, strategy.Compile(c.Name))
	}
	return patterns
}

// Set indexes compiled patterns by leaf name so a host can discard
// member accesses whose simple name no pattern could accept.
type Set struct {
	patterns []Pattern
	byLeaf   map[string][]Pattern
}

// NewSet indexes patterns by leaf name.
func NewSet(patterns []Pattern) *Set {
	s := &Set{byLeaf: make(map[string][]Pattern, len(patterns))}
	for _, p := range patterns {
		s.AddPattern(p)
	}
	return s
}

// AddPattern registers p. A Set must not be modified once traversal starts.
func (s *Set) AddPattern(p Pattern) {
	if s.byLeaf == nil {
		s.byLeaf = make(map[string][]Pattern)
	}
	s.patterns = append(s.patterns, p)
	s.byLeaf[p.Leaf] = append(s.byLeaf[p.Leaf], p)
}

// Len returns the number of patterns.
func (s *Set) Len() int {
	return len(s.patterns)
}

// Patterns returns the compiled patterns.
func (s *Set) Patterns() []Pattern {
	return append([]Pattern(nil), s.patterns...)
}

// Leaves returns the distinct leaf names, sorted.
func (s *Set) Leaves() []string {
	leaves := make([]string, 0, len(s.byLeaf))
	for leaf := range s.byLeaf {
		leaves = append(leaves, leaf)
	}
	sort.Strings(leaves)
	return leaves
}

// HasLeaf reports whether any pattern targets the simple name leaf.
func (s *Set) HasLeaf(leaf string) bool {
	_, ok := s.byLeaf[leaf]
	return ok
}

// Match reports whether any pattern accepts d.
func (s *Set) Match(d Decl) bool {
	_, ok := s.Accepting(d)
	return ok
}

// Accepting returns the first pattern, in registration order, that accepts
// d. Its Name is the registry key the match was found for, which under
// Structural may be a suffix of d's qualified name.
func (s *Set) Accepting(d Decl) (Pattern, bool) {
	if d == nil {
		return Pattern{}, false
	}
	for _, p := range s.byLeaf[d.Name()] {
		if p.Match(d) {
			return p, true
		}
	}
	return Pattern{}, false
}
