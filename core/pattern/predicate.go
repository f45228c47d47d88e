// Package pattern compiles qualified names into predicates over
// declarations. A host evaluates the predicates against the declaration
// referenced by each member-access expression it visits.
package pattern

// Decl is the host's view of a declaration: its simple name and the
// declaration context that immediately encloses it.
type Decl interface {
	Name() string
	// Parent returns the enclosing declaration context, or false at the
	// outermost scope.
	Parent() (Decl, bool)
}

// Predicate reports whether a declaration satisfies a condition.
type Predicate func(d Decl) bool

// Anything accepts every declaration, including a missing context.
func Anything() Predicate {
	return func(Decl) bool { return true }
}

// HasName accepts declarations whose simple name equals name.
func HasName(name string) Predicate {
	return func(d Decl) bool {
		return d != nil && d.Name() == name
	}
}

// HasDeclContext accepts declarations whose immediate parent satisfies
// inner. A declaration without a parent only satisfies Anything-like
// predicates, which are given a nil Decl.
func HasDeclContext(inner Predicate) Predicate {
	return func(d Decl) bool {
		if d == nil {
			return false
		}
		parent, ok := d.Parent()
		if !ok {
			return inner(nil)
		}
		return inner(parent)
	}
}

// AllOf accepts declarations that satisfy every predicate.
func AllOf(preds ...Predicate) Predicate {
	return func(d Decl) bool {
		for _, p := range preds {
			if !p(d) {
				return false
			}
		}
		return true
	}
}

// NamedDecl is shorthand for AllOf(HasName(name), HasDeclContext(context)).
func NamedDecl(name string, context Predicate) Predicate {
	return AllOf(HasName(name), HasDeclContext(context))
}

// QualifiedName walks d's parent chain and returns its segments root-first.
func QualifiedName(d Decl) []string {
	var segments []string
	for d != nil {
		segments = append(segments, d.Name())
		parent, ok := d.Parent()
		if !ok {
			break
		}
		d = parent
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return segments
}
