package astdiff

import (
	"path"
	"sort"
	"strings"

	"github.com/emenda-labs/upgradecheck/core/changespec"
	"github.com/emenda-labs/upgradecheck/drivers/golang/symbols"
)

// ownerKey groups members by their declaring type.
type ownerKey struct {
	pkg   string
	owner string
}

// diffState holds the working state across the diff passes.
type diffState struct {
	oldByKey   map[string]symbols.Symbol
	newByKey   map[string]symbols.Symbol
	matchedNew map[string]bool
	changes    []changespec.Change
}

// DiffExports compares the members of two module versions and returns one
// change record per member that disappears or changes incompatibly:
//
//   - a method removed or with a new signature -> Method
//   - a field replaced by a single same-typed new field on its type -> Renamed_Field
//   - a field that now lives on another type of the package -> Moved_Field
//   - any other missing field -> Removed_Field
//
// Changes are sorted by qualified name. Fix text is never generated: a
// literal replacement for the whole access expression cannot be derived
// from the declarations alone.
func DiffExports(old, new symbols.Symbols) []changespec.Change {
	s := &diffState{
		oldByKey:   index(old),
		newByKey:   index(new),
		matchedNew: make(map[string]bool),
	}
	s.methods()
	s.fields()

	sort.Slice(s.changes, func(i, j int) bool {
		return s.changes[i].Name.Key() < s.changes[j].Name.Key()
	})
	return s.changes
}

func index(syms symbols.Symbols) map[string]symbols.Symbol {
	m := make(map[string]symbols.Symbol, len(syms.Entries))
	for _, sym := range syms.Entries {
		m[sym.Key()] = sym
	}
	return m
}

func (s *diffState) emit(token string, sym symbols.Symbol) {
	kind, _ := changespec.ParseChangeKind(token)
	s.changes = append(s.changes, changespec.Change{
		Kind:  kind,
		Token: token,
		Name:  qualifiedName(sym),
	})
}

func (s *diffState) methods() {
	for key, oldSym := range s.oldByKey {
		if oldSym.Kind != symbols.SymbolMethod {
			continue
		}
		newSym, ok := s.newByKey[key]
		if ok && newSym.Signature == oldSym.Signature {
			continue
		}
		s.emit(changespec.TokenMethod, oldSym)
	}
}

func (s *diffState) fields() {
	var missing []symbols.Symbol
	for key, oldSym := range s.oldByKey {
		if oldSym.Kind != symbols.SymbolField {
			continue
		}
		if _, ok := s.newByKey[key]; ok {
			s.matchedNew[key] = true
			continue
		}
		missing = append(missing, oldSym)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].Key() < missing[j].Key() })

	added := s.addedFields()
	for _, oldSym := range missing {
		switch {
		case s.renamed(oldSym, missing, added):
			s.emit(changespec.TokenRenamedField, oldSym)
		case s.moved(oldSym, added):
			s.emit(changespec.TokenMovedField, oldSym)
		default:
			s.emit(changespec.TokenRemovedField, oldSym)
		}
	}
}

// addedFields groups new fields that have no counterpart in the old version.
func (s *diffState) addedFields() map[ownerKey][]symbols.Symbol {
	added := make(map[ownerKey][]symbols.Symbol)
	for key, newSym := range s.newByKey {
		if newSym.Kind != symbols.SymbolField || s.matchedNew[key] {
			continue
		}
		if _, existed := s.oldByKey[key]; existed {
			continue
		}
		k := ownerKey{pkg: newSym.Package, owner: newSym.Owner}
		added[k] = append(added[k], newSym)
	}
	return added
}

// renamed reports whether exactly one added field on the same type has
// oldSym's type, and oldSym is the only missing field of that type there.
func (s *diffState) renamed(oldSym symbols.Symbol, missing []symbols.Symbol, added map[ownerKey][]symbols.Symbol) bool {
	k := ownerKey{pkg: oldSym.Package, owner: oldSym.Owner}

	candidates := 0
	for _, newSym := range added[k] {
		if newSym.Signature == oldSym.Signature {
			candidates++
		}
	}
	if candidates != 1 {
		return false
	}

	rivals := 0
	for _, other := range missing {
		if other.Package == oldSym.Package && other.Owner == oldSym.Owner && other.Signature == oldSym.Signature {
			rivals++
		}
	}
	return rivals == 1
}

// moved reports whether another type of the same package gained a field
// with oldSym's name and type.
func (s *diffState) moved(oldSym symbols.Symbol, added map[ownerKey][]symbols.Symbol) bool {
	for k, fields := range added {
		if k.pkg != oldSym.Package || k.owner == oldSym.Owner {
			continue
		}
		for _, newSym := range fields {
			if newSym.Name == oldSym.Name && newSym.Signature == oldSym.Signature {
				return true
			}
		}
	}
	return false
}

// qualifiedName renders pkg.Owner.Member, switching to "::" when the last
// import path element contains a dot and "." would be ambiguous.
func qualifiedName(sym symbols.Symbol) changespec.QualifiedName {
	sep := changespec.GoScopeSeparator
	if strings.Contains(path.Base(sym.Package), ".") {
		sep = changespec.ScopeSeparator
	}
	return changespec.NewQualifiedName(sep, sym.Package, sym.Owner, sym.Name)
}
