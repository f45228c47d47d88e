package registry

import (
	"github.com/emenda-labs/upgradecheck/core/changespec"
)

// Registry is an immutable table of change records keyed by qualified
// name. It is built once before any file is scanned and is safe for
// concurrent reads from any number of analysis units.
type Registry struct {
	byKey      map[string]changespec.Change
	order      []changespec.Change
	duplicates int
}

// New builds a registry from changes. When two changes share a qualified
// name the first one wins and later ones are dropped.
func New(changes ...changespec.Change) *Registry {
	r := &Registry{
		byKey: make(map[string]changespec.Change, len(changes)),
		order: make([]changespec.Change, 0, len(changes)),
	}
	for _, c := range changes {
		r.insert(c)
	}
	return r
}

func (r *Registry) insert(c changespec.Change) bool {
	key := c.Name.Key()
	if _, exists := r.byKey[key]; exists {
		r.duplicates++
		return false
	}
	r.byKey[key] = c
	r.order = append(r.order, c)
	return true
}

// Lookup returns the change recorded for name, matching on segments only.
func (r *Registry) Lookup(name changespec.QualifiedName) (changespec.Change, bool) {
	c, ok := r.byKey[name.Key()]
	return c, ok
}

// Len returns the number of distinct qualified names.
func (r *Registry) Len() int {
	return len(r.order)
}

// Duplicates returns how many rows were dropped by first-wins insertion.
func (r *Registry) Duplicates() int {
	return r.duplicates
}

// Changes returns the records in insertion order.
func (r *Registry) Changes() []changespec.Change {
	return append([]changespec.Change(nil), r.order...)
}
