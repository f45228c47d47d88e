package check

import (
	"github.com/emenda-labs/upgradecheck/core/changespec"
	"github.com/emenda-labs/upgradecheck/core/registry"
)

const messagePrefix = "Reference to member will break: "

// NearestLocation prefers the access expression's own location and falls
// back to its base expression when the former is invalid.
func NearestLocation(m Match) Location {
	if m.Location.IsValid() {
		return m.Location
	}
	return m.BaseLocation
}

// Resolve looks m up by exact qualified name. A miss returns false and must
// not be reported: the leaf-name patterns over-match on purpose.
func Resolve(reg *registry.Registry, m Match) (Diagnostic, bool) {
	return resolveKey(reg, m, m.Name)
}

// resolveKey reports m against the registry entry named key. The message
// always names the declaration m refers to.
func resolveKey(reg *registry.Registry, m Match, key changespec.QualifiedName) (Diagnostic, bool) {
	change, ok := reg.Lookup(key)
	if !ok {
		return Diagnostic{}, false
	}

	d := Diagnostic{
		Location: NearestLocation(m),
		Range:    m.Range,
		Message:  messagePrefix + m.Name.String(),
		Change:   change,
	}
	if change.HasFix() {
		d.Fix = &Replacement{Range: m.Range, Text: change.FixText}
	}
	return d, true
}
