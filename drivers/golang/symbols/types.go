package symbols

// SymbolKind identifies what kind of exported member this is.
type SymbolKind string

const (
	SymbolMethod SymbolKind = "method"
	SymbolField  SymbolKind = "field"
)

// Symbol is an exported member of an exported named type.
type Symbol struct {
	Name      string     `json:"name"`
	Kind      SymbolKind `json:"kind"`
	Package   string     `json:"package"`
	Owner     string     `json:"owner"`
	Signature string     `json:"signature,omitempty"`
}

// Key identifies the symbol within a module version.
func (s Symbol) Key() string {
	return s.Package + "|" + s.Owner + "|" + string(s.Kind) + "|" + s.Name
}

// Symbols is the full set of exported members of a module version.
type Symbols struct {
	Module  string   `json:"module"`
	Version string   `json:"version"`
	Entries []Symbol `json:"entries"`
}
