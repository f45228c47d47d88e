package astdiff

import (
	"go/ast"
	"go/types"
	"strings"
)

// typeString renders a type expression canonically.
func typeString(expr ast.Expr) string {
	if expr == nil {
		return ""
	}
	return types.ExprString(expr)
}

// funcSignature renders "(T1, T2) R" or "(T1) (R1, R2)" with parameter
// names dropped, so renaming a parameter is not a signature change.
func funcSignature(ft *ast.FuncType) string {
	if ft == nil {
		return "()"
	}
	params := "(" + strings.Join(fieldTypes(ft.Params), ", ") + ")"
	results := fieldTypes(ft.Results)
	switch len(results) {
	case 0:
		return params
	case 1:
		return params + " " + results[0]
	default:
		return params + " (" + strings.Join(results, ", ") + ")"
	}
}

// fieldTypes expands a field list to one type per declared name.
func fieldTypes(fl *ast.FieldList) []string {
	if fl == nil {
		return nil
	}
	var out []string
	for _, f := range fl.List {
		typ := typeString(f.Type)
		n := max(1, len(f.Names))
		for range n {
			out = append(out, typ)
		}
	}
	return out
}
