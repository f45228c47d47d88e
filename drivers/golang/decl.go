package golang

import (
	"go/ast"
	"go/types"

	"github.com/emenda-labs/upgradecheck/core/pattern"
)

// decl adapts a Go declaration to pattern.Decl. Members sit under their
// declaring named type, which sits under its package; the package is
// named by its import path.
type decl struct {
	name   string
	parent *decl
}

var _ pattern.Decl = (*decl)(nil)

func (d *decl) Name() string { return d.name }

func (d *decl) Parent() (pattern.Decl, bool) {
	if d.parent == nil {
		return nil, false
	}
	return d.parent, true
}

func newDecl(segments ...string) *decl {
	var d *decl
	for _, s := range segments {
		d = &decl{name: s, parent: d}
	}
	return d
}

// resolveDecl returns the declaration a selector expression refers to, or
// nil when it is not a field, method or package-qualified object declared
// in a named package.
//
// Promoted members resolve to the type that declares them and members of
// generic types resolve to the uninstantiated type.
func resolveDecl(info *types.Info, sel *ast.SelectorExpr) *decl {
	if s, ok := info.Selections[sel]; ok {
		var owner *types.TypeName
		switch s.Kind() {
		case types.FieldVal:
			owner = fieldOwner(s)
		case types.MethodVal, types.MethodExpr:
			fn, ok := s.Obj().(*types.Func)
			if !ok {
				return nil
			}
			owner = methodOwner(fn, s)
		}
		if owner == nil || owner.Pkg() == nil {
			return nil
		}
		return newDecl(owner.Pkg().Path(), owner.Name(), s.Obj().Name())
	}

	ident, ok := ast.Unparen(sel.X).(*ast.Ident)
	if !ok {
		return nil
	}
	if _, isPkg := info.Uses[ident].(*types.PkgName); !isPkg {
		return nil
	}
	obj := info.Uses[sel.Sel]
	if obj == nil || obj.Pkg() == nil {
		return nil
	}
	return newDecl(obj.Pkg().Path(), obj.Name())
}

// fieldOwner follows the selection's embedding path and returns the named
// type whose struct declares the selected field.
func fieldOwner(s *types.Selection) *types.TypeName {
	t := s.Recv()
	index := s.Index()
	for i, idx := range index {
		t = deref(t)

		var owner *types.TypeName
		if named, ok := t.(*types.Named); ok {
			owner = named.Origin().Obj()
		}
		st, ok := t.Underlying().(*types.Struct)
		if !ok || idx >= st.NumFields() {
			return nil
		}
		if i == len(index)-1 {
			return owner
		}
		t = st.Field(idx).Type()
	}
	return nil
}

// methodOwner returns the named type a method is declared on. Methods of
// unnamed interfaces fall back to the receiver's named type.
func methodOwner(fn *types.Func, s *types.Selection) *types.TypeName {
	if sig, ok := fn.Type().(*types.Signature); ok && sig.Recv() != nil {
		if named, ok := deref(sig.Recv().Type()).(*types.Named); ok {
			return named.Origin().Obj()
		}
	}
	if named, ok := deref(s.Recv()).(*types.Named); ok {
		return named.Origin().Obj()
	}
	return nil
}

func deref(t types.Type) types.Type {
	t = types.Unalias(t)
	if ptr, ok := t.(*types.Pointer); ok {
		return types.Unalias(ptr.Elem())
	}
	return t
}
