package golang

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/inspector"

	"github.com/emenda-labs/upgradecheck/core/changespec"
	"github.com/emenda-labs/upgradecheck/core/check"
	"github.com/emenda-labs/upgradecheck/core/pattern"
)

// unit is one analysis unit: a type-checked package traversed once.
type unit struct {
	fset  *token.FileSet
	info  *types.Info
	check *check.Check
	set   *pattern.Set
}

// emitFunc receives each diagnostic with the selector it was raised for.
type emitFunc func(sel *ast.SelectorExpr, d check.Diagnostic)

// compilePatterns registers the check's patterns into a fresh set.
func compilePatterns(c *check.Check) *pattern.Set {
	set := &pattern.Set{}
	c.RegisterPatterns(set)
	return set
}

func (u *unit) run(insp *inspector.Inspector, emit emitFunc) {
	if u.info == nil || u.set.Len() == 0 {
		return
	}
	insp.Preorder([]ast.Node{(*ast.SelectorExpr)(nil)}, func(n ast.Node) {
		sel := n.(*ast.SelectorExpr)
		if !u.set.HasLeaf(sel.Sel.Name) {
			return
		}
		d := resolveDecl(u.info, sel)
		if d == nil {
			return
		}
		p, ok := u.set.Accepting(d)
		if !ok {
			return
		}
		m := u.match(sel, d)
		m.Key = p.Name
		if diag, ok := u.check.Run(m); ok {
			emit(sel, diag)
		}
	})
}

func (u *unit) match(sel *ast.SelectorExpr, d *decl) check.Match {
	return check.Match{
		Location:     u.location(sel.Sel.Pos()),
		BaseLocation: u.location(sel.X.Pos()),
		Name:         changespec.NewQualifiedName(changespec.GoScopeSeparator, pattern.QualifiedName(d)...),
		Range: check.Range{
			Start: u.location(sel.Pos()),
			End:   u.location(sel.End()),
		},
	}
}

func (u *unit) location(pos token.Pos) check.Location {
	if !pos.IsValid() {
		return check.Location{}
	}
	p := u.fset.Position(pos)
	return check.Location{
		Filename: p.Filename,
		Offset:   p.Offset,
		Line:     p.Line,
		Column:   p.Column,
	}
}

// tokenPos maps a location back into the file containing anchor.
func tokenPos(fset *token.FileSet, anchor token.Pos, loc check.Location) token.Pos {
	if !loc.IsValid() || !anchor.IsValid() {
		return token.NoPos
	}
	f := fset.File(anchor)
	if f == nil || loc.Offset > f.Size() {
		return token.NoPos
	}
	return f.Pos(loc.Offset)
}
