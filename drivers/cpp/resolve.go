package cpp

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// maxExprDepth bounds recursion through nested member accesses.
const maxExprDepth = 32

// resolver types expressions of one parsed file against the shared index.
type resolver struct {
	ix     *index
	src    []byte
	usings [][]string
}

// memberOwner returns the qualified name of the declaration a member access
// refers to: the declaring class followed by the member. When the base's
// class is not defined in any scanned file, the type as written stands in
// for it so that accesses through types from unscanned headers still match
// fully qualified registry entries.
func (r *resolver) memberOwner(access *sitter.Node) []string {
	field := access.ChildByFieldName("field")
	if field == nil {
		return nil
	}
	name := field.Content(r.src)
	base, ok := r.typeOf(access.ChildByFieldName("argument"), 0)
	if !ok {
		return nil
	}
	if cls := r.ix.resolve(base); cls != nil {
		if owner, _, found := r.ix.findMember(cls, name); found {
			return join(owner.name, []string{name})
		}
		return join(cls.name, []string{name})
	}
	return join(base.name, []string{name})
}

// typeOf computes the class type of an expression. Pointers and references
// are transparent: "." and "->" reach the same members.
func (r *resolver) typeOf(n *sitter.Node, depth int) (typeRef, bool) {
	if n == nil || depth > maxExprDepth {
		return typeRef{}, false
	}
	switch n.Type() {
	case "parenthesized_expression", "pointer_expression":
		inner := n.ChildByFieldName("argument")
		if inner == nil && n.NamedChildCount() > 0 {
			inner = n.NamedChild(0)
		}
		return r.typeOf(inner, depth+1)

	case "this":
		return r.enclosingClass(n)

	case "identifier":
		return r.lookupName(n, n.Content(r.src))

	case "field_expression":
		return r.memberType(n, false, depth)

	case "call_expression":
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return typeRef{}, false
		}
		switch fn.Type() {
		case "field_expression":
			return r.memberType(fn, true, depth)
		case "identifier", "qualified_identifier", "template_function", "type_identifier":
			// A call through a class name constructs a temporary.
			segs, abs := splitTypeName(fn.Content(r.src))
			ref := typeRef{name: segs, absolute: abs, scope: scopeAt(n, r.src), usings: r.usings}
			if r.ix.resolve(ref) != nil {
				return ref, true
			}
		}
	}
	return typeRef{}, false
}

// memberType returns the declared type of the member accessed by a
// field_expression, or the return type when the access is called.
func (r *resolver) memberType(access *sitter.Node, called bool, depth int) (typeRef, bool) {
	field := access.ChildByFieldName("field")
	if field == nil {
		return typeRef{}, false
	}
	base, ok := r.typeOf(access.ChildByFieldName("argument"), depth+1)
	if !ok {
		return typeRef{}, false
	}
	_, m, found := r.ix.findMember(r.ix.resolve(base), field.Content(r.src))
	if !found || m.method != called || m.typ.isZero() {
		return typeRef{}, false
	}
	return m.typ, true
}

// lookupName finds the declaration of a variable named name visible at n:
// locals of enclosing blocks, parameters of the enclosing function, globals,
// and finally members of the enclosing class.
func (r *resolver) lookupName(n *sitter.Node, name string) (typeRef, bool) {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "compound_statement", "translation_unit", "declaration_list":
			if ref, ok := r.findDeclaration(p, name); ok {
				return ref, true
			}
		case "for_statement":
			if init := p.ChildByFieldName("initializer"); init != nil && init.Type() == "declaration" {
				if ref, ok := r.declares(init, name); ok {
					return ref, true
				}
			}
		case "for_range_loop":
			if d := p.ChildByFieldName("declarator"); d != nil {
				if n, _ := declaratorName(d, r.src); n == name {
					return r.refAt(p.ChildByFieldName("type"), p), true
				}
			}
		case "function_definition":
			if ref, ok := r.findParameter(p, name); ok {
				return ref, true
			}
		}
	}

	cls, ok := r.enclosingClass(n)
	if !ok {
		return typeRef{}, false
	}
	_, m, found := r.ix.findMember(r.ix.resolve(cls), name)
	if !found || m.method {
		return typeRef{}, false
	}
	return m.typ, true
}

func (r *resolver) findDeclaration(block *sitter.Node, name string) (typeRef, bool) {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		if child.Type() != "declaration" {
			continue
		}
		if ref, ok := r.declares(child, name); ok {
			return ref, true
		}
	}
	return typeRef{}, false
}

func (r *resolver) declares(decl *sitter.Node, name string) (typeRef, bool) {
	for _, d := range declarators(decl) {
		if n, isFunc := declaratorName(d, r.src); n == name && !isFunc {
			return r.refAt(decl.ChildByFieldName("type"), decl), true
		}
	}
	return typeRef{}, false
}

func (r *resolver) findParameter(fn *sitter.Node, name string) (typeRef, bool) {
	params := functionParameters(fn.ChildByFieldName("declarator"))
	if params == nil {
		return typeRef{}, false
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
		default:
			continue
		}
		if n, _ := declaratorName(p.ChildByFieldName("declarator"), r.src); n == name {
			return r.refAt(p.ChildByFieldName("type"), fn), true
		}
	}
	return typeRef{}, false
}

func functionParameters(d *sitter.Node) *sitter.Node {
	for d != nil {
		if d.Type() == "function_declarator" {
			return d.ChildByFieldName("parameters")
		}
		d = d.ChildByFieldName("declarator")
	}
	return nil
}

// refAt builds a typeRef for a type node written at position at.
func (r *resolver) refAt(typeNode, at *sitter.Node) typeRef {
	if typeNode == nil {
		return typeRef{}
	}
	segs, abs := splitTypeName(typeNode.Content(r.src))
	return typeRef{name: segs, absolute: abs, scope: scopeAt(at, r.src), usings: r.usings}
}

// enclosingClass returns the class whose member function contains n,
// either lexically or through a qualified out-of-line definition.
func (r *resolver) enclosingClass(n *sitter.Node) (typeRef, bool) {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "class_specifier", "struct_specifier", "union_specifier":
			name := p.ChildByFieldName("name")
			if name == nil {
				return typeRef{}, false
			}
			segs, abs := splitTypeName(name.Content(r.src))
			return typeRef{name: segs, absolute: abs, scope: scopeAt(p, r.src), usings: r.usings}, true
		case "function_definition":
			if segs := qualifiedFunctionScope(p.ChildByFieldName("declarator"), r.src); len(segs) > 0 {
				return typeRef{name: segs, scope: scopeAt(p, r.src), usings: r.usings}, true
			}
		}
	}
	return typeRef{}, false
}

// qualifiedFunctionScope returns ["C"] for the declarator of "void C::f()".
func qualifiedFunctionScope(d *sitter.Node, src []byte) []string {
	for d != nil {
		if d.Type() == "function_declarator" {
			inner := d.ChildByFieldName("declarator")
			if inner == nil || inner.Type() != "qualified_identifier" {
				return nil
			}
			segs, _ := splitTypeName(inner.Content(src))
			if len(segs) < 2 {
				return nil
			}
			return segs[:len(segs)-1]
		}
		d = d.ChildByFieldName("declarator")
	}
	return nil
}

// scopeAt returns the namespaces and classes lexically enclosing n,
// outermost first.
func scopeAt(n *sitter.Node, src []byte) []string {
	var rev [][]string
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "namespace_definition", "class_specifier", "struct_specifier", "union_specifier":
			if name := p.ChildByFieldName("name"); name != nil {
				if segs, _ := splitTypeName(name.Content(src)); len(segs) > 0 {
					rev = append(rev, segs)
				}
			}
		}
	}
	var scope []string
	for i := len(rev) - 1; i >= 0; i-- {
		scope = append(scope, rev[i]...)
	}
	return scope
}
