package cpp

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/emenda-labs/upgradecheck/core/changespec"
)

// maxBaseDepth bounds the walk up a class hierarchy.
const maxBaseDepth = 16

// typeRef is a type name as written in source together with the scope it
// was written in. Resolution tries the enclosing scopes from the innermost
// outward, then the namespaces brought in by using-directives.
type typeRef struct {
	name     []string
	absolute bool
	scope    []string
	usings   [][]string
}

func (r typeRef) isZero() bool { return len(r.name) == 0 }

// member is a field or method declared in a class body. For methods typ is
// the return type.
type member struct {
	typ    typeRef
	method bool
}

// class is a class, struct or union with a body.
type class struct {
	name    []string
	members map[string]member
	bases   []typeRef
}

// index holds every class defined by the scanned files, keyed by its
// qualified name.
type index struct {
	classes map[string]*class
}

func newIndex() *index {
	return &index{classes: make(map[string]*class)}
}

func scopeKey(segs []string) string {
	return strings.Join(segs, changespec.ScopeSeparator)
}

// add merges c into the index. A class defined in a header that several
// targets share is seen once per file; its members are unioned.
func (ix *index) add(c *class) {
	key := scopeKey(c.name)
	existing, ok := ix.classes[key]
	if !ok {
		ix.classes[key] = c
		return
	}
	for name, m := range c.members {
		if _, dup := existing.members[name]; !dup {
			existing.members[name] = m
		}
	}
	if len(existing.bases) == 0 {
		existing.bases = c.bases
	}
}

func (ix *index) lookup(segs []string) *class {
	return ix.classes[scopeKey(segs)]
}

// resolve finds the class a type name refers to.
func (ix *index) resolve(ref typeRef) *class {
	if ref.isZero() {
		return nil
	}
	if ref.absolute {
		return ix.lookup(ref.name)
	}
	for i := len(ref.scope); i >= 0; i-- {
		if c := ix.lookup(join(ref.scope[:i], ref.name)); c != nil {
			return c
		}
	}
	for _, ns := range ref.usings {
		if c := ix.lookup(join(ns, ref.name)); c != nil {
			return c
		}
	}
	return nil
}

// findMember looks name up in c and then in its bases, returning the class
// that declares it.
func (ix *index) findMember(c *class, name string) (*class, member, bool) {
	return ix.findMemberDepth(c, name, 0)
}

func (ix *index) findMemberDepth(c *class, name string, depth int) (*class, member, bool) {
	if c == nil || depth > maxBaseDepth {
		return nil, member{}, false
	}
	if m, ok := c.members[name]; ok {
		return c, m, true
	}
	for _, base := range c.bases {
		if owner, m, ok := ix.findMemberDepth(ix.resolve(base), name, depth+1); ok {
			return owner, m, true
		}
	}
	return nil, member{}, false
}

func join(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// collector gathers the class definitions and using-directives of one file.
type collector struct {
	src     []byte
	usings  [][]string
	classes []*class
}

func collect(root *sitter.Node, src []byte) *collector {
	c := &collector{src: src}
	c.collectUsings(root)
	c.walk(root, nil)
	return c
}

// collectUsings records "using namespace N;" anywhere outside function
// bodies. Directives apply file-wide.
func (c *collector) collectUsings(n *sitter.Node) {
	switch n.Type() {
	case "compound_statement":
		return
	case "using_declaration":
		if hasChildOfType(n, "namespace") {
			for i := 0; i < int(n.NamedChildCount()); i++ {
				if segs, _ := splitTypeName(n.NamedChild(i).Content(c.src)); len(segs) > 0 {
					c.usings = append(c.usings, segs)
				}
			}
		}
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.collectUsings(n.NamedChild(i))
	}
}

func (c *collector) walk(n *sitter.Node, scope []string) {
	switch n.Type() {
	case "namespace_definition":
		inner := scope
		if name := n.ChildByFieldName("name"); name != nil {
			segs, _ := splitTypeName(name.Content(c.src))
			inner = join(scope, segs)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			c.walkChildren(body, inner)
		}
		return
	case "class_specifier", "struct_specifier", "union_specifier":
		c.class(n, scope)
		return
	case "compound_statement":
		return
	}
	c.walkChildren(n, scope)
}

func (c *collector) walkChildren(n *sitter.Node, scope []string) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.walk(n.NamedChild(i), scope)
	}
}

func (c *collector) class(n *sitter.Node, scope []string) {
	nameNode := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	if nameNode == nil || body == nil {
		return
	}
	segs, _ := splitTypeName(nameNode.Content(c.src))
	if len(segs) == 0 {
		return
	}
	cls := &class{name: join(scope, segs), members: make(map[string]member)}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "base_class_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			base := clause.NamedChild(j)
			switch base.Type() {
			case "type_identifier", "qualified_identifier", "template_type":
				c.addBase(cls, base, scope)
			}
		}
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		c.member(cls, body.NamedChild(i))
	}
	c.classes = append(c.classes, cls)
}

func (c *collector) addBase(cls *class, n *sitter.Node, scope []string) {
	segs, abs := splitTypeName(n.Content(c.src))
	if len(segs) == 0 {
		return
	}
	cls.bases = append(cls.bases, typeRef{name: segs, absolute: abs, scope: scope, usings: c.usings})
}

func (c *collector) member(cls *class, n *sitter.Node) {
	switch n.Type() {
	case "field_declaration", "declaration":
		typeNode := n.ChildByFieldName("type")
		if typeNode != nil {
			switch typeNode.Type() {
			case "class_specifier", "struct_specifier", "union_specifier":
				c.class(typeNode, cls.name)
			}
		}
		typ := c.typeRefOf(typeNode, cls.name)
		for _, d := range declarators(n) {
			name, method := declaratorName(d, c.src)
			if name == "" {
				continue
			}
			cls.members[name] = member{typ: typ, method: method}
		}
	case "function_definition":
		name, _ := declaratorName(n.ChildByFieldName("declarator"), c.src)
		if name != "" {
			cls.members[name] = member{typ: c.typeRefOf(n.ChildByFieldName("type"), cls.name), method: true}
		}
	case "template_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c.member(cls, n.NamedChild(i))
		}
	case "class_specifier", "struct_specifier", "union_specifier":
		c.class(n, cls.name)
	}
}

func (c *collector) typeRefOf(n *sitter.Node, scope []string) typeRef {
	if n == nil {
		return typeRef{}
	}
	segs, abs := splitTypeName(n.Content(c.src))
	return typeRef{name: segs, absolute: abs, scope: scope, usings: c.usings}
}

// declarators returns every child of a declaration in its "declarator"
// field: "int a, *b;" has two.
func declarators(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) == "declarator" {
			out = append(out, n.Child(i))
		}
	}
	return out
}

// declaratorName unwraps pointer, reference, array and init declarators
// down to the declared identifier. method reports whether a function
// declarator was crossed on the way.
func declaratorName(n *sitter.Node, src []byte) (name string, method bool) {
	for n != nil {
		switch n.Type() {
		case "identifier", "field_identifier", "type_identifier":
			return n.Content(src), method
		case "qualified_identifier":
			segs, _ := splitTypeName(n.Content(src))
			if len(segs) == 0 {
				return "", method
			}
			return segs[len(segs)-1], method
		case "function_declarator":
			method = true
		case "destructor_name", "operator_name":
			return "", method
		}
		next := n.ChildByFieldName("declarator")
		if next == nil {
			// reference_declarator has no field name on its inner node.
			if n.NamedChildCount() == 0 {
				return "", method
			}
			next = n.NamedChild(0)
		}
		n = next
	}
	return "", method
}

// splitTypeName reduces a written type to its scope segments: qualifiers,
// elaborated-type keywords, pointers, references and template arguments
// are dropped. "const ::ns::Box<int> *" becomes ["ns", "Box"], absolute.
func splitTypeName(s string) (segs []string, absolute bool) {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth > 0:
		case r == '*' || r == '&':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}

	var words []string
	for _, w := range strings.Fields(b.String()) {
		switch w {
		case "const", "volatile", "struct", "class", "union", "enum", "typename", "mutable", "static":
			continue
		}
		words = append(words, w)
	}
	text := strings.Join(words, "")
	if strings.HasPrefix(text, changespec.ScopeSeparator) {
		absolute = true
		text = strings.TrimPrefix(text, changespec.ScopeSeparator)
	}
	if text == "" {
		return nil, absolute
	}
	for _, seg := range strings.Split(text, changespec.ScopeSeparator) {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs, absolute
}

func hasChildOfType(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == typ {
			return true
		}
	}
	return false
}
