package jsast

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// ScopeKind classifies a lexical region.
type ScopeKind int

const (
	ScopeProgram ScopeKind = iota
	ScopeFunction
	ScopeClass
	ScopeBlock
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeProgram:
		return "program"
	case ScopeFunction:
		return "function"
	case ScopeClass:
		return "class"
	default:
		return "block"
	}
}

// BindingKind records what form of declaration produced a binding.
type BindingKind int

const (
	BindVar BindingKind = iota
	BindLexical
	BindFunction // function declaration name
	BindClass    // class declaration name
	BindFuncExpr // named function/class expression, bound in its own scope
	BindParam
	BindCatchParam
)

// shorthandKind marks reference sites that need textual expansion on rename.
type shorthandKind int

const (
	shorthandNone    shorthandKind = iota
	shorthandObject                // {a} object literal value position
	shorthandPattern               // {a} destructuring pattern position
	shorthandExport                // export {a} local position
)

// refSite is one identifier occurrence that resolves to a binding. The
// declaration site itself is included.
type refSite struct {
	span      Span
	shorthand shorthandKind
}

// Scope is a lexical region of the program. A name resolves to the innermost
// enclosing scope that declares it; shadowing is permitted.
type Scope struct {
	Kind       ScopeKind
	Span       Span
	StartPoint Point
	EndPoint   Point
	Parent     *Scope
	Children   []*Scope

	bindings map[string]*Binding
	node     *sitter.Node
}

// Node returns the syntax node that introduced this scope.
func (s *Scope) Node() *sitter.Node { return s.node }

// HasBinding reports whether name is bound in this scope or any ancestor.
func (s *Scope) HasBinding(name string) bool {
	return s.GetBinding(name) != nil
}

// GetBinding resolves name against this scope chain, innermost first.
func (s *Scope) GetBinding(name string) *Binding {
	for cur := s; cur != nil; cur = cur.Parent {
		if b, ok := cur.bindings[name]; ok {
			return b
		}
	}
	return nil
}

// OwnBindings returns the bindings declared directly in this scope, in
// declaration order.
func (s *Scope) OwnBindings() []*Binding {
	out := make([]*Binding, 0, len(s.bindings))
	for _, b := range s.bindings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Decl.Start < out[j].Decl.Start })
	return out
}

// Binding is the declaration of a name in a lexical scope. Two bindings are
// the same iff they refer to the same declaration site; redeclarations of the
// same var in one scope merge into a single binding.
type Binding struct {
	Name         string // current name; changes when renamed
	OriginalName string
	Kind         BindingKind
	Decl         Span   // span of the declaring identifier
	Scope        *Scope // owning scope

	declNode *sitter.Node
	refs     []refSite
}

// DeclNode returns the declaring identifier node.
func (b *Binding) DeclNode() *sitter.Node { return b.declNode }

// RefSpans returns the spans of every occurrence resolving to this binding,
// including the declaration, in source order.
func (b *Binding) RefSpans() []Span {
	out := make([]Span, len(b.refs))
	for i, r := range b.refs {
		out[i] = r.span
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Scope-creating node kinds. A statement_block that is the direct body of a
// function merges into the function scope, so params and body-level
// declarations share one scope.
func isFunctionKind(kind string) bool {
	switch kind {
	case "function_declaration", "generator_function_declaration",
		"function_expression", "function", "generator_function",
		"arrow_function", "method_definition":
		return true
	}
	return false
}

func isClassKind(kind string) bool {
	return kind == "class_declaration" || kind == "class"
}

func isBlockScopeKind(kind string) bool {
	switch kind {
	case "statement_block", "for_statement", "for_in_statement", "catch_clause", "switch_body":
		return true
	}
	return false
}

// IsScopeNode reports whether the node introduces a lexical scope.
func IsScopeNode(n *sitter.Node) bool {
	kind := n.Type()
	if kind == "program" || isFunctionKind(kind) || isClassKind(kind) {
		return true
	}
	if !isBlockScopeKind(kind) {
		return false
	}
	if kind == "statement_block" {
		if p := n.Parent(); p != nil && isFunctionKind(p.Type()) {
			return false
		}
	}
	return true
}

// IsFunctionNode reports whether the node is any function form.
func IsFunctionNode(n *sitter.Node) bool { return isFunctionKind(n.Type()) }

// IsAnonymousFunction reports whether the node is a function expression or
// arrow with no name of its own.
func IsAnonymousFunction(n *sitter.Node) bool {
	switch n.Type() {
	case "arrow_function":
		return true
	case "function_expression", "function", "generator_function":
		return n.ChildByFieldName("name") == nil
	}
	return false
}

// buildScopeGraph runs the two analysis passes: declarations first, then
// reference resolution. Hoisted functions and forward var references make a
// single pass impossible.
func (t *Tree) buildScopeGraph() {
	root := t.Root()
	t.program = t.newScope(ScopeProgram, root, nil)
	declared := make(map[Span]*Binding)
	t.collectDeclarations(root, t.program, declared)
	t.resolveReferences(root, t.program, declared)
	sort.SliceStable(t.bindings, func(i, j int) bool {
		return t.bindings[i].Decl.Start < t.bindings[j].Decl.Start
	})
}

func (t *Tree) newScope(kind ScopeKind, n *sitter.Node, parent *Scope) *Scope {
	sp := NodeSpan(n)
	s := &Scope{
		Kind:       kind,
		Span:       sp,
		StartPoint: Point{Row: n.StartPoint().Row, Column: n.StartPoint().Column},
		EndPoint:   Point{Row: n.EndPoint().Row, Column: n.EndPoint().Column},
		Parent:     parent,
		bindings:   make(map[string]*Binding),
		node:       n,
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	t.scopes[sp] = s
	return s
}

// enterScope returns the scope for a node during a walk, creating it on the
// declaration pass and looking it up on the resolution pass.
func (t *Tree) enterScope(n *sitter.Node, cur *Scope, create bool) *Scope {
	if n.Type() == "program" || !IsScopeNode(n) {
		return cur
	}
	if !create {
		if s, ok := t.scopes[NodeSpan(n)]; ok {
			return s
		}
		return cur
	}
	kind := ScopeBlock
	switch {
	case isFunctionKind(n.Type()):
		kind = ScopeFunction
	case isClassKind(n.Type()):
		kind = ScopeClass
	}
	return t.newScope(kind, n, cur)
}

// nearestVarScope finds the hoist target for var declarations: the closest
// function or program scope.
func nearestVarScope(s *Scope) *Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == ScopeProgram || cur.Kind == ScopeFunction {
			return cur
		}
	}
	return s
}

func (t *Tree) collectDeclarations(n *sitter.Node, scope *Scope, declared map[Span]*Binding) {
	kind := n.Type()
	if kind == "import_statement" {
		// Imported names are never renamed; they are not bindings here.
		return
	}
	scope = t.enterScope(n, scope, true)

	switch kind {
	case "variable_declaration": // var
		t.bindDeclarators(n, nearestVarScope(scope), BindVar, declared)
	case "lexical_declaration": // let / const
		t.bindDeclarators(n, scope, BindLexical, declared)
	case "function_declaration", "generator_function_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			// The name lives in the scope enclosing the function, alongside
			// its siblings.
			t.bind(name, scope.Parent, BindFunction, shorthandNone, declared)
		}
		t.bindParameters(n, scope, declared)
	case "class_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			t.bind(name, scope.Parent, BindClass, shorthandNone, declared)
		}
	case "function_expression", "function", "generator_function":
		if name := n.ChildByFieldName("name"); name != nil {
			// A named function expression binds its name in its own scope only.
			t.bind(name, scope, BindFuncExpr, shorthandNone, declared)
		}
		t.bindParameters(n, scope, declared)
	case "class":
		if name := n.ChildByFieldName("name"); name != nil {
			t.bind(name, scope, BindFuncExpr, shorthandNone, declared)
		}
	case "arrow_function", "method_definition":
		t.bindParameters(n, scope, declared)
	case "catch_clause":
		if param := n.ChildByFieldName("parameter"); param != nil {
			t.bindPattern(param, scope, BindCatchParam, declared)
		}
	case "for_in_statement":
		// for (const k in obj) carries the declaration kind and pattern as
		// bare fields rather than a nested declaration node.
		if kw := n.ChildByFieldName("kind"); kw != nil {
			left := n.ChildByFieldName("left")
			if left != nil {
				if t.Text(kw) == "var" {
					t.bindPattern(left, nearestVarScope(scope), BindVar, declared)
				} else {
					t.bindPattern(left, scope, BindLexical, declared)
				}
			}
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil {
			t.collectDeclarations(c, scope, declared)
		}
	}
}

func (t *Tree) bindDeclarators(decl *sitter.Node, scope *Scope, kind BindingKind, declared map[Span]*Binding) {
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		d := decl.NamedChild(i)
		if d == nil || d.Type() != "variable_declarator" {
			continue
		}
		if name := d.ChildByFieldName("name"); name != nil {
			t.bindPattern(name, scope, kind, declared)
		}
	}
}

func (t *Tree) bindParameters(fn *sitter.Node, scope *Scope, declared map[Span]*Binding) {
	if single := fn.ChildByFieldName("parameter"); single != nil {
		t.bindPattern(single, scope, BindParam, declared)
		return
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		if p := params.NamedChild(i); p != nil {
			t.bindPattern(p, scope, BindParam, declared)
		}
	}
}

// bindPattern registers every name declared by a (possibly destructuring)
// binding pattern. Property keys in pair patterns stay untouched.
func (t *Tree) bindPattern(n *sitter.Node, scope *Scope, kind BindingKind, declared map[Span]*Binding) {
	switch n.Type() {
	case "identifier":
		t.bind(n, scope, kind, shorthandNone, declared)
	case "shorthand_property_identifier_pattern":
		t.bind(n, scope, kind, shorthandPattern, declared)
	case "object_pattern", "array_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c != nil {
				t.bindPattern(c, scope, kind, declared)
			}
		}
	case "pair_pattern":
		if v := n.ChildByFieldName("value"); v != nil {
			t.bindPattern(v, scope, kind, declared)
		}
	case "assignment_pattern", "object_assignment_pattern":
		if l := n.ChildByFieldName("left"); l != nil {
			t.bindPattern(l, scope, kind, declared)
		}
	case "rest_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c != nil {
				t.bindPattern(c, scope, kind, declared)
			}
		}
	}
}

func (t *Tree) bind(ident *sitter.Node, scope *Scope, kind BindingKind, sh shorthandKind, declared map[Span]*Binding) {
	if scope == nil {
		scope = t.program
	}
	name := t.Text(ident)
	sp := NodeSpan(ident)
	if existing, ok := scope.bindings[name]; ok {
		// Redeclaration (var a; var a;) merges into one binding so a rename
		// rewrites every declaration site.
		existing.refs = append(existing.refs, refSite{span: sp, shorthand: sh})
		declared[sp] = existing
		return
	}
	b := &Binding{
		Name:         name,
		OriginalName: name,
		Kind:         kind,
		Decl:         sp,
		Scope:        scope,
		declNode:     ident,
		refs:         []refSite{{span: sp, shorthand: sh}},
	}
	scope.bindings[name] = b
	t.bindings = append(t.bindings, b)
	declared[sp] = b
}

func (t *Tree) resolveReferences(n *sitter.Node, scope *Scope, declared map[Span]*Binding) {
	kind := n.Type()
	if kind == "import_statement" {
		return
	}
	scope = t.enterScope(n, scope, false)

	switch kind {
	case "identifier":
		sp := NodeSpan(n)
		if _, isDecl := declared[sp]; isDecl {
			return
		}
		sh := shorthandNone
		if p := n.Parent(); p != nil && p.Type() == "export_specifier" {
			alias := p.ChildByFieldName("alias")
			if alias != nil && alias.StartByte() == n.StartByte() {
				return // the exported alias is a public name, not a reference
			}
			if alias == nil {
				sh = shorthandExport
			}
		}
		if b := scope.GetBinding(t.Text(n)); b != nil {
			b.refs = append(b.refs, refSite{span: sp, shorthand: sh})
		}
		return
	case "shorthand_property_identifier":
		if b := scope.GetBinding(t.Text(n)); b != nil {
			b.refs = append(b.refs, refSite{span: NodeSpan(n), shorthand: shorthandObject})
		}
		return
	case "shorthand_property_identifier_pattern":
		// Assignment destructuring outside a declaration: ({a} = obj).
		sp := NodeSpan(n)
		if _, isDecl := declared[sp]; isDecl {
			return
		}
		if b := scope.GetBinding(t.Text(n)); b != nil {
			b.refs = append(b.refs, refSite{span: sp, shorthand: shorthandPattern})
		}
		return
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil {
			t.resolveReferences(c, scope, declared)
		}
	}
}
