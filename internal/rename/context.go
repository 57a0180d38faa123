package rename

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"humanify/internal/jsast"
	"humanify/internal/logging"
)

// perTargetFloor is the smallest per-target snippet window in characters.
const perTargetFloor = 120

const globalRefsBanner = "// === Global References ==="

// contextExtractor produces the bounded textual slice of source sent to the
// visitor along with a batch's names. It always renders current text, so
// names assigned by earlier batches show up in later contexts.
type contextExtractor struct {
	tree       *jsast.Tree
	windowSize int
	minLines   int
}

// extract builds the prompt context for one batch.
func (e *contextExtractor) extract(b *batch) string {
	first := b.bindings[0]
	markers := e.markersFor(b)

	p := e.contextPath(first)
	p = e.escapeAnonymous(p)
	p = e.growToLineThreshold(p)

	if len(b.bindings) > 1 && p.Type() == "program" {
		if mca := e.commonAncestor(b.bindings); mca != nil {
			p = mca
		}
	}

	shared := e.renderNode(p, markers)
	if len(shared) > e.windowSize {
		shared = e.containerWindow(first, markers)
	}

	var sb strings.Builder
	sb.WriteString(shared)

	if len(b.bindings) > 1 {
		e.appendTargetSnippets(&sb, b)
	}

	e.appendGlobalReferences(&sb, b)

	if len(b.bindings) == 1 && lineCount(sb.String()) < e.minLines {
		expanded := e.growToLineThreshold(p)
		if expanded != p {
			sb.Reset()
			sb.WriteString(e.renderNode(expanded, markers))
		}
		sb.WriteString("\n// Focus identifier: " + first.Name)
	}

	out := sb.String()
	logging.ContextDebug("batch of %d: context %d chars, %d lines", len(b.bindings), len(out), lineCount(out))
	return out
}

// markersFor decorates each target's declaration with a trailing comment so
// the model can locate it. The markers are rendering-time inserts; the tree
// is never touched.
func (e *contextExtractor) markersFor(b *batch) []jsast.Insert {
	out := make([]jsast.Insert, 0, len(b.bindings))
	for _, bind := range b.bindings {
		out = append(out, jsast.Insert{
			At:   bind.Decl.End,
			Text: " /* Rename this " + bind.Name + " */",
		})
	}
	return out
}

// contextPath finds the nearest ancestor of the binding that is the program
// or a scope declaring the binding's name.
func (e *contextExtractor) contextPath(b *jsast.Binding) *sitter.Node {
	for cur := b.DeclNode().Parent(); cur != nil; cur = cur.Parent() {
		if cur.Type() == "program" {
			return cur
		}
		if !jsast.IsScopeNode(cur) {
			continue
		}
		if s := e.tree.ScopeAt(jsast.NodeSpan(cur)); s != nil && s == b.Scope {
			return cur
		}
	}
	return e.tree.Root()
}

// escapeAnonymous climbs out of anonymous function expressions and arrows:
// `const handler = () => {...}` reads better than a bare arrow body.
func (e *contextExtractor) escapeAnonymous(n *sitter.Node) *sitter.Node {
	for jsast.IsAnonymousFunction(n) && n.Parent() != nil {
		n = n.Parent()
	}
	return n
}

// growToLineThreshold walks up the parent chain until the rendered line count
// reaches the information threshold or the program root is hit.
func (e *contextExtractor) growToLineThreshold(n *sitter.Node) *sitter.Node {
	for n.Parent() != nil && lineCount(e.tree.Render(n)) < e.minLines {
		n = n.Parent()
	}
	return n
}

// containerWindow is the fallback for an over-budget context: locate the
// enclosing statement list, center on the target's statement, and alternately
// prepend and append siblings until the character budget would be exceeded.
func (e *contextExtractor) containerWindow(b *jsast.Binding, markers []jsast.Insert) string {
	container, stmtIdx := e.enclosingStatementList(b)
	if container == nil {
		// No statement list above the target: hard-truncate around it.
		return e.truncateAround(b, e.windowSize, markers)
	}

	n := int(container.NamedChildCount())
	rendered := make(map[int]string)
	render := func(i int) string {
		if s, ok := rendered[i]; ok {
			return s
		}
		s := e.renderNode(container.NamedChild(i), markers)
		rendered[i] = s
		return s
	}

	total := len(render(stmtIdx))
	lo, hi := stmtIdx, stmtIdx
	for {
		grew := false
		if lo > 0 {
			if next := len(render(lo-1)) + 1; total+next <= e.windowSize {
				lo--
				total += next
				grew = true
			}
		}
		if hi < n-1 {
			if next := len(render(hi+1)) + 1; total+next <= e.windowSize {
				hi++
				total += next
				grew = true
			}
		}
		if !grew {
			break
		}
	}

	parts := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		parts = append(parts, render(i))
	}
	return strings.Join(parts, "\n")
}

// enclosingStatementList finds the nearest ancestor holding a statement list
// and the index of the statement containing the binding.
func (e *contextExtractor) enclosingStatementList(b *jsast.Binding) (*sitter.Node, int) {
	declSpan := b.Decl
	for cur := b.DeclNode().Parent(); cur != nil; cur = cur.Parent() {
		switch cur.Type() {
		case "program", "statement_block", "class_body", "switch_body":
			for i := 0; i < int(cur.NamedChildCount()); i++ {
				c := cur.NamedChild(i)
				if c != nil && jsast.NodeSpan(c).Contains(declSpan) {
					return cur, i
				}
			}
		}
	}
	return nil, 0
}

// truncateAround renders a window of the current text centered on the
// binding's declaration.
func (e *contextExtractor) truncateAround(b *jsast.Binding, window int, markers []jsast.Insert) string {
	half := uint32(window / 2)
	start := uint32(0)
	if b.Decl.Start > half {
		start = b.Decl.Start - half
	}
	end := b.Decl.End + half
	if int(end) > e.tree.SourceLen() {
		end = uint32(e.tree.SourceLen())
	}
	var sb strings.Builder
	if start > 0 {
		sb.WriteString("// ...\n")
	}
	sb.WriteString(e.tree.RenderSpanWith(jsast.Span{Start: start, End: end}, markers))
	if int(end) < e.tree.SourceLen() {
		sb.WriteString("\n// ...")
	}
	return sb.String()
}

// commonAncestor returns the deepest node containing every target's
// declaration, or nil when that is the program itself.
func (e *contextExtractor) commonAncestor(bindings []*jsast.Binding) *sitter.Node {
	var lo, hi uint32
	lo, hi = bindings[0].Decl.Start, bindings[0].Decl.End
	for _, b := range bindings[1:] {
		if b.Decl.Start < lo {
			lo = b.Decl.Start
		}
		if b.Decl.End > hi {
			hi = b.Decl.End
		}
	}
	all := jsast.Span{Start: lo, End: hi}
	cur := bindings[0].DeclNode()
	for cur != nil && !jsast.NodeSpan(cur).Contains(all) {
		cur = cur.Parent()
	}
	if cur == nil || cur.Type() == "program" {
		return nil
	}
	return cur
}

// appendTargetSnippets adds a labelled excerpt per target so the model can
// locate every name even if the shared window truncates one.
func (e *contextExtractor) appendTargetSnippets(sb *strings.Builder, b *batch) {
	window := e.windowSize / len(b.bindings)
	if window < perTargetFloor {
		window = perTargetFloor
	}
	for _, bind := range b.bindings {
		sb.WriteString("\n// Target: " + bind.Name + "\n")
		sb.WriteString(e.truncateAround(bind, window, nil))
	}
}

// appendGlobalReferences adds, for every program-level target, the statements
// across the whole tree that reference it, subject to the remaining budget.
func (e *contextExtractor) appendGlobalReferences(sb *strings.Builder, b *batch) {
	remaining := e.windowSize - sb.Len()
	if remaining <= 0 {
		return
	}
	var lines []string
	seen := make(map[jsast.Span]bool)
	for _, bind := range b.bindings {
		if bind.Scope.Kind != jsast.ScopeProgram {
			continue
		}
		for _, ref := range bind.RefSpans() {
			if ref == bind.Decl {
				continue
			}
			stmt := e.topLevelStatementAt(ref)
			if stmt == nil {
				continue
			}
			sp := jsast.NodeSpan(stmt)
			if seen[sp] || sp.Contains(bind.Decl) {
				continue
			}
			seen[sp] = true
			lines = append(lines, e.tree.RenderSpan(sp))
		}
	}
	if len(lines) == 0 {
		return
	}
	var out strings.Builder
	out.WriteString("\n" + globalRefsBanner)
	for _, l := range lines {
		if out.Len()+len(l)+1 > remaining {
			break
		}
		out.WriteString("\n" + l)
	}
	sb.WriteString(out.String())
}

// topLevelStatementAt finds the program-level statement (a direct child of
// the program node) that contains the given span.
func (e *contextExtractor) topLevelStatementAt(sp jsast.Span) *sitter.Node {
	root := e.tree.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		c := root.NamedChild(i)
		if c != nil && jsast.NodeSpan(c).Contains(sp) {
			return c
		}
	}
	return nil
}

func (e *contextExtractor) renderNode(n *sitter.Node, markers []jsast.Insert) string {
	return e.tree.RenderSpanWith(jsast.NodeSpan(n), markers)
}

func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}
