package rename

import (
	"sort"

	"humanify/internal/jsast"
)

// groupKey identifies a grouping scope by kind and position. Function and
// class declaration names already live in their enclosing scope, so a
// function groups together with its siblings.
type groupKey struct {
	kind                             jsast.ScopeKind
	startRow, startCol, endRow, endCol uint32
}

// group is an ordered collection of bindings sharing a grouping scope.
type group struct {
	key      groupKey
	scope    *jsast.Scope
	bindings []*jsast.Binding
}

// spanBytes is the byte length of the grouping scope.
func (g *group) spanBytes() int { return g.scope.Span.Len() }

func (g *group) firstDecl() uint32 { return g.bindings[0].Decl.Start }

func (g *group) lastDecl() uint32 {
	return g.bindings[len(g.bindings)-1].Decl.Start
}

func keyForScope(s *jsast.Scope) groupKey {
	return groupKey{
		kind:     s.Kind,
		startRow: s.StartPoint.Row,
		startCol: s.StartPoint.Column,
		endRow:   s.EndPoint.Row,
		endCol:   s.EndPoint.Column,
	}
}

// groupBindings partitions the binding list by grouping scope and sorts the
// groups by scope size, smallest first. Inner, name-rich scopes rename before
// outer ones, which limits collision cascades. Bindings inside each group
// keep declaration order.
func groupBindings(bindings []*jsast.Binding) []*group {
	byKey := make(map[groupKey]*group)
	var order []*group
	for _, b := range bindings {
		key := keyForScope(b.Scope)
		g, ok := byKey[key]
		if !ok {
			g = &group{key: key, scope: b.Scope}
			byKey[key] = g
			order = append(order, g)
		}
		g.bindings = append(g.bindings, b)
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].spanBytes() != order[j].spanBytes() {
			return order[i].spanBytes() < order[j].spanBytes()
		}
		return order[i].scope.Span.Start < order[j].scope.Span.Start
	})
	return order
}

// mergeBoundary returns the nearest enclosing program/function/class scope.
// Merging never crosses this boundary: cross-function context confuses the
// model.
func mergeBoundary(s *jsast.Scope) jsast.Span {
	cur := s
	for cur.Parent != nil && cur.Kind == jsast.ScopeBlock {
		cur = cur.Parent
	}
	return cur.Span
}
