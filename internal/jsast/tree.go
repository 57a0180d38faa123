// Package jsast parses JavaScript with tree-sitter and layers a lexical scope
// graph plus a scope-aware rename primitive on top of the concrete syntax
// tree. Tree-sitter trees are immutable, so mutation is realized as an
// offset-tracked edit buffer over the original source: node positions stay
// valid for the lifetime of one parse while every render reflects the edits
// applied so far.
package jsast

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// Span is a half-open byte range in the original source.
type Span struct {
	Start, End uint32
}

// Len returns the span's byte length.
func (s Span) Len() int { return int(s.End) - int(s.Start) }

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Point is a zero-based line/column position.
type Point struct {
	Row, Column uint32
}

// ParseError reports a syntax error in the input source.
type ParseError struct {
	Line, Column uint32
	Msg          string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line+1, e.Column+1, e.Msg)
}

// Tree couples a parsed JavaScript syntax tree with its scope graph and the
// edit buffer holding all renames applied so far. A Tree is not safe for
// concurrent mutation; renders are safe between mutations.
type Tree struct {
	src      []byte
	ts       *sitter.Tree
	buf      *EditBuffer
	program  *Scope
	bindings []*Binding
	scopes   map[Span]*Scope
}

// Parse parses source and builds the scope graph. Inputs that tree-sitter
// cannot parse cleanly (ERROR or MISSING nodes) are rejected with ParseError.
func Parse(ctx context.Context, source []byte) (*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	ts, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	root := ts.RootNode()
	if root.HasError() {
		var pe *ParseError
		if bad := firstErrorNode(root); bad != nil {
			p := bad.StartPoint()
			pe = &ParseError{Line: p.Row, Column: p.Column, Msg: "invalid syntax"}
		} else {
			pe = &ParseError{Msg: "invalid syntax"}
		}
		ts.Close()
		return nil, pe
	}
	t := &Tree{
		src:    source,
		ts:     ts,
		buf:    NewEditBuffer(source),
		scopes: make(map[Span]*Scope),
	}
	t.buildScopeGraph()
	return t, nil
}

// Close releases the underlying tree-sitter tree. Node references obtained
// from this Tree are invalid afterwards.
func (t *Tree) Close() {
	if t.ts != nil {
		t.ts.Close()
		t.ts = nil
	}
}

// Root returns the program node.
func (t *Tree) Root() *sitter.Node { return t.ts.RootNode() }

// Program returns the program scope.
func (t *Tree) Program() *Scope { return t.program }

// Bindings returns every binding in the tree, sorted by declaration offset.
// Each declared name appears exactly once; references are not enumerated.
func (t *Tree) Bindings() []*Binding { return t.bindings }

// Print renders the full current source text.
func (t *Tree) Print() string { return t.buf.String() }

// SourceLen returns the original source length in bytes.
func (t *Tree) SourceLen() int { return len(t.src) }

// Render returns the current text of a node's span.
func (t *Tree) Render(n *sitter.Node) string {
	return t.buf.Slice(n.StartByte(), n.EndByte())
}

// RenderSpan returns the current text of an original span.
func (t *Tree) RenderSpan(sp Span) string {
	return t.buf.Slice(sp.Start, sp.End)
}

// RenderSpanWith renders an original span with rendering-time insertions.
func (t *Tree) RenderSpanWith(sp Span, inserts []Insert) string {
	return t.buf.SliceWith(sp.Start, sp.End, inserts)
}

// Text returns the original (pre-edit) source text of a node.
func (t *Tree) Text(n *sitter.Node) string {
	return string(t.src[n.StartByte():n.EndByte()])
}

// TextSpan returns the original source text of a span.
func (t *Tree) TextSpan(sp Span) string {
	return string(t.src[sp.Start:sp.End])
}

// NodeSpan returns the original span of a node.
func NodeSpan(n *sitter.Node) Span {
	return Span{Start: n.StartByte(), End: n.EndByte()}
}

// ScopeAt returns the scope created by the given scope node span, if any.
func (t *Tree) ScopeAt(sp Span) *Scope { return t.scopes[sp] }

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && c.HasError() {
			if bad := firstErrorNode(c); bad != nil {
				return bad
			}
		}
	}
	return nil
}
