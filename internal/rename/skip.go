package rename

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"humanify/internal/jsast"
)

// skipJudge decides which bindings are not worth an LLM call. Decisions are
// memoized per binding: the merger and the batch loop both consult it.
type skipJudge struct {
	tree *jsast.Tree
	memo map[*jsast.Binding]bool
}

func newSkipJudge(tree *jsast.Tree) *skipJudge {
	return &skipJudge{tree: tree, memo: make(map[*jsast.Binding]bool)}
}

func (j *skipJudge) shouldSkip(b *jsast.Binding) bool {
	if v, ok := j.memo[b]; ok {
		return v
	}
	v := j.judge(b)
	j.memo[b] = v
	return v
}

func (j *skipJudge) judge(b *jsast.Binding) bool {
	if j.isEmptyCatchParam(b) {
		return true
	}
	if j.isTrivialForm(b) {
		return true
	}
	// A scope whose entire text is near-empty carries no signal for naming.
	// The program scope is exempt: the whole file is the best context there
	// is, however small.
	if b.Scope.Kind != jsast.ScopeProgram {
		text := j.tree.RenderSpan(b.Scope.Span)
		if nonWhitespaceLen(text) < 10 {
			return true
		}
	}
	return false
}

// isEmptyCatchParam matches catch(x){} with a zero-statement body.
func (j *skipJudge) isEmptyCatchParam(b *jsast.Binding) bool {
	if b.Kind != jsast.BindCatchParam {
		return false
	}
	clause := ancestorOfType(b.DeclNode(), "catch_clause")
	if clause == nil {
		return false
	}
	body := clause.ChildByFieldName("body")
	return body == nil || body.NamedChildCount() == 0
}

// isTrivialForm matches the structurally trivial single-statement shapes:
// X = "", X = {}, X = [], [X], function N(){}, function N(x){}, class N {}.
func (j *skipJudge) isTrivialForm(b *jsast.Binding) bool {
	decl := b.DeclNode()
	parent := decl.Parent()
	if parent == nil {
		return false
	}

	switch parent.Type() {
	case "variable_declarator":
		value := parent.ChildByFieldName("value")
		if value == nil {
			return false
		}
		switch value.Type() {
		case "string":
			return value.NamedChildCount() == 0 // "" with no fragments
		case "object":
			return value.NamedChildCount() == 0
		case "array":
			return value.NamedChildCount() == 0
		}
		return false
	case "array_pattern":
		// [X] as the whole pattern.
		return parent.NamedChildCount() == 1
	case "function_declaration", "generator_function_declaration",
		"function_expression", "function", "generator_function":
		return isEmptyFunction(parent)
	case "formal_parameters":
		// The x in function N(x){}.
		fn := parent.Parent()
		return fn != nil && isFunctionDeclKind(fn.Type()) && isEmptyFunction(fn)
	case "class_declaration", "class":
		body := parent.ChildByFieldName("body")
		return body != nil && body.NamedChildCount() == 0
	}
	return false
}

func isFunctionDeclKind(kind string) bool {
	switch kind {
	case "function_declaration", "generator_function_declaration",
		"function_expression", "function", "generator_function":
		return true
	}
	return false
}

// isEmptyFunction matches function N(){} and function N(x){}: an empty body
// with at most one parameter.
func isEmptyFunction(fn *sitter.Node) bool {
	body := fn.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() != 0 {
		return false
	}
	params := fn.ChildByFieldName("parameters")
	return params == nil || params.NamedChildCount() <= 1
}

func ancestorOfType(n *sitter.Node, kind string) *sitter.Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Type() == kind {
			return cur
		}
	}
	return nil
}

func nonWhitespaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !strings.ContainsRune(" \t\r\n", r) {
			n++
		}
	}
	return n
}
