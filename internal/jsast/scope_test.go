package jsast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, source string) *Tree {
	t.Helper()
	tree, err := Parse(context.Background(), []byte(source))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func bindingNames(tree *Tree) []string {
	var out []string
	for _, b := range tree.Bindings() {
		out = append(out, b.Name)
	}
	return out
}

func findBinding(t *testing.T, tree *Tree, name string) *Binding {
	t.Helper()
	for _, b := range tree.Bindings() {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("no binding named %q", name)
	return nil
}

func TestParse_EnumeratesBindings(t *testing.T) {
	tree := mustParse(t, `const count = 1;
let title = "x";
var legacy = 2;
function render(item, idx) {
  const local = item + idx;
  return local;
}
class Store {
  get(key) { return key; }
}
try { render(1, 2); } catch (err) { legacy = err; }
`)
	assert.ElementsMatch(t,
		[]string{"count", "title", "legacy", "render", "item", "idx", "local", "Store", "key", "err"},
		bindingNames(tree))

	// Declarations are sorted by offset.
	names := bindingNames(tree)
	assert.Equal(t, "count", names[0])

	// Function and class declaration names live in the enclosing scope.
	assert.Equal(t, ScopeProgram, findBinding(t, tree, "render").Scope.Kind)
	assert.Equal(t, ScopeProgram, findBinding(t, tree, "Store").Scope.Kind)

	// Parameters and locals live in the function scope.
	assert.Equal(t, ScopeFunction, findBinding(t, tree, "item").Scope.Kind)
	assert.Equal(t, ScopeFunction, findBinding(t, tree, "local").Scope.Kind)
}

func TestParse_MethodNamesAreNotBindings(t *testing.T) {
	tree := mustParse(t, `class Foo { bar() {} static baz(qux) { return qux; } }`)
	names := bindingNames(tree)
	assert.Contains(t, names, "Foo")
	assert.Contains(t, names, "qux")
	assert.NotContains(t, names, "bar")
	assert.NotContains(t, names, "baz")
}

func TestParse_ObjectKeysAreNotBindings(t *testing.T) {
	tree := mustParse(t, `const o = { width: 1, height: 2 }; o.width = 3;`)
	assert.Equal(t, []string{"o"}, bindingNames(tree))
}

func TestParse_ImportsAreNotBindings(t *testing.T) {
	tree := mustParse(t, `import { readFile } from "fs";
const data = readFile("x");
`)
	assert.Equal(t, []string{"data"}, bindingNames(tree))
}

func TestParse_DestructuringPatterns(t *testing.T) {
	tree := mustParse(t, `const src = {};
const {a, b: renamed, c = 5, ...rest} = src;
const [first, , second = 2, ...tail] = [];
`)
	assert.ElementsMatch(t,
		[]string{"src", "a", "renamed", "c", "rest", "first", "second", "tail"},
		bindingNames(tree))
}

func TestParse_VarHoistsToFunctionScope(t *testing.T) {
	tree := mustParse(t, `function f(flag) {
  if (flag) { var deep = 1; }
  return deep;
}
`)
	deep := findBinding(t, tree, "deep")
	assert.Equal(t, ScopeFunction, deep.Scope.Kind)
	// Declaration plus the return reference.
	assert.Len(t, deep.RefSpans(), 2)
}

func TestParse_RedeclaredVarMergesIntoOneBinding(t *testing.T) {
	tree := mustParse(t, `var a = 1; var a = 2; a = 3;`)
	require.Equal(t, []string{"a"}, bindingNames(tree))
	// Two declaration sites and one assignment.
	assert.Len(t, findBinding(t, tree, "a").RefSpans(), 3)
}

func TestParse_SyntaxErrorIsParseError(t *testing.T) {
	_, err := Parse(context.Background(), []byte("const = ;"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestScope_HasBindingWalksChain(t *testing.T) {
	tree := mustParse(t, `const outer = 1;
function f(inner) { return inner + outer; }
`)
	inner := findBinding(t, tree, "inner")
	assert.True(t, inner.Scope.HasBinding("inner"))
	assert.True(t, inner.Scope.HasBinding("outer"))
	assert.False(t, inner.Scope.HasBinding("missing"))
	assert.Same(t, findBinding(t, tree, "outer"), inner.Scope.GetBinding("outer"))
}

func TestShadowing_ReferencesResolveInnermost(t *testing.T) {
	tree := mustParse(t, `const v = 1;
function f() { const v = 2; return v; }
function g() { return v; }
`)
	var outer, inner *Binding
	for _, b := range tree.Bindings() {
		if b.Name != "v" {
			continue
		}
		if b.Scope.Kind == ScopeProgram {
			outer = b
		} else {
			inner = b
		}
	}
	require.NotNil(t, outer)
	require.NotNil(t, inner)
	// Each v has its declaration plus exactly one reference.
	assert.Len(t, outer.RefSpans(), 2)
	assert.Len(t, inner.RefSpans(), 2)

	require.NoError(t, tree.Rename(outer, "outerValue"))
	assert.Equal(t, `const outerValue = 1;
function f() { const v = 2; return v; }
function g() { return outerValue; }
`, tree.Print())
}

func TestParse_ForLoopBindings(t *testing.T) {
	tree := mustParse(t, `const items = [1, 2];
for (let i = 0; i < items.length; i++) { use(items[i]); }
for (const item of items) { use(item); }
for (var key in items) { use(key); }
`)
	assert.ElementsMatch(t, []string{"items", "i", "item", "key"}, bindingNames(tree))
	assert.Equal(t, ScopeBlock, findBinding(t, tree, "i").Scope.Kind)
	assert.Equal(t, ScopeBlock, findBinding(t, tree, "item").Scope.Kind)
	// var hoists out of the loop head.
	assert.Equal(t, ScopeProgram, findBinding(t, tree, "key").Scope.Kind)
}
