package rename

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"humanify/internal/jsast"
)

func noSkip(*jsast.Binding) bool { return false }

func groupNames(g *group) []string {
	out := make([]string, len(g.bindings))
	for i, b := range g.bindings {
		out[i] = b.Name
	}
	return out
}

func TestGroup_SortedSmallestScopeFirst(t *testing.T) {
	tree := parseTree(t, `const topLevel = 1;
function outer(arg) {
  const big = arg + topLevel;
  function inner(x) { return x; }
  return big + inner(2);
}
`)
	groups := groupBindings(tree.Bindings())
	require.NotEmpty(t, groups)
	// Sizes ascend; the program group comes last.
	for i := 1; i < len(groups); i++ {
		assert.LessOrEqual(t, groups[i-1].spanBytes(), groups[i].spanBytes())
	}
	last := groups[len(groups)-1]
	assert.Equal(t, jsast.ScopeProgram, last.scope.Kind)
	assert.ElementsMatch(t, []string{"topLevel", "outer"}, groupNames(last))
	// inner is declared inside outer, so it groups with outer's locals.
	for _, g := range groups {
		if g.scope.Kind == jsast.ScopeFunction && contains(groupNames(g), "big") {
			assert.Contains(t, groupNames(g), "inner")
		}
	}
}

func TestMerge_DisabledWithZeroLimit(t *testing.T) {
	tree := parseTree(t, `function f() { { let a = 1; use(a); } { let b = 2; use(b); } }`)
	groups := groupBindings(tree.Bindings())
	merged := mergeSmallGroups(groups, 0, 10, noSkip)
	assert.Equal(t, len(groups), len(merged))
}

func TestMerge_FoldsBlocksWithinOneFunction(t *testing.T) {
	tree := parseTree(t, `function f() { { let aaa = 1; use(aaa); } { let bbb = 2; use(bbb); } }`)
	groups := groupBindings(tree.Bindings())
	merged := mergeSmallGroups(groups, 2, 10, noSkip)
	var found bool
	for _, g := range merged {
		names := groupNames(g)
		if contains(names, "aaa") && contains(names, "bbb") {
			found = true
		}
	}
	assert.True(t, found, "sibling blocks in one function should merge: %v", merged)
}

func TestMerge_RejectsNameCollision(t *testing.T) {
	tree := parseTree(t, `function f() { { let x = 1; use(x); } { let x = 2; use(x); } }`)
	groups := groupBindings(tree.Bindings())
	merged := mergeSmallGroups(groups, 2, 10, noSkip)
	for _, g := range merged {
		names := map[string]int{}
		for _, n := range groupNames(g) {
			names[n]++
			assert.LessOrEqual(t, names[n], 1, "collision folded into one group")
		}
	}
}

func TestMerge_NeverCrossesFunctions(t *testing.T) {
	tree := parseTree(t, `function one(){const a=1;return a}
function two(){const b=2;return b}
`)
	groups := groupBindings(tree.Bindings())
	merged := mergeSmallGroups(groups, 2, 10, noSkip)
	for _, g := range merged {
		names := groupNames(g)
		assert.False(t, contains(names, "a") && contains(names, "b"),
			"locals of sibling functions merged: %v", names)
	}
}

func TestMerge_LargeGroupPassesThrough(t *testing.T) {
	tree := parseTree(t, `function f(p1, p2, p3) { return p1 + p2 + p3; }`)
	groups := groupBindings(tree.Bindings())
	merged := mergeSmallGroups(groups, 2, 10, noSkip)
	var fn *group
	for _, g := range merged {
		if contains(groupNames(g), "p1") {
			fn = g
		}
	}
	require.NotNil(t, fn)
	assert.ElementsMatch(t, []string{"p1", "p2", "p3"}, groupNames(fn))
}

func TestSplit_RespectsMaxBatchSize(t *testing.T) {
	tree := parseTree(t, `function f(q1, q2, q3, q4, q5) { return q1 + q2 + q3 + q4 + q5; }`)
	groups := groupBindings(tree.Bindings())
	batches := splitGroups(groups, 2)
	for _, b := range batches {
		assert.LessOrEqual(t, len(b.bindings), 2)
	}
	// In-group declaration order is preserved across the split.
	var flat []string
	for _, b := range batches {
		for _, bind := range b.bindings {
			if bind.Scope.Kind == jsast.ScopeFunction {
				flat = append(flat, bind.Name)
			}
		}
	}
	assert.Equal(t, []string{"q1", "q2", "q3", "q4", "q5"}, flat)
}

func TestBatch_CollapsesDuplicateNames(t *testing.T) {
	tree := parseTree(t, `var d = 1; use(d);`)
	b1 := tree.Bindings()[0]
	b := newBatch([]*jsast.Binding{b1, b1})
	assert.Len(t, b.bindings, 1)
	assert.Len(t, b.collapsed, 1)
	assert.Equal(t, 2, b.size())
}
