package rename

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func judgeFor(t *testing.T, source string) (*skipJudge, func(string) bool) {
	t.Helper()
	tree := parseTree(t, source)
	j := newSkipJudge(tree)
	return j, func(name string) bool {
		return j.shouldSkip(bindingByName(t, tree, name))
	}
}

func TestSkip_EmptyCatchParameter(t *testing.T) {
	_, skip := judgeFor(t, `try{ work(); }catch(z){}`)
	assert.True(t, skip("z"))
}

func TestSkip_NonEmptyCatchParameterKept(t *testing.T) {
	_, skip := judgeFor(t, `function guard() { try{ work(); }catch(z){ report(z); } }`)
	assert.False(t, skip("z"))
}

func TestSkip_TrivialDeclarators(t *testing.T) {
	_, skip := judgeFor(t, `function holder() {
  filler(1); filler(2); filler(3); filler(4);
  const e = "";
  const o = {};
  const l = [];
  const real = compute(e, o, l);
  return real;
}
`)
	assert.True(t, skip("e"))
	assert.True(t, skip("o"))
	assert.True(t, skip("l"))
	assert.False(t, skip("real"))
}

func TestSkip_EmptyFunctionForms(t *testing.T) {
	_, skip := judgeFor(t, `function stub(){}
function unary(x){}
function busy(y){ return y * 2; }
class Hollow {}
class Solid { work() { return 1; } }
`)
	assert.True(t, skip("stub"))
	assert.True(t, skip("unary"))
	assert.True(t, skip("x"))
	assert.False(t, skip("busy"))
	assert.True(t, skip("Hollow"))
	assert.False(t, skip("Solid"))
}

func TestSkip_TinyNonProgramScope(t *testing.T) {
	_, skip := judgeFor(t, `const pick = (x) => x;
use(pick, pick, pick, pick);
`)
	// The arrow's whole scope is under ten meaningful characters.
	assert.True(t, skip("x"))
	assert.False(t, skip("pick"))
}

func TestSkip_ProgramScopeExemptFromTinyRule(t *testing.T) {
	_, skip := judgeFor(t, `const a = 1;`)
	assert.False(t, skip("a"))
}

func TestSkip_Memoizes(t *testing.T) {
	j, skip := judgeFor(t, `try{ work(); }catch(z){}`)
	require.True(t, skip("z"))
	require.True(t, skip("z"))
	assert.Len(t, j.memo, 1)
}
