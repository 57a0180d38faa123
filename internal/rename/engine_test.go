package rename

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"humanify/internal/jsast"
)

// recordingVisitor captures every call and answers from fn.
type recordingVisitor struct {
	mu    sync.Mutex
	calls [][]string
	fn    func(name string) string
}

func (v *recordingVisitor) visit(_ context.Context, names []string, _ string) (map[string]string, error) {
	v.mu.Lock()
	v.calls = append(v.calls, append([]string(nil), names...))
	v.mu.Unlock()
	out := make(map[string]string, len(names))
	for _, n := range names {
		out[n] = v.fn(n)
	}
	return out, nil
}

func identityVisitor(_ context.Context, names []string, _ string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, n := range names {
		out[n] = n
	}
	return out, nil
}

func testOptions() Options {
	return DefaultOptions(4000)
}

func TestRename_SingleBinding(t *testing.T) {
	v := &recordingVisitor{fn: func(string) string { return "b" }}
	out, err := Rename(context.Background(), `const a = 1;`, v.visit, testOptions())
	require.NoError(t, err)
	assert.Equal(t, `const b = 1;`, out)
}

func TestRename_CollisionTakesSuffix(t *testing.T) {
	v := &recordingVisitor{fn: func(string) string { return "foo" }}
	out, err := Rename(context.Background(), `const a=1; const b=1;`, v.visit, testOptions())
	require.NoError(t, err)
	// The second binding takes the deterministically disambiguated suffix.
	assert.Equal(t, `const foo=1; const foo1=1;`, out)
}

func TestRename_MethodNamesUntouched(t *testing.T) {
	v := &recordingVisitor{fn: func(name string) string { return "_" + name }}
	out, err := Rename(context.Background(), `class Foo { bar() {} }`, v.visit, testOptions())
	require.NoError(t, err)
	assert.Equal(t, `class _Foo { bar() {} }`, out)
	for _, call := range v.calls {
		assert.NotContains(t, call, "bar")
	}
}

func TestRename_ArgumentsPseudoBindingUntouched(t *testing.T) {
	v := &recordingVisitor{fn: func(string) string { return "foobar" }}
	out, err := Rename(context.Background(), `function foo(){ arguments = "x"; }`, v.visit, testOptions())
	require.NoError(t, err)
	assert.Equal(t, `function foobar(){ arguments = "x"; }`, out)
}

func TestRename_MergingNeverCrossesFunctionBoundaries(t *testing.T) {
	source := `function one(){const a=1;return a}
function two(){const b=2;return b}
`
	v := &recordingVisitor{fn: func(name string) string { return name + "Val" }}
	opts := testOptions()
	opts.SmallScopeMergeLimit = 2
	opts.BatchConcurrency = 1
	_, err := Rename(context.Background(), source, v.visit, opts)
	require.NoError(t, err)

	// Locals of different functions never share an LLM call; the sibling
	// function names at program level do share one.
	require.GreaterOrEqual(t, len(v.calls), 2)
	sawSiblings := false
	for _, call := range v.calls {
		hasA := contains(call, "a")
		hasB := contains(call, "b")
		assert.False(t, hasA && hasB, "locals of different functions merged: %v", call)
		if hasA || hasB {
			assert.Len(t, call, 1)
		}
		if contains(call, "one") && contains(call, "two") {
			sawSiblings = true
		}
	}
	assert.True(t, sawSiblings, "sibling functions should batch together: %v", v.calls)
}

func TestRename_EmptyCatchParameterSkipped(t *testing.T) {
	source := `const data = 1; try{ use(data); }catch(z){}`
	v := &recordingVisitor{fn: func(name string) string { return name + "X" }}
	out, err := Rename(context.Background(), source, v.visit, testOptions())
	require.NoError(t, err)
	assert.Equal(t, `const dataX = 1; try{ use(dataX); }catch(z){}`, out)
	for _, call := range v.calls {
		assert.NotContains(t, call, "z")
	}
}

func TestRename_IdentityVisitorIsNoop(t *testing.T) {
	source := `const config = {};
function setup(options) {
  const merged = Object.assign({}, config, options);
  return merged;
}
class Runner { run(task) { return task; } }
`
	out, err := Rename(context.Background(), source, identityVisitor, testOptions())
	require.NoError(t, err)
	assert.Equal(t, source, out)
}

func TestRename_DeterministicWithSerialVisitor(t *testing.T) {
	source := `function p(q){const r=q+1;return r}
const s = p(2);
use(s);
`
	run := func() string {
		v := &recordingVisitor{fn: func(name string) string { return "n" + name }}
		out, err := Rename(context.Background(), source, v.visit, testOptions())
		require.NoError(t, err)
		return out
	}
	assert.Equal(t, run(), run())
}

func TestRename_ConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Options)
	}{
		{"zero context window", func(o *Options) { o.ContextWindowSize = 0 }},
		{"zero batch size", func(o *Options) { o.MaxBatchSize = 0 }},
		{"negative batch size", func(o *Options) { o.MaxBatchSize = -1 }},
		{"zero concurrency", func(o *Options) { o.BatchConcurrency = 0 }},
		{"negative merge limit", func(o *Options) { o.SmallScopeMergeLimit = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := testOptions()
			tc.mut(&opts)
			_, err := Rename(context.Background(), `const a = 1;`, identityVisitor, opts)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
		})
	}

	t.Run("nil visitor", func(t *testing.T) {
		_, err := Rename(context.Background(), `const a = 1;`, nil, testOptions())
		var ce *ConfigError
		require.ErrorAs(t, err, &ce)
	})
}

func TestRename_ParseErrorPropagates(t *testing.T) {
	_, err := Rename(context.Background(), `const = ;`, identityVisitor, testOptions())
	var pe *jsast.ParseError
	require.ErrorAs(t, err, &pe)
}

func TestRename_VisitorErrorNoopsBatch(t *testing.T) {
	source := `const a = 1; use(a);`
	failing := func(context.Context, []string, string) (map[string]string, error) {
		return nil, errors.New("model unavailable")
	}
	out, err := Rename(context.Background(), source, failing, testOptions())
	require.NoError(t, err)
	assert.Equal(t, source, out)
}

func TestRename_NormalizesSuggestions(t *testing.T) {
	v := &recordingVisitor{fn: func(string) string { return "my value!" }}
	out, err := Rename(context.Background(), `const a = 1;`, v.visit, testOptions())
	require.NoError(t, err)
	assert.Equal(t, `const myvalue = 1;`, out)
}

func TestRename_ReservedWordGetsUnderscore(t *testing.T) {
	v := &recordingVisitor{fn: func(string) string { return "class" }}
	out, err := Rename(context.Background(), `const a = 1;`, v.visit, testOptions())
	require.NoError(t, err)
	assert.Equal(t, `const _class = 1;`, out)
}

func TestRename_AvoidsBuiltinGlobals(t *testing.T) {
	v := &recordingVisitor{fn: func(string) string { return "window" }}
	out, err := Rename(context.Background(), `const a = 1;`, v.visit, testOptions())
	require.NoError(t, err)
	assert.Equal(t, `const window1 = 1;`, out)
}

func TestRename_ProgressMonotoneAndFinishesAtOne(t *testing.T) {
	source := `function one(){const a=1;return a}
function two(){const b=2;return b}
`
	var fractions []float64
	opts := testOptions()
	opts.OnProgress = func(f float64) { fractions = append(fractions, f) }
	_, err := Rename(context.Background(), source, identityVisitor, opts)
	require.NoError(t, err)
	require.NotEmpty(t, fractions)
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1])
	}
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
	// Exactly one terminal call with 1.
	ones := 0
	for _, f := range fractions {
		if f == 1 {
			ones++
		}
	}
	assert.Equal(t, 1, ones)
}

func TestRename_ConcurrentCohortsApplyInLaunchOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	var sb strings.Builder
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&sb, "function f%d(){const v%d=%d;compute(v%d);return v%d}\n", i, i, i, i, i)
	}
	source := sb.String()

	slowVisitor := func(_ context.Context, names []string, _ string) (map[string]string, error) {
		time.Sleep(time.Duration(len(names[0])) * time.Millisecond)
		out := make(map[string]string, len(names))
		for _, n := range names {
			out[n] = "shared"
		}
		return out, nil
	}

	run := func(concurrency int) string {
		opts := testOptions()
		opts.BatchConcurrency = concurrency
		opts.UniqueNames = true
		opts.SmallScopeMergeLimit = 0
		out, err := Rename(context.Background(), source, slowVisitor, opts)
		require.NoError(t, err)
		return out
	}

	serial := run(1)
	concurrent := run(4)
	// Renames apply in launch order regardless of completion order, so the
	// disambiguation suffixes land identically.
	assert.Equal(t, serial, concurrent)
}

func TestRename_EmptySourceCompletes(t *testing.T) {
	done := false
	opts := testOptions()
	opts.OnProgress = func(f float64) { done = f == 1 }
	out, err := Rename(context.Background(), "", identityVisitor, opts)
	require.NoError(t, err)
	assert.Equal(t, "", out)
	assert.True(t, done)
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
