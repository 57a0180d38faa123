package jsast

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// BenchmarkParse measures parse plus scope graph construction on a
// minified-looking input.
func BenchmarkParse(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "function f%d(a,b){var c=a+b;return c*%d}", i, i)
	}
	source := []byte(sb.String())
	b.SetBytes(int64(len(source)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree, err := Parse(context.Background(), source)
		if err != nil {
			b.Fatal(err)
		}
		tree.Close()
	}
}

func BenchmarkRename(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&sb, "var g%d=%d;use(g%d);", i, i, i)
	}
	source := []byte(sb.String())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		tree, err := Parse(context.Background(), source)
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()
		for _, bind := range tree.Bindings() {
			if err := tree.Rename(bind, "renamed"+bind.OriginalName); err != nil {
				b.Fatal(err)
			}
		}
		_ = tree.Print()
		b.StopTimer()
		tree.Close()
	}
}
