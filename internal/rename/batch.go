package rename

import "humanify/internal/jsast"

// batch is the unit of one visitor call: at most maxBatchSize bindings with
// pairwise distinct names. Duplicate names inside one chunk collapse onto the
// first occurrence; the dropped bindings are still marked visited when the
// batch applies.
type batch struct {
	bindings  []*jsast.Binding
	collapsed []*jsast.Binding
}

func (b *batch) names() []string {
	out := make([]string, len(b.bindings))
	for i, bind := range b.bindings {
		out[i] = bind.Name
	}
	return out
}

// size is the number of bindings this batch accounts for in progress terms.
func (b *batch) size() int { return len(b.bindings) + len(b.collapsed) }

// splitGroups yields batches of at most maxBatchSize bindings from each
// (possibly merged) group, preserving in-group declaration order.
func splitGroups(groups []*group, maxBatchSize int) []*batch {
	var out []*batch
	for _, g := range groups {
		for start := 0; start < len(g.bindings); start += maxBatchSize {
			end := start + maxBatchSize
			if end > len(g.bindings) {
				end = len(g.bindings)
			}
			out = append(out, newBatch(g.bindings[start:end]))
		}
	}
	return out
}

func newBatch(bindings []*jsast.Binding) *batch {
	b := &batch{}
	seen := make(map[string]bool, len(bindings))
	for _, bind := range bindings {
		if seen[bind.Name] {
			b.collapsed = append(b.collapsed, bind)
			continue
		}
		seen[bind.Name] = true
		b.bindings = append(b.bindings, bind)
	}
	return b
}
