package rename

import "humanify/internal/jsast"

// mergeSmallGroups coalesces adjacent small groups into larger batches so a
// function with one local each does not cost a full LLM round-trip. A group
// folds into the pending accumulator only when all of these hold:
//
//   - the group has at most limit bindings and none of them is skippable
//   - no name in the group collides with a name already accumulated
//   - the fold stays within maxBatchSize
//   - both sides share the same merge boundary (program/function/class)
//   - the group starts within mergeDistanceLimit bytes of the accumulator
//
// limit 0 disables merging entirely.
func mergeSmallGroups(groups []*group, limit, maxBatchSize int, skip func(*jsast.Binding) bool) []*group {
	if limit <= 0 {
		return groups
	}

	var out []*group
	var acc *group
	accNames := make(map[string]bool)

	flush := func() {
		if acc != nil {
			out = append(out, acc)
			acc = nil
			accNames = make(map[string]bool)
		}
	}

	hasSkippable := func(g *group) bool {
		for _, b := range g.bindings {
			if skip(b) {
				return true
			}
		}
		return false
	}

	for _, g := range groups {
		if len(g.bindings) > limit || hasSkippable(g) {
			flush()
			out = append(out, g)
			continue
		}
		if acc == nil {
			acc = &group{key: g.key, scope: g.scope, bindings: append([]*jsast.Binding(nil), g.bindings...)}
			for _, b := range g.bindings {
				accNames[b.Name] = true
			}
			continue
		}
		if !canFold(acc, accNames, g, maxBatchSize) {
			flush()
			acc = &group{key: g.key, scope: g.scope, bindings: append([]*jsast.Binding(nil), g.bindings...)}
			for _, b := range g.bindings {
				accNames[b.Name] = true
			}
			continue
		}
		acc.bindings = append(acc.bindings, g.bindings...)
		for _, b := range g.bindings {
			accNames[b.Name] = true
		}
	}
	flush()
	return out
}

func canFold(acc *group, accNames map[string]bool, g *group, maxBatchSize int) bool {
	if len(acc.bindings)+len(g.bindings) > maxBatchSize {
		return false
	}
	for _, b := range g.bindings {
		if accNames[b.Name] {
			return false
		}
	}
	if mergeBoundary(acc.scope) != mergeBoundary(g.scope) {
		return false
	}
	gFirst, accLast := g.firstDecl(), acc.lastDecl()
	var distance uint32
	if gFirst > accLast {
		distance = gFirst - accLast
	} else {
		distance = accLast - gFirst
	}
	return distance <= mergeDistanceLimit
}
