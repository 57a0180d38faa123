package jsast

import (
	"fmt"
	"sort"
	"strings"
)

// edit is a pending replacement of an original byte range.
type edit struct {
	start, end uint32
	text       string
}

// Insert is a rendering-time insertion at an original byte offset. Inserts
// never modify the buffer; they exist so callers can decorate rendered slices
// (marker comments) without touching the tree.
type Insert struct {
	At   uint32
	Text string
}

// EditBuffer accumulates non-overlapping replacements against an immutable
// original source and renders the current text of any original span. All
// offsets are original byte offsets; they stay valid for the lifetime of one
// parse no matter how many edits are applied.
type EditBuffer struct {
	src   []byte
	edits []edit // sorted by start, pairwise disjoint
}

// NewEditBuffer wraps src. The buffer never mutates src.
func NewEditBuffer(src []byte) *EditBuffer {
	return &EditBuffer{src: src}
}

// Replace records a replacement of src[start:end] with text.
// Overlapping an existing edit is a caller bug and returns an error.
func (b *EditBuffer) Replace(start, end uint32, text string) error {
	if start > end || int(end) > len(b.src) {
		return fmt.Errorf("edit span [%d,%d) out of range (len %d)", start, end, len(b.src))
	}
	i := sort.Search(len(b.edits), func(i int) bool { return b.edits[i].start >= start })
	if i > 0 && b.edits[i-1].end > start {
		return fmt.Errorf("edit at [%d,%d) overlaps existing edit at [%d,%d)", start, end, b.edits[i-1].start, b.edits[i-1].end)
	}
	if i < len(b.edits) && b.edits[i].start < end {
		return fmt.Errorf("edit at [%d,%d) overlaps existing edit at [%d,%d)", start, end, b.edits[i].start, b.edits[i].end)
	}
	b.edits = append(b.edits, edit{})
	copy(b.edits[i+1:], b.edits[i:])
	b.edits[i] = edit{start: start, end: end, text: text}
	return nil
}

// Len returns the length of the original source.
func (b *EditBuffer) Len() int { return len(b.src) }

// String renders the full current text.
func (b *EditBuffer) String() string {
	return b.Slice(0, uint32(len(b.src)))
}

// Slice renders the current text of the original span [start, end). Edits
// partially outside the span are ignored; in practice edits are identifier
// spans and never straddle a node boundary.
func (b *EditBuffer) Slice(start, end uint32) string {
	return b.SliceWith(start, end, nil)
}

// SliceWith renders the current text of [start, end) with extra insertions
// spliced in at their original offsets. Inserts at the boundary of an edit
// land after the edit's replacement text.
func (b *EditBuffer) SliceWith(start, end uint32, inserts []Insert) string {
	ins := make([]Insert, 0, len(inserts))
	for _, in := range inserts {
		if in.At >= start && in.At <= end {
			ins = append(ins, in)
		}
	}
	sort.SliceStable(ins, func(i, j int) bool { return ins[i].At < ins[j].At })

	var sb strings.Builder
	pos := start
	emitThrough := func(upto uint32) {
		for len(ins) > 0 && ins[0].At <= upto {
			sb.WriteString(ins[0].Text)
			ins = ins[1:]
		}
	}
	for _, e := range b.edits {
		if e.end <= start || e.start >= end {
			continue
		}
		if e.start < start || e.end > end {
			continue
		}
		for len(ins) > 0 && ins[0].At < e.start {
			sb.Write(b.src[pos:ins[0].At])
			pos = ins[0].At
			sb.WriteString(ins[0].Text)
			ins = ins[1:]
		}
		sb.Write(b.src[pos:e.start])
		sb.WriteString(e.text)
		pos = e.end
		emitThrough(e.end)
	}
	for len(ins) > 0 && ins[0].At < end {
		sb.Write(b.src[pos:ins[0].At])
		pos = ins[0].At
		sb.WriteString(ins[0].Text)
		ins = ins[1:]
	}
	sb.Write(b.src[pos:end])
	emitThrough(end)
	return sb.String()
}
