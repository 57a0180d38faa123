package jsast

import "fmt"

// Rename rewrites a binding's declaration and every reference that resolves
// to it. Shadowed uses of the same name belong to other bindings and are
// untouched: references were resolved against the scope graph at parse time.
//
// Shorthand sites expand textually so the property name survives:
//
//	{a}            -> {a: newName}
//	const {a} = o  -> const {a: newName} = o
//	export {a}     -> export {newName as a}
//
// The target scope's binding table is rekeyed so later HasBinding checks see
// the new name. Callers are responsible for collision policy.
func (t *Tree) Rename(b *Binding, newName string) error {
	if newName == "" || newName == b.Name {
		return nil
	}
	for _, r := range b.refs {
		var text string
		switch r.shorthand {
		case shorthandObject, shorthandPattern:
			text = t.TextSpan(r.span) + ": " + newName
		case shorthandExport:
			text = newName + " as " + t.TextSpan(r.span)
		default:
			text = newName
		}
		if err := t.buf.Replace(r.span.Start, r.span.End, text); err != nil {
			return fmt.Errorf("rename %s -> %s: %w", b.Name, newName, err)
		}
	}
	if cur, ok := b.Scope.bindings[b.Name]; ok && cur == b {
		delete(b.Scope.bindings, b.Name)
	}
	b.Scope.bindings[newName] = b
	b.Name = newName
	return nil
}
