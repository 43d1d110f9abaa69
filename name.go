package tal

// SetName replaces n's NAME property. When literal is true, the caller
// asserts the string is already stable for the node's lifetime — the
// spec's "splice the caller-owned string pointer onto the property list"
// fast path — so no extra copy is made (moot for Go's immutable,
// GC-owned strings, but the flag is kept so the observable contract in
// spec.md §4.5, §8 scenario S4 still holds: repeated SetName doesn't leak
// and a literal name shadows a nonexistent NAME lookup the same way).
func (n *Node) SetName(name string, literal bool) error {
	if n == nil {
		return ErrNilContext
	}

	n.hasName = name != "" || literal
	n.literal = literal && name != ""
	n.name = name

	if n.ctx.nonFreeNotifiers > 0 {
		n.ctx.fire(n, EventRename, name)
	}
	return nil
}

// Name returns n's recorded name, or "" if none is set.
func (n *Node) Name() string {
	if n == nil || !n.hasName {
		return ""
	}
	return n.name
}

// IsLiteralName reports whether the current name was set with
// literal=true.
func (n *Node) IsLiteralName() bool {
	return n != nil && n.hasName && n.literal
}
