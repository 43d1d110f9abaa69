package tal

// Node is one allocation's metadata plus its payload. Unlike the C
// original, a *Node is a single GC-tracked Go object: there is no
// header/payload adjacency trick to replicate (see DESIGN.md, "Open
// Question decisions" #4) and a Node's own address never moves, only its
// payload slice's backing array might (see resize.go).
type Node struct {
	ctx *Context

	parent      *Node
	firstChild  *Node
	nextSibling *Node
	prevSibling *Node

	// hasChildrenProperty mirrors the CHILDREN property: set the first
	// time a child is ever attached, and never cleared again even after
	// the last child is detached (spec.md §3.2 invariant #2).
	hasChildrenProperty bool

	// destroying is the "destroying bit" (spec.md §9): set for the
	// duration of this node's own del-tree pass, guarding against
	// re-entrant Free of the node currently being torn down.
	destroying bool

	hasName bool
	name    string
	literal bool

	hasLength bool
	length    lengthProperty

	// notifiers holds both general notifiers and destructors, ordered
	// most-recently-registered first (reverse-registration order), which
	// is also their fire order — spec.md §4.3 "Fire order".
	notifiers []*Notifier

	payload []byte
}

type lengthProperty struct {
	elemSize int
	count    int
}

// Context returns the Context this node belongs to.
func (n *Node) Context() *Context {
	return n.ctx
}

// Payload returns the node's current backing buffer. Mutating it in place
// is safe and does not itself trigger any notification; only Resize does.
func (n *Node) Payload() []byte {
	if n == nil {
		return nil
	}
	return n.payload
}

// PayloadLen returns the current backend-allocated payload length, as
// distinct from Count (the recorded element count) — see SPEC_FULL.md
// "Supplemented features" #1.
func (n *Node) PayloadLen() int {
	if n == nil {
		return 0
	}
	return len(n.payload)
}

// IsDestroying reports whether this node is currently mid-teardown.
func (n *Node) IsDestroying() bool {
	return n != nil && n.destroying
}

// Take marks n's own payload as taken (spec.md §6 "taken-pointer
// collaborator") and returns it. Passing the returned slice as Dup's src
// makes Dup consume n in place — resizing and stealing it onto the new
// parent instead of allocating fresh and copying. If Dup subsequently
// fails, the taken mark is released so n is left usable rather than
// silently orphaned.
func (n *Node) Take() []byte {
	if n == nil {
		return nil
	}
	n.ctx.taken.Mark(n.payload, n)
	return n.payload
}
