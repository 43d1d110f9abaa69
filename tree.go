package tal

import (
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/x-lugoo/tal/internal/stack"
)

var errSimulatedAttachFailure = errors.New("tal: simulated attach failure (test seam)")

// allocConfig is shared by Alloc/AllocArray.
type allocConfig struct {
	clear   bool
	literal string
}

// AllocOption configures a single Alloc/AllocArray/Dup call.
type AllocOption func(*allocConfig)

// WithClear zeroes the payload explicitly. The default backend already
// returns zeroed memory, but a pooled or arena backend may not, so this
// option is meaningful with those.
func WithClear() AllocOption {
	return func(c *allocConfig) { c.clear = true }
}

// WithLabel attaches a name to the node at allocation time, the
// "literal" fast path of spec.md §4.1: the name is recorded without a
// later SetName call.
func WithLabel(label string) AllocOption {
	return func(c *allocConfig) { c.literal = label }
}

func applyAllocOptions(opts []AllocOption) allocConfig {
	var cfg allocConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Alloc creates a new node of size bytes under parent (or this Context's
// sentinel, if parent is nil).
func (c *Context) Alloc(parent *Node, size int, opts ...AllocOption) (*Node, error) {
	if c == nil {
		return nil, ErrNilContext
	}

	cfg := applyAllocOptions(opts)
	p := c.resolveParent(parent)

	payload, err := c.backend.Allocate(size)
	if err != nil {
		c.reportAlloc(err)
		return nil, pkgerrors.Wrap(err, "tal: alloc")
	}
	if cfg.clear {
		for i := range payload {
			payload[i] = 0
		}
	}

	n := &Node{ctx: c, payload: payload}
	if cfg.literal != "" {
		n.hasName = true
		n.literal = true
		n.name = cfg.literal
	}

	c.addChild(p, n)
	if c.nonFreeNotifiers > 0 {
		c.fire(p, EventAddChild, n)
	}
	return n, nil
}

// addChild links child into parent's child list. In this Go realization
// there is no separately heap-allocated CHILDREN property to fail to
// allocate (see Steal below for the consequence), so addChild cannot
// fail; addChildChecked exists purely to give Steal's bounded recovery
// path something to call.
func (c *Context) addChild(parent, child *Node) {
	parent.hasChildrenProperty = true
	child.parent = parent
	child.prevSibling = nil
	child.nextSibling = parent.firstChild
	if parent.firstChild != nil {
		parent.firstChild.prevSibling = child
	}
	parent.firstChild = child
}

func (c *Context) addChildChecked(parent, child *Node) error {
	if c.debugFailAttach {
		return errSimulatedAttachFailure
	}
	c.addChild(parent, child)
	return nil
}

func (c *Context) detach(n *Node) {
	if n.prevSibling != nil {
		n.prevSibling.nextSibling = n.nextSibling
	} else if n.parent != nil {
		n.parent.firstChild = n.nextSibling
	}
	if n.nextSibling != nil {
		n.nextSibling.prevSibling = n.prevSibling
	}
	n.prevSibling = nil
	n.nextSibling = nil
}

// Free recursively destroys n and its whole subtree. Free(nil) is a
// no-op. errno is saved on entry and restored on exit (spec.md §4.2,
// §7) — see errno.go for what "errno" means in a Go process.
func (c *Context) Free(n *Node) {
	if n == nil {
		return
	}

	saved := currentErrno
	defer func() { currentErrno = saved }()

	if n.parent != nil && c.nonFreeNotifiers > 0 {
		c.fire(n.parent, EventDelChild, n)
	}
	c.detach(n)
	c.delTree(n)
}

// delTree tears n and its descendants down iteratively, using an
// explicit stack rather than Go call-stack recursion (spec.md §9
// "Re-entrancy discipline": children are re-read from the live list at
// the moment each node is popped, so a destructor that mutates the tree
// — frees a sibling, adds a child — is tolerated correctly). The
// destroying bit absorbs re-entrant Free of the node currently being torn
// down (spec.md §3.2 invariant #5, §4.2 "cycle/re-entry guard").
func (c *Context) delTree(root *Node) {
	pending := stack.New[*Node](8)
	pending.Push(root)

	for !pending.Empty() {
		n := pending.Pop()
		if n.destroying {
			continue
		}
		n.destroying = true

		c.fire(n, EventFree, nil)

		var children []*Node
		for ch := n.firstChild; ch != nil; ch = ch.nextSibling {
			children = append(children, ch)
		}
		for i := len(children) - 1; i >= 0; i-- {
			pending.Push(children[i])
		}

		// Release n's own backend-owned storage. The default and mmap-arena
		// Backends never hand this buffer back out before the whole tree
		// finishes tearing down, so doing this up front rather than after
		// n's children (as spec.md's recursive post-order phrasing has it)
		// is observably identical for any Backend this module ships; a
		// Backend that recycles freed storage synchronously would need the
		// two-phase (children-first) variant instead.
		if err := c.backend.Free(n.payload); err != nil {
			c.reportAlloc(err)
		}
	}
}

// Steal reparents n under newParent (or this Context's sentinel, if
// newParent is nil). Steal(p, steal(q, x)) leaves x parented at p with
// exactly one STEAL notification per call (spec.md §8 invariant #9).
func (c *Context) Steal(newParent, n *Node) error {
	if n == nil {
		return nil
	}

	np := c.resolveParent(newParent)
	if n.parent == np {
		// steal(parent(x), x) is a no-op on tree shape, observable only
		// as one STEAL event (spec.md §8 "Round-trip / idempotence").
		c.fire(n, EventSteal, np)
		return nil
	}

	old := n.parent
	c.detach(n)

	if err := c.addChildChecked(np, n); err != nil {
		// Bounded local recovery (spec.md §7): re-attach to the old
		// parent, which cannot itself fail because it already owns a
		// CHILDREN property.
		c.addChild(old, n)
		return pkgerrors.Wrap(err, "tal: steal failed, restored previous parent")
	}

	c.fire(n, EventSteal, np)
	return nil
}

// First returns root's first child, or the first child of Default's
// sentinel if root is nil.
func First(root *Node) *Node {
	if root == nil {
		return Default.sentinel.firstChild
	}
	return root.firstChild
}

// Next returns the next node in depth-first pre-order confined to the
// subtree rooted at root (or the whole sentinel forest of prev's Context,
// if root is nil),
// continuing the walk from prev. It is restartable and non-recursive.
func Next(root, prev *Node) *Node {
	if prev == nil {
		return nil
	}
	anchor := root
	if anchor == nil {
		anchor = prev.ctx.sentinel
	}

	if prev.firstChild != nil {
		return prev.firstChild
	}

	for cur := prev; cur != anchor; cur = cur.parent {
		if cur == nil {
			return nil
		}
		if cur.nextSibling != nil {
			return cur.nextSibling
		}
	}
	return nil
}

// Parent returns n's recorded parent, mapping the sentinel to nil
// (spec.md §3.2 invariant #6: "any real node whose recorded parent is the
// sentinel is reported as parentless").
func Parent(n *Node) *Node {
	if n == nil {
		return nil
	}
	if n.parent == nil || n.parent == n.parent.ctx.sentinel {
		return nil
	}
	return n.parent
}
