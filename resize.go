package tal

import (
	"unsafe"

	pkgerrors "github.com/pkg/errors"
)

// AllocArray creates a new node sized for count elements of elemSize
// bytes, recording a LENGTH property so Count/Resize can track it
// (spec.md §4.4). The size*count multiplication is checked for overflow
// before any allocation is attempted.
func (c *Context) AllocArray(parent *Node, elemSize, count int, opts ...AllocOption) (*Node, error) {
	if c == nil {
		return nil, ErrNilContext
	}
	if mulOverflows(uint64(elemSize), uint64(count)) {
		c.reportOverflow("tal: alloc_array size*count overflow")
		return nil, ErrOverflow
	}

	n, err := c.Alloc(parent, elemSize*count, opts...)
	if err != nil {
		return nil, err
	}

	n.hasLength = true
	n.length = lengthProperty{elemSize: elemSize, count: count}
	return n, nil
}

// Count returns n's recorded element count, or 0 if it has none.
func Count(n *Node) int {
	if n == nil || !n.hasLength {
		return 0
	}
	return n.length.count
}

// Resize changes n's payload to hold newCount elements of elemSize bytes,
// delegating the byte-level work to the Context's Backend. If n already
// carried a LENGTH property, the new count replaces it; if the backend
// relocates the underlying buffer, MOVE fires with the old base address
// as info, followed by RESIZE with the new byte size.
//
// Because a *Node's own identity never moves in Go, the sibling/CHILDREN
// back-pointer repair spec.md §4.4 describes for a relocated node is
// vacuous here — see DESIGN.md "Open Question decisions" #5.
func (c *Context) Resize(n *Node, elemSize, newCount int) error {
	if n == nil {
		return ErrNilContext
	}
	if mulOverflows(uint64(elemSize), uint64(newCount)) {
		c.reportOverflow("tal: resize size*count overflow")
		return ErrOverflow
	}

	newSize := elemSize * newCount
	hadLength := n.hasLength

	var oldBase unsafe.Pointer
	if len(n.payload) > 0 {
		oldBase = unsafe.Pointer(&n.payload[0])
	}

	resized, moved, err := c.backend.Resize(n.payload, newSize)
	if err != nil {
		c.reportAlloc(err)
		return pkgerrors.Wrap(err, "tal: resize")
	}
	n.payload = resized

	if hadLength {
		n.length = lengthProperty{elemSize: elemSize, count: newCount}
	}

	if moved && c.nonFreeNotifiers > 0 {
		c.fire(n, EventMove, oldBase)
	}
	if c.nonFreeNotifiers > 0 {
		c.fire(n, EventResize, newSize)
	}
	return nil
}

// Expand grows n by addedCount elements of elemSize bytes and copies src
// into the newly added tail. oldCount+addedCount is checked for overflow,
// and src must not alias the region being grown.
func (c *Context) Expand(n *Node, src []byte, elemSize, addedCount int) error {
	if n == nil {
		return ErrNilContext
	}
	oldCount := Count(n)
	if addOverflows(uint64(oldCount), uint64(addedCount)) {
		c.reportOverflow("tal: expand old+added overflow")
		return ErrOverflow
	}
	if aliases(n.payload, src) {
		return ErrAliasedSource
	}

	newCount := oldCount + addedCount
	if err := c.Resize(n, elemSize, newCount); err != nil {
		return err
	}

	copy(n.payload[oldCount*elemSize:], src[:addedCount*elemSize])
	return nil
}

func aliases(dst, src []byte) bool {
	if len(dst) == 0 || len(src) == 0 {
		return false
	}
	dp := uintptr(unsafe.Pointer(&dst[0]))
	sp := uintptr(unsafe.Pointer(&src[0]))
	dEnd := dp + uintptr(len(dst))
	sEnd := sp + uintptr(len(src))
	return sp < dEnd && dp < sEnd
}

// Dup creates a new array-allocation under parent of n+extra elements,
// copying the first n*elemSize bytes from src. If src was handed in as a
// "taken" pointer (see taken), the operation is optimized into a
// resize-in-place and steal instead of a fresh allocation and copy
// (spec.md §4.4).
func (c *Context) Dup(parent *Node, src []byte, elemSize, n, extra int, addCount bool, label string) (*Node, error) {
	if owner, ok := c.taken.Owner(src).(*Node); ok && owner != nil {
		if err := c.Resize(owner, elemSize, n+extra); err != nil {
			c.taken.Fail(src)
			return nil, err
		}
		if err := c.Steal(parent, owner); err != nil {
			c.taken.Fail(src)
			return nil, err
		}
		c.taken.Release(src)
		return owner, nil
	}

	total := n + extra
	var opts []AllocOption
	if label != "" {
		opts = append(opts, WithLabel(label))
	}

	var node *Node
	var err error
	if addCount {
		node, err = c.AllocArray(parent, elemSize, total, opts...)
	} else {
		if mulOverflows(uint64(elemSize), uint64(total)) {
			c.reportOverflow("tal: dup size*count overflow")
			return nil, ErrOverflow
		}
		node, err = c.Alloc(parent, elemSize*total, opts...)
	}
	if err != nil {
		return nil, err
	}

	copy(node.payload, src[:n*elemSize])
	return node, nil
}
