package tal

import (
	log "github.com/x-lugoo/tal/util/logger"

	"github.com/x-lugoo/tal/taken"
)

// Context encapsulates one allocator instance: its sentinel root, its
// pluggable Backend, its error hook, and the process-wide bookkeeping the
// original spec keeps as bare globals (spec.md §9 "Process-wide state").
// tal.Default is the package-level instance most callers use; build
// independent Contexts (NewContext) for tests that must not interfere
// with each other.
//
// Context is not safe for concurrent use — spec.md §5 Non-goals. Contexts
// share no tree state, but every Context's Free saves and restores the one
// package-wide errno value (errno.go), so concurrent use of separate
// Contexts also needs external serialization.
type Context struct {
	backend   Backend
	errorHook ErrorHook
	taken     *taken.Tracker

	sentinel *Node

	// nonFreeNotifiers counts notifiers across the whole Context whose
	// mask is not exactly {FREE}. It gates the ADD_CHILD/DEL_CHILD/MOVE/
	// RESIZE/RENAME/ADD_NOTIFIER/DEL_NOTIFIER fire sites so the common
	// case — nobody listening — skips dispatch (spec.md §4.3, and the
	// Open Question in spec.md §9 which this module keeps as-is).
	nonFreeNotifiers int

	// CheckEnabled gates Check: a no-op unless true, matching the C
	// original's debug-build-only invariant checker (spec.md §4.6).
	CheckEnabled bool

	// debugFailAttach is an internal test seam: see tree.go's Steal for
	// why attaching a child cannot fail under any real Backend in this
	// Go realization, and why Steal's recovery path still needs a way to
	// be exercised.
	debugFailAttach bool
}

// ContextOption configures a new Context, the same "plain options struct"
// shape the teacher uses for rbtree.Options/allocator.Options, reshaped
// as functional options since this is a library constructor rather than
// an Open(filename, *Options) call.
type ContextOption func(*Context)

// WithBackend overrides the default heap-backed Backend.
func WithBackend(b Backend) ContextOption {
	return func(c *Context) { c.backend = b }
}

// WithErrorHook overrides the default logging/aborting error hook.
func WithErrorHook(h ErrorHook) ContextOption {
	return func(c *Context) { c.errorHook = h }
}

// WithChecks enables the invariant checker for this Context.
func WithChecks() ContextOption {
	return func(c *Context) { c.CheckEnabled = true }
}

// NewContext builds an independent allocator context with its own
// sentinel root.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		backend:   defaultBackend{},
		errorHook: defaultErrorHook,
		taken:     taken.NewTracker(),
	}
	c.sentinel = &Node{ctx: c}
	c.sentinel.parent = c.sentinel // invariant #6: sentinel is its own parent
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Default is the package-wide Context most callers use, analogous to the
// C original's single process-wide sentinel plus backend function
// pointers.
var Default = NewContext()

// SetBackend replaces this Context's Backend. Per spec.md §4.6 and §7,
// replacing the backend while live allocations exist made by the
// previous backend is undefined: this module does not attempt to
// migrate existing nodes.
func (c *Context) SetBackend(b Backend) {
	c.backend = b
}

// SetErrorHook replaces this Context's error hook.
func (c *Context) SetErrorHook(h ErrorHook) {
	c.errorHook = h
}

// LiveNotifierCount exposes the internal non-FREE notifier counter for
// tests and diagnostics — SPEC_FULL.md "Supplemented features" #3.
func (c *Context) LiveNotifierCount() int {
	return c.nonFreeNotifiers
}

// Sentinel returns this Context's sentinel root node. It is never a
// valid target for Free, Steal, or any payload operation; it exists so
// First/Next/Parent can be implemented uniformly.
func (c *Context) Sentinel() *Node {
	return c.sentinel
}

func (c *Context) resolveParent(parent *Node) *Node {
	if parent == nil {
		return c.sentinel
	}
	return parent
}

// Close detaches (without recursively freeing) every node still parented
// at the sentinel, leaving Sentinel() with no children, and returns the
// detached nodes so the caller can inspect whatever this Context's owner
// never freed. This replaces the C original's process-exit cleanup hook
// (spec.md §4.2 "Add-child... register a process-exit cleanup that
// detaches every remaining sentinel child"): Go has no portable atexit,
// and the teacher's own Open/Close pairing (pkg/rbtree.Close,
// pkg/array.Close) is the idiomatic place to put this instead.
func (c *Context) Close() []*Node {
	var leaked []*Node
	for n := c.sentinel.firstChild; n != nil; {
		next := n.nextSibling
		leaked = append(leaked, n)
		n.parent = nil
		n.prevSibling = nil
		n.nextSibling = nil
		n = next
	}
	c.sentinel.firstChild = nil
	if len(leaked) > 0 {
		log.L.WithField("count", len(leaked)).Warn("tal: node(s) still attached to the sentinel at Close")
	}
	return leaked
}
