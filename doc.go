// Package tal implements a hierarchical allocation tree: every node is
// attached to a parent node, forming a forest rooted at a per-Context
// sentinel. Freeing a node recursively frees its whole subtree. Nodes may
// carry a name, a recorded element count, destructors, and change
// notifiers, and may be reparented ("stolen") or resized in place.
//
// The package is single-threaded by contract — see Context for the
// concurrency notes. Re-entrancy within a single goroutine is supported:
// a destructor or notifier may freely allocate, free, steal, resize, or
// add/remove notifiers on any node, including its own.
package tal
