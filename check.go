package tal

import (
	"fmt"

	"github.com/mgutz/ansi"
)

// Check walks the subtree rooted at n (or Default's whole sentinel
// forest, if n is nil) and validates the tree-shape invariants spec.md
// §4.6 and §8 describe: a child's recorded parent matches the list it is
// linked under, no node appears on two child lists, and any LENGTH
// property stays consistent with the payload it annotates (the Go
// realization's equivalent of the C original's byte-offset invariant —
// see DESIGN.md "Open Question decisions" #6, since there is no
// header+payload+tail single allocation here for an offset to be taken
// of). It is a no-op, returning true, unless n's Context has
// CheckEnabled set — spec.md §4.6 "no-op in release mode".
func Check(n *Node, errPrefix string) bool {
	if n == nil {
		n = Default.sentinel
	}
	ctx := n.ctx
	if !ctx.CheckEnabled {
		return true
	}

	ok := true
	seen := map[*Node]bool{}

	var walk func(parent *Node)
	walk = func(parent *Node) {
		for ch := parent.firstChild; ch != nil; ch = ch.nextSibling {
			if seen[ch] {
				ok = false
				ctx.reportCorruption(ch, diagnostic(errPrefix, "node appears on a child list more than once"))
				continue
			}
			seen[ch] = true

			if ch.parent != parent {
				ok = false
				ctx.reportCorruption(ch, diagnostic(errPrefix, "child's recorded parent does not match the list it is linked under"))
			}
			if ch.hasLength && len(ch.payload) != ch.length.count*ch.length.elemSize {
				ok = false
				ctx.reportCorruption(ch, diagnostic(errPrefix, "LENGTH property inconsistent with payload size"))
			}
			if ch.destroying {
				ok = false
				ctx.reportCorruption(ch, diagnostic(errPrefix, "node reachable from a live tree while marked destroying"))
			}

			walk(ch)
		}
	}

	walk(n)
	return ok
}

func diagnostic(prefix, msg string) string {
	return fmt.Sprintf("%s: %s %s", prefix, ansi.Color("CORRUPT", "red+b"), msg)
}
