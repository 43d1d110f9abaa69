// Package taken is the external "taken pointer" collaborator spec.md §6
// describes: a small, tal-independent registry that marks a buffer as
// ownership-transferred so Dup can consume it instead of copying. Expand
// does not consult it: a taken src passed to Expand is copied and left
// as it is.
// It is deliberately out of scope for the tree/property system itself
// (spec.md §1), the same way the teacher carves single-purpose concerns
// into their own package (pkg/customerrors, pkg/stack).
package taken

import "unsafe"

// Tracker records which buffers have been marked "taken" and by whom.
// The owner value is opaque to this package on purpose — tal stores a
// *tal.Node there, but Tracker must not import tal (that import would be
// circular, since tal.Context holds a *Tracker).
type Tracker struct {
	owners      map[uintptr]any
	onFailHooks []func(owner any)
}

// NewTracker builds an empty registry.
func NewTracker() *Tracker {
	return &Tracker{owners: map[uintptr]any{}}
}

func keyOf(buf []byte) (uintptr, bool) {
	if len(buf) == 0 {
		return 0, false
	}
	return uintptr(unsafe.Pointer(&buf[0])), true
}

// Mark records buf as taken by owner.
func (t *Tracker) Mark(buf []byte, owner any) {
	if k, ok := keyOf(buf); ok {
		t.owners[k] = owner
	}
}

// IsTaken reports whether buf is currently marked taken.
func (t *Tracker) IsTaken(buf []byte) bool {
	k, ok := keyOf(buf)
	if !ok {
		return false
	}
	_, taken := t.owners[k]
	return taken
}

// Owner returns whatever was passed to Mark for buf, or nil if buf isn't
// taken.
func (t *Tracker) Owner(buf []byte) any {
	k, ok := keyOf(buf)
	if !ok {
		return nil
	}
	return t.owners[k]
}

// Release clears buf's taken mark.
func (t *Tracker) Release(buf []byte) {
	if k, ok := keyOf(buf); ok {
		delete(t.owners, k)
	}
}

// OnFailure registers fn to run whenever Fail is called — the "install
// the backend-failure hook for the taken pointer collaborator" behavior
// from spec.md §4.2, so an allocation failing after a pointer has already
// been taken still releases it.
func (t *Tracker) OnFailure(fn func(owner any)) {
	t.onFailHooks = append(t.onFailHooks, fn)
}

// Fail runs every registered failure hook for buf's owner, then releases
// buf.
func (t *Tracker) Fail(buf []byte) {
	owner := t.Owner(buf)
	for _, hook := range t.onFailHooks {
		hook(owner)
	}
	t.Release(buf)
}
