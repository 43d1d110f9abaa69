// Package mmapbackend is an alternate tal.Backend that carves allocations
// out of a memory-mapped arena instead of the Go heap,
// grounded on the teacher's disk-backed pager (pkg/pager) generalized
// from file pages to a single mmap-ed region. It exists to demonstrate
// that tal's backend seam is genuinely pluggable (spec.md §4.6), not to
// provide persistence — the backing file is a scratch temp file removed
// on Close.
package mmapbackend

import (
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// Backend is a bump allocator over a fixed-capacity mmap-ed arena.
// Free is a no-op (spec.md §4.6 does not require a backend to reclaim
// individual allocations — only the default heap backend needs to, and
// Go's GC does that for it); the whole arena is released at once by
// Close.
type Backend struct {
	file *os.File
	arena mmap.MMap
	used  int
}

// New maps an arena of the given byte capacity, backed by a scratch temp
// file of that size.
func New(capacity int) (*Backend, error) {
	f, err := os.CreateTemp("", "tal-arena-*")
	if err != nil {
		return nil, errors.Wrap(err, "mmapbackend: create temp file")
	}
	if err := f.Truncate(int64(capacity)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, errors.Wrap(err, "mmapbackend: truncate")
	}

	arena, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, errors.Wrap(err, "mmapbackend: map")
	}

	return &Backend{file: f, arena: arena}, nil
}

// Allocate bump-allocates size bytes from the arena.
func (b *Backend) Allocate(size int) ([]byte, error) {
	if b.used+size > len(b.arena) {
		return nil, errors.New("mmapbackend: arena exhausted")
	}
	buf := b.arena[b.used : b.used+size : b.used+size]
	b.used += size
	return buf, nil
}

// Resize grows buf in place when it is the most recently allocated
// buffer and the arena has room; otherwise it bump-allocates a fresh
// buffer and copies, reporting moved=true.
func (b *Backend) Resize(buf []byte, newSize int) ([]byte, bool, error) {
	oldSize := len(buf)
	tailStart := b.used - oldSize
	isTail := tailStart >= 0 && (oldSize == 0 || &buf[0] == &b.arena[tailStart])

	if isTail && tailStart+newSize <= len(b.arena) {
		b.used = tailStart + newSize
		return b.arena[tailStart : tailStart+newSize : tailStart+newSize], false, nil
	}

	fresh, err := b.Allocate(newSize)
	if err != nil {
		return nil, false, err
	}
	copy(fresh, buf)
	return fresh, true, nil
}

// Free is a no-op; see the type doc comment.
func (b *Backend) Free([]byte) error {
	return nil
}

// Close unmaps the arena and removes its backing temp file.
func (b *Backend) Close() error {
	name := b.file.Name()
	if err := b.arena.Unmap(); err != nil {
		return errors.Wrap(err, "mmapbackend: unmap")
	}
	if err := b.file.Close(); err != nil {
		return errors.Wrap(err, "mmapbackend: close")
	}
	return errors.Wrap(os.Remove(name), "mmapbackend: remove temp file")
}
