package tal

import "github.com/pkg/errors"

// Backend is the pluggable low-level byte allocator underneath the tree —
// spec.md §4.6's "four function pointers: allocate, resize, free, error".
// The error hook lives on Context instead of Backend (see ErrorHook);
// Backend only ever returns a Go error, which the caller reports through
// that hook.
type Backend interface {
	// Allocate returns a freshly zeroed buffer of the requested size.
	Allocate(size int) ([]byte, error)
	// Resize grows or shrinks buf to newSize, preserving its prefix.
	// moved reports whether the returned slice's backing array differs
	// from buf's — callers use this to decide whether to fire MOVE.
	Resize(buf []byte, newSize int) (resized []byte, moved bool, err error)
	// Free releases buf. The default backend is a no-op since Go's GC
	// reclaims unreferenced slices; a backend with real pooled or
	// mmap-backed storage (see backend/mmapbackend) may do real work.
	Free(buf []byte) error
}

// defaultBackend services allocations straight from the Go heap, the
// direct analogue of spec.md §4.6's "defaulting to the system allocator".
type defaultBackend struct{}

func (defaultBackend) Allocate(size int) ([]byte, error) {
	if size < 0 {
		return nil, errors.New("tal: negative allocation size")
	}
	return make([]byte, size), nil
}

func (defaultBackend) Resize(buf []byte, newSize int) ([]byte, bool, error) {
	if newSize < 0 {
		return nil, false, errors.New("tal: negative resize size")
	}

	if newSize <= cap(buf) {
		out := buf[:newSize]
		for i := len(buf); i < newSize; i++ {
			out[i] = 0
		}
		return out, false, nil
	}

	out := make([]byte, newSize)
	copy(out, buf)
	return out, true, nil
}

func (defaultBackend) Free([]byte) error {
	return nil
}
