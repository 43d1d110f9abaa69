package tal

import "golang.org/x/sys/unix"

// currentErrno stands in for the C original's libc errno global. Go
// syscalls return their error independently per call rather than
// mutating one process-wide slot the way libc does, so there is no real
// OS errno for Free to observe and restore; callers that need the exact
// spec.md §4.2/§7 contract ("errno observed on entry to Free must be
// restored on exit so destructors that touch errno don't leak it") can
// route their own unix.Errno values through SetErrno/Errno, and Free
// saves/restores this value across the whole teardown exactly as
// described.
var currentErrno unix.Errno

// Errno returns the current errno value: the last one recorded via
// SetErrno, or the value a Free restored on exit, whichever came later.
func Errno() unix.Errno {
	return currentErrno
}

// SetErrno records e as the current errno, as a destructor or notifier
// would after a failed syscall.
func SetErrno(e unix.Errno) {
	currentErrno = e
}
