package tal

import (
	"errors"

	log "github.com/x-lugoo/tal/util/logger"
)

// Sentinel errors, same flat var-per-error shape as the teacher's
// pkg/customerrors and pkg/rbtree/errors.go.
var (
	ErrNilContext    = errors.New("tal: nil context")
	ErrAllocFailed   = errors.New("tal: backend allocation failed")
	ErrOverflow      = errors.New("tal: size computation overflow")
	ErrCorrupted     = errors.New("tal: structural invariant violated")
	ErrInvalidEvents = errors.New("tal: invalid notifier event mask")
	ErrAliasedSource = errors.New("tal: src aliases the region being grown")
)

// ErrorKind distinguishes the three error categories spec.md §7 describes.
type ErrorKind int

const (
	ErrKindAlloc ErrorKind = iota
	ErrKindOverflow
	ErrKindCorruption
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindAlloc:
		return "allocation failure"
	case ErrKindOverflow:
		return "arithmetic overflow"
	case ErrKindCorruption:
		return "structural corruption"
	default:
		return "unknown"
	}
}

// ErrorHook is the advisory error callback a Context invokes alongside
// returning a normal Go error. The default hook logs and aborts the
// process for all three kinds — matching spec.md §7 exactly ("the
// default hook aborts the process; user hooks may log and continue, in
// which case behavior past that point is undefined").
type ErrorHook func(kind ErrorKind, node *Node, msg string)

func defaultErrorHook(kind ErrorKind, n *Node, msg string) {
	entry := log.L.WithField("kind", kind.String())
	if n != nil {
		entry = entry.WithField("node", n.Name())
	}
	entry.Error(msg)

	panic("tal: " + msg)
}

func (c *Context) reportAlloc(err error) {
	c.errorHook(ErrKindAlloc, nil, err.Error())
}

func (c *Context) reportOverflow(msg string) {
	c.errorHook(ErrKindOverflow, nil, msg)
}

func (c *Context) reportCorruption(n *Node, msg string) {
	c.errorHook(ErrKindCorruption, n, msg)
}
