package tal_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/x-lugoo/tal"
)

// TestScenarioS1FreeOrderIsParentThenChildren covers spec.md §8 S1: freeing
// the root fires every destructor in the subtree, parent before children.
func TestScenarioS1FreeOrderIsParentThenChildren(t *testing.T) {
	ctx := tal.NewContext()

	a, err := ctx.Alloc(nil, 8)
	require.NoError(t, err)
	b, err := ctx.Alloc(a, 8)
	require.NoError(t, err)
	c, err := ctx.Alloc(a, 8)
	require.NoError(t, err)
	require.Nil(t, tal.Parent(a))
	require.Same(t, a, tal.Parent(b))
	require.Same(t, a, tal.Parent(c))

	var freed []string
	_, err = a.AddDestructor(func([]byte) { freed = append(freed, "A") })
	require.NoError(t, err)
	_, err = b.AddDestructor(func([]byte) { freed = append(freed, "B") })
	require.NoError(t, err)
	_, err = c.AddDestructor(func([]byte) { freed = append(freed, "C") })
	require.NoError(t, err)

	ctx.Free(a)

	require.Equal(t, "A", freed[0])
	require.ElementsMatch(t, []string{"B", "C"}, freed[1:])
}

// TestScenarioS2ArrayResizeReportsMoveThenResize covers spec.md §8 S2:
// count tracking through AllocArray/Resize, and MOVE firing before RESIZE
// whenever the backend relocates the buffer.
func TestScenarioS2ArrayResizeReportsMoveThenResize(t *testing.T) {
	ctx := tal.NewContext()

	x, err := ctx.AllocArray(nil, 4, 10)
	require.NoError(t, err)
	require.Equal(t, 10, tal.Count(x))

	var events []tal.Event
	var infos []any
	_, err = x.AddNotifier(tal.EventMove|tal.EventResize, func(_ []byte, ev tal.Event, info any) {
		events = append(events, ev)
		infos = append(infos, info)
	})
	require.NoError(t, err)

	require.NoError(t, ctx.Resize(x, 4, 25))
	require.Equal(t, 25, tal.Count(x))
	require.Equal(t, 100, len(x.Payload()))

	require.NotEmpty(t, events)
	require.Equal(t, tal.EventResize, events[len(events)-1])
	require.Equal(t, 100, infos[len(infos)-1])
	if len(events) > 1 {
		// The backend relocated the buffer: MOVE must have fired first,
		// carrying the old base address as info.
		require.Equal(t, tal.EventMove, events[0])
	}
}

// TestScenarioS3StealDetachesAndSurvivesParentFree covers spec.md §8 S3.
func TestScenarioS3StealDetachesAndSurvivesParentFree(t *testing.T) {
	ctx := tal.NewContext()

	p, err := ctx.Alloc(nil, 8)
	require.NoError(t, err)
	q, err := ctx.Alloc(p, 8)
	require.NoError(t, err)

	var steals int
	_, err = q.AddNotifier(tal.EventSteal, func([]byte, tal.Event, any) { steals++ })
	require.NoError(t, err)

	require.NoError(t, ctx.Steal(nil, q))
	require.Nil(t, tal.Parent(q))
	require.Nil(t, tal.First(p))
	require.Equal(t, 1, steals)

	var qFreed bool
	_, err = q.AddDestructor(func([]byte) { qFreed = true })
	require.NoError(t, err)

	ctx.Free(p)
	require.False(t, qFreed)
}

// TestScenarioS4SetNameLiteralReplacesHeapName covers spec.md §8 S4: a
// literal name replaces a heap-allocated one, and the heap copy is simply
// dropped (Go has no leak to check, but the observable name must switch).
func TestScenarioS4SetNameLiteralReplacesHeapName(t *testing.T) {
	ctx := tal.NewContext()

	n, err := ctx.Alloc(nil, 8)
	require.NoError(t, err)

	require.NoError(t, n.SetName("alpha", false))
	require.Equal(t, "alpha", n.Name())
	require.False(t, n.IsLiteralName())

	require.NoError(t, n.SetName("beta", true))
	require.Equal(t, "beta", n.Name())
	require.True(t, n.IsLiteralName())
}

// TestScenarioS5ReentrantFreeRunsDestructorOnce covers spec.md §8 S5.
func TestScenarioS5ReentrantFreeRunsDestructorOnce(t *testing.T) {
	ctx := tal.NewContext()

	m, err := ctx.Alloc(nil, 8)
	require.NoError(t, err)

	var runs int
	_, err = m.AddDestructor(func([]byte) {
		runs++
		ctx.Free(m)
	})
	require.NoError(t, err)

	require.NotPanics(t, func() { ctx.Free(m) })
	require.Equal(t, 1, runs)
}

// failNthBackend fails its Nth call to Allocate (1-indexed), succeeding
// every other call; Resize/Free always succeed. Used by S6 to reproduce a
// mid-AllocArray allocation failure.
type failNthBackend struct {
	n     int
	calls int
}

func (b *failNthBackend) Allocate(size int) ([]byte, error) {
	b.calls++
	if b.calls == b.n {
		return nil, errors.New("simulated allocation failure")
	}
	return make([]byte, size), nil
}

func (b *failNthBackend) Resize(buf []byte, newSize int) ([]byte, bool, error) {
	if newSize <= cap(buf) {
		return buf[:newSize], false, nil
	}
	out := make([]byte, newSize)
	copy(out, buf)
	return out, true, nil
}

func (b *failNthBackend) Free([]byte) error { return nil }

// TestScenarioS6BackendFailureOnNthCallLeavesParentUntouched covers
// spec.md §8 S6: when the Backend's 3rd Allocate call fails, an
// AllocArray that triggers on that call must fail cleanly and leave the
// parent's child list exactly as it was. The error hook returns instead of
// panicking like the default one, so the failure reaches the caller.
func TestScenarioS6BackendFailureOnNthCallLeavesParentUntouched(t *testing.T) {
	backend := &failNthBackend{n: 3}
	ctx := tal.NewContext(tal.WithBackend(backend), tal.WithErrorHook(ignoreErrors))

	parent, err := ctx.Alloc(nil, 8) // backend call #1
	require.NoError(t, err)
	_, err = ctx.Alloc(parent, 8) // backend call #2
	require.NoError(t, err)

	before := childNames(parent)

	_, err = ctx.AllocArray(parent, 4, 4) // backend call #3: fails
	require.Error(t, err)

	after := childNames(parent)
	require.Equal(t, before, after)
}

func childNames(parent *tal.Node) []*tal.Node {
	var out []*tal.Node
	for n := tal.First(parent); n != nil; n = tal.Next(parent, n) {
		out = append(out, n)
	}
	return out
}
