package taken_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/x-lugoo/tal/taken"
)

func TestMarkAndOwnerRoundTrip(t *testing.T) {
	tr := taken.NewTracker()
	buf := []byte{1, 2, 3}

	require.False(t, tr.IsTaken(buf))
	require.Nil(t, tr.Owner(buf))

	tr.Mark(buf, "owner-a")
	require.True(t, tr.IsTaken(buf))
	require.Equal(t, "owner-a", tr.Owner(buf))

	tr.Release(buf)
	require.False(t, tr.IsTaken(buf))
	require.Nil(t, tr.Owner(buf))
}

func TestEmptyBufferIsNeverTaken(t *testing.T) {
	tr := taken.NewTracker()
	tr.Mark(nil, "owner")
	require.False(t, tr.IsTaken(nil))
}

func TestFailRunsHooksThenReleases(t *testing.T) {
	tr := taken.NewTracker()
	buf := []byte{9}
	tr.Mark(buf, "owner-b")

	var notified []any
	tr.OnFailure(func(owner any) { notified = append(notified, owner) })

	tr.Fail(buf)
	require.Equal(t, []any{"owner-b"}, notified)
	require.False(t, tr.IsTaken(buf))
}
