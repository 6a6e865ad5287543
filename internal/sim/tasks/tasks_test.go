package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RearmReplaces(t *testing.T) {
	s := NewScheduler()
	s.Arm(1, KindWalk, 10, "first")
	s.Arm(1, KindWalk, 12, "second")
	assert.Equal(t, 1, s.Len())

	c, ok := s.Pending(1, KindWalk)
	require.True(t, ok)
	assert.Equal(t, "second", c.Payload)
	assert.Equal(t, uint64(12), c.DueTick)

	assert.Empty(t, s.Due(11))
	due := s.Due(12)
	require.Len(t, due, 1)
	assert.Equal(t, "second", due[0].Payload)
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_KindsAreIndependent(t *testing.T) {
	s := NewScheduler()
	s.Arm(1, KindWalk, 10, "walk")
	s.Arm(1, KindAction, 10, "act")
	assert.Equal(t, 2, s.Len())

	s.CancelKind(1, KindWalk)
	_, ok := s.Pending(1, KindWalk)
	assert.False(t, ok)
	_, ok = s.Pending(1, KindAction)
	assert.True(t, ok)

	s.Cancel(1)
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_DueOrder(t *testing.T) {
	s := NewScheduler()
	s.Arm(3, KindAction, 5, "c")
	s.Arm(1, KindAction, 4, "a")
	s.Arm(2, KindAction, 5, "b")
	s.Arm(4, KindAction, 9, "later")

	due := s.Due(5)
	require.Len(t, due, 3)
	assert.Equal(t, "a", due[0].Payload)
	assert.Equal(t, "c", due[1].Payload)
	assert.Equal(t, "b", due[2].Payload)
	assert.Equal(t, 1, s.Len())
}
