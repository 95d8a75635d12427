package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_OnceFiresOnce(t *testing.T) {
	s := NewScheduler()
	assert.Nil(t, s.Cmd(), "nothing queued yet")

	calls := 0
	h := s.ScheduleOnce(time.Second, func() { calls++ })
	require.True(t, h.Valid())
	assert.NotNil(t, s.Cmd())
	assert.Nil(t, s.Cmd(), "queue is drained by Cmd")

	s.Fire(TimerMsg{Handle: h})
	s.Fire(TimerMsg{Handle: h})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_CancelledTaskDoesNotRun(t *testing.T) {
	s := NewScheduler()
	ran := false
	h := s.ScheduleOnce(time.Second, func() { ran = true })
	s.Cancel(h)
	s.Cancel(h)
	s.Cancel(0)

	s.Fire(TimerMsg{Handle: h})
	assert.False(t, ran)
}

func TestScheduler_RepeatingRequeues(t *testing.T) {
	s := NewScheduler()
	calls := 0
	h := s.ScheduleRepeating(0, func() { calls++ })
	_ = s.Cmd()

	for i := 0; i < 3; i++ {
		s.Fire(TimerMsg{Handle: h})
		assert.NotNil(t, s.Cmd(), "next tick queued after firing %d", i)
	}
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, s.Pending())

	s.Cancel(h)
	s.Fire(TimerMsg{Handle: h})
	assert.Equal(t, 3, calls)
	assert.Nil(t, s.Cmd())
}

func TestScheduler_CancelFromAnotherCallback(t *testing.T) {
	s := NewScheduler()
	calls := 0
	h := s.ScheduleRepeating(time.Millisecond, func() { calls++ })
	stop := s.ScheduleOnce(time.Millisecond, func() { s.Cancel(h) })

	s.Fire(TimerMsg{Handle: h})
	s.Fire(TimerMsg{Handle: stop})
	s.Fire(TimerMsg{Handle: h})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_HandlesAreUnique(t *testing.T) {
	s := NewScheduler()
	a := s.ScheduleOnce(time.Second, func() {})
	b := s.ScheduleRepeating(time.Second, func() {})
	assert.NotEqual(t, a, b)
}
