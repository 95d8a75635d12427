package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestManual_OnceFiresAtDeadline(t *testing.T) {
	m := NewManual(epoch)
	fired := 0
	h := m.ScheduleOnce(800*time.Millisecond, func() { fired++ })
	require.True(t, h.Valid())

	m.Advance(799 * time.Millisecond)
	assert.Equal(t, 0, fired)

	m.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, m.Pending())

	m.Advance(time.Hour)
	assert.Equal(t, 1, fired, "one-shot must not fire twice")
}

func TestManual_RepeatingFiresEveryInterval(t *testing.T) {
	m := NewManual(epoch)
	ticks := 0
	m.ScheduleRepeating(time.Second, func() { ticks++ })

	m.Advance(3500 * time.Millisecond)
	assert.Equal(t, 3, ticks)
	assert.Equal(t, epoch.Add(3500*time.Millisecond), m.Now())
}

func TestManual_CancelStopsTask(t *testing.T) {
	m := NewManual(epoch)
	ticks := 0
	h := m.ScheduleRepeating(time.Second, func() { ticks++ })

	m.Advance(2 * time.Second)
	m.Cancel(h)
	m.Advance(10 * time.Second)

	assert.Equal(t, 2, ticks)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_CancelUnknownHandleIsNoop(t *testing.T) {
	m := NewManual(epoch)
	m.Cancel(0)
	m.Cancel(42)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_CallbackCanCancelItself(t *testing.T) {
	m := NewManual(epoch)
	ticks := 0
	var h Handle
	h = m.ScheduleRepeating(time.Second, func() {
		ticks++
		if ticks == 3 {
			m.Cancel(h)
		}
	})

	m.Advance(time.Minute)
	assert.Equal(t, 3, ticks)
}

func TestManual_CallbackScheduledInsideWindowRuns(t *testing.T) {
	m := NewManual(epoch)
	var order []string
	m.ScheduleOnce(time.Second, func() {
		order = append(order, "first")
		m.ScheduleOnce(time.Second, func() { order = append(order, "nested") })
	})

	m.Advance(5 * time.Second)
	assert.Equal(t, []string{"first", "nested"}, order)
}

func TestManual_TiesRunInSchedulingOrder(t *testing.T) {
	m := NewManual(epoch)
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		m.ScheduleOnce(time.Second, func() { order = append(order, i) })
	}

	m.Advance(time.Second)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestManual_CancelledPeerDoesNotFire(t *testing.T) {
	m := NewManual(epoch)
	fired := false
	var second Handle
	m.ScheduleOnce(time.Second, func() { m.Cancel(second) })
	second = m.ScheduleOnce(time.Second, func() { fired = true })

	m.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestManual_Step(t *testing.T) {
	m := NewManual(epoch)
	assert.False(t, m.Step())

	fired := false
	m.ScheduleOnce(3*time.Minute, func() { fired = true })
	require.True(t, m.Step())
	assert.True(t, fired)
	assert.Equal(t, epoch.Add(3*time.Minute), m.Now())
}

func TestManual_StepFromZeroClock(t *testing.T) {
	m := NewManual(time.Time{})

	fired := 0
	m.ScheduleOnce(0, func() { fired++ })
	require.Equal(t, 1, m.Pending())
	require.True(t, m.Step(), "a task due at the zero time is still pending")
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, m.Pending())
	assert.False(t, m.Step())
}
