package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskSetCancelAllStopsTasks(t *testing.T) {
	s := NewManualScheduler()
	var fired int

	var ts TaskSet
	ts.Add(s.Once(time.Second, func() { fired++ }))
	ts.Add(s.Repeat(time.Second, func() { fired++ }))
	ts.CancelAll()

	s.FireOnces()
	s.Tick()
	assert.Equal(t, 0, fired)
}

func TestTaskSetCancelsTasksAddedAfterCancelAll(t *testing.T) {
	s := NewManualScheduler()
	var fired int

	var ts TaskSet
	ts.CancelAll()
	ts.Add(s.Once(time.Second, func() { fired++ }))

	s.FireOnces()
	assert.Equal(t, 0, fired)
}

func TestManualSchedulerConsumesOncesAndFrames(t *testing.T) {
	s := NewManualScheduler()
	var onces, frames int

	s.Once(time.Second, func() { onces++ })
	s.NextFrame(func() { frames++ })

	s.FireOnces()
	s.FireOnces()
	s.FireFrames()
	s.FireFrames()

	assert.Equal(t, 1, onces, "one-shots fire once")
	assert.Equal(t, 1, frames, "frames fire once")
}

func TestManualSchedulerRepeatsSurviveTicks(t *testing.T) {
	s := NewManualScheduler()
	var ticks int

	task := s.Repeat(time.Second, func() { ticks++ })
	s.Tick()
	s.Tick()
	assert.Equal(t, 2, ticks)

	task.Cancel()
	s.Tick()
	assert.Equal(t, 2, ticks)
}

func TestManualClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	c := NewManualClock(start)

	c.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), c.Now())

	jump := time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC)
	c.Set(jump)
	assert.Equal(t, jump, c.Now())
}
