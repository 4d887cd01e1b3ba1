package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotStartsWeekday(t *testing.T) {
	policy := DefaultWorkingHours()
	// A Monday.
	monday := time.Date(2026, 9, 7, 15, 42, 0, 0, time.UTC)

	starts := policy.SlotStarts(monday)

	// 09:00-17:00 in 30-minute steps is 16 slots; the lunch window removes
	// the 12:30 and 13:00 slots.
	require.Len(t, starts, 14)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC), starts[0])
	assert.Equal(t, time.Date(2026, 9, 7, 16, 30, 0, 0, time.UTC), starts[len(starts)-1])

	for _, start := range starts {
		assert.False(t, start.Equal(time.Date(2026, 9, 7, 12, 30, 0, 0, time.UTC)), "lunch slot should be skipped")
		assert.False(t, start.Equal(time.Date(2026, 9, 7, 13, 0, 0, 0, time.UTC)), "lunch slot should be skipped")
	}
}

func TestSlotStartsSaturday(t *testing.T) {
	policy := DefaultWorkingHours()
	saturday := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)

	starts := policy.SlotStarts(saturday)

	// 09:00-14:00 is 10 slots, minus the two lunch slots.
	require.Len(t, starts, 8)
	assert.Equal(t, time.Date(2026, 9, 12, 13, 30, 0, 0, time.UTC), starts[len(starts)-1])
}

func TestSlotStartsClosedDay(t *testing.T) {
	policy := DefaultWorkingHours()
	sunday := time.Date(2026, 9, 6, 10, 0, 0, 0, time.UTC)

	assert.Empty(t, policy.SlotStarts(sunday))
}

func TestSlotStartsOrdered(t *testing.T) {
	policy := DefaultWorkingHours()
	friday := time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC)

	starts := policy.SlotStarts(friday)
	for i := 1; i < len(starts); i++ {
		assert.True(t, starts[i].After(starts[i-1]))
	}
}

func TestSlotIsPast(t *testing.T) {
	now := time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC)

	future := Slot{StartTime: now.Add(time.Hour)}
	exact := Slot{StartTime: now}
	past := Slot{StartTime: now.Add(-time.Hour)}

	assert.False(t, future.IsPast(now))
	assert.True(t, exact.IsPast(now))
	assert.True(t, past.IsPast(now))
}
