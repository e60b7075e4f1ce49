package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidept/presentation-scheduler/pkg/config"
)

func TestNewScheduleGrid(t *testing.T) {
	grid, err := NewScheduleGrid(config.SchedulingConfig{
		DayStart:       "08:00",
		DayEnd:         "18:00",
		LastStart:      "16:30",
		StepMinutes:    30,
		SearchSpanDays: 14,
	})
	require.NoError(t, err)
	assert.Equal(t, 480, grid.DayStartMin)
	assert.Equal(t, 1080, grid.DayEndMin)
	assert.Equal(t, 990, grid.LastStartMin)
}

func TestNewScheduleGridRejectsInvertedDay(t *testing.T) {
	_, err := NewScheduleGrid(config.SchedulingConfig{
		DayStart:  "18:00",
		DayEnd:    "08:00",
		LastStart: "16:30",
	})
	require.Error(t, err)
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		minutes int
		ok      bool
	}{
		{"00:00", 0, true},
		{"08:00", 480, true},
		{"16:30", 990, true},
		{"23:59", 1439, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"9am", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := parseClock(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.minutes, got, tc.in)
		} else {
			assert.Error(t, err, tc.in)
		}
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "08:00", formatClock(480))
	assert.Equal(t, "16:30", formatClock(990))
	assert.Equal(t, "00:05", formatClock(5))
}

func TestRangesOverlap(t *testing.T) {
	// Half-open windows: touching endpoints never conflict.
	assert.False(t, rangesOverlap(540, 600, 600, 660))
	assert.False(t, rangesOverlap(600, 660, 540, 600))
	assert.True(t, rangesOverlap(540, 600, 570, 630))
	assert.True(t, rangesOverlap(540, 660, 570, 600)) // containment
	assert.True(t, rangesOverlap(540, 600, 540, 600)) // identical
}

func TestIntersects(t *testing.T) {
	assert.True(t, intersects([]string{"a", "b"}, []string{"b", "c"}))
	assert.False(t, intersects([]string{"a"}, []string{"b"}))
	assert.False(t, intersects(nil, []string{"a"}))
	assert.False(t, intersects([]string{"a"}, nil))
}
