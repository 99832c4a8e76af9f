package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMonthGrid(t *testing.T) {
	// February 2024 starts on a Thursday.
	grid := BuildMonthGrid(day(2024, time.February, 14).Add(9 * time.Hour))

	require.Len(t, grid, 42)
	assert.Equal(t, day(2024, time.January, 28), grid[0])
	assert.Equal(t, time.Sunday, grid[0].Weekday())
	assert.Equal(t, day(2024, time.February, 1), grid[4])
	assert.Equal(t, day(2024, time.March, 9), grid[41])
	for i := 1; i < len(grid); i++ {
		assert.Equal(t, 1, DaysBetween(grid[i-1], grid[i]))
	}
}

func TestBuildMonthGrid_MonthStartingOnSunday(t *testing.T) {
	// September 2024 starts on a Sunday: no leading days.
	grid := BuildMonthGrid(day(2024, time.September, 30))
	assert.Equal(t, day(2024, time.September, 1), grid[0])
}

func TestBuildMonthGridFrom_Monday(t *testing.T) {
	grid := BuildMonthGridFrom(day(2024, time.February, 1), time.Monday)
	assert.Equal(t, day(2024, time.January, 29), grid[0])
	assert.Equal(t, time.Monday, grid[0].Weekday())
}

func TestBuildWeekWindow(t *testing.T) {
	week := BuildWeekWindow(day(2024, time.January, 3)) // Wednesday
	assert.Equal(t, day(2023, time.December, 31), week[0])
	assert.Equal(t, day(2024, time.January, 6), week[6])
}

func TestVisibleWindow(t *testing.T) {
	week := BuildWeekWindow(day(2024, time.January, 3))

	tests := []struct {
		name      string
		start     int
		size      int
		wantStart int
		wantLen   int
	}{
		{"in range", 2, MobileWindowSize, 2, 3},
		{"negative start", -4, MobileWindowSize, 0, 3},
		{"past the end", 6, MobileWindowSize, 4, 3},
		{"whole week", 3, 7, 0, 7},
		{"oversized", 0, 10, 0, 7},
		{"zero size", 9, 0, 6, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, start := VisibleWindow(week, tt.start, tt.size)
			assert.Equal(t, tt.wantStart, start)
			require.Len(t, got, tt.wantLen)
			assert.Equal(t, week[start], got[0])
		})
	}
}
