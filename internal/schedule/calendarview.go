package schedule

import "time"

const (
	// MonthGridCells is six full weeks, enough to tile any month.
	MonthGridCells = 42
	DaysPerWeek    = 7
	// MobileWindowSize is the number of days shown at once on narrow screens.
	MobileWindowSize = 3
)

// BuildMonthGrid returns the 42 dates of the month view containing anchor,
// starting from the Sunday on or before the 1st.
func BuildMonthGrid(anchor time.Time) [MonthGridCells]time.Time {
	return BuildMonthGridFrom(anchor, CalendarWeekStart)
}

// BuildMonthGridFrom is BuildMonthGrid with a configurable first weekday.
func BuildMonthGridFrom(anchor time.Time, weekStart time.Weekday) [MonthGridCells]time.Time {
	y, m, _ := anchor.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, anchor.Location())
	start := AlignToWeekStart(first, weekStart)

	var grid [MonthGridCells]time.Time
	for i := range grid {
		grid[i] = AddDays(start, i)
	}
	return grid
}

// BuildWeekWindow returns the seven dates of the Sunday-aligned week containing anchor.
func BuildWeekWindow(anchor time.Time) [DaysPerWeek]time.Time {
	start := AlignToWeekStart(anchor, CalendarWeekStart)

	var week [DaysPerWeek]time.Time
	for i := range week {
		week[i] = AddDays(start, i)
	}
	return week
}

// ClampWindowStart keeps a window of size days inside a week.
func ClampWindowStart(start, size int) int {
	size = clampSize(size)
	if start < 0 {
		return 0
	}
	if last := DaysPerWeek - size; start > last {
		return last
	}
	return start
}

// VisibleWindow carves size consecutive days out of week beginning at start,
// after clamping start. It returns the days and the clamped start.
func VisibleWindow(week [DaysPerWeek]time.Time, start, size int) ([]time.Time, int) {
	size = clampSize(size)
	start = ClampWindowStart(start, size)
	out := make([]time.Time, size)
	copy(out, week[start:start+size])
	return out, start
}

func clampSize(size int) int {
	if size < 1 {
		return 1
	}
	if size > DaysPerWeek {
		return DaysPerWeek
	}
	return size
}
