// Package schedule maps program enrollments and workouts onto calendar dates.
//
// Everything here is pure: callers hand in already-fetched enrollments,
// workouts and check-ins, plus the current time, and get values back.
// Bad input degrades to "not placed" rather than an error.
package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// DateKeyLayout is the canonical YYYY-MM-DD key used for day equality.
const DateKeyLayout = "2006-01-02"

// DefaultDisplayLayout is used by FormatForDisplay when no layout is given.
const DefaultDisplayLayout = "Mon, Jan 2, 2006"

var calendarLocation atomic.Pointer[time.Location]

// datePrefix matches a bare YYYY-MM-DD at the start of a string.
var datePrefix = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

// fallbackLayouts are tried in order for strings without a YYYY-MM-DD prefix.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, Jan 2, 2006",
	"2 Jan 2006",
	"01/02/2006",
	"2006/01/02",
}

// SetLocation installs the single calendar location all dates are normalized to.
// A nil location resets to time.Local.
func SetLocation(loc *time.Location) {
	calendarLocation.Store(loc)
}

// Location returns the calendar location.
func Location() *time.Location {
	if loc := calendarLocation.Load(); loc != nil {
		return loc
	}
	return time.Local
}

// ParseFlexibleDate normalizes value to midnight in the calendar location.
// Supported inputs are time.Time, *time.Time, string and *string. Strings
// starting with YYYY-MM-DD are read from that prefix alone so that a bare
// date never shifts across a timezone boundary.
func ParseFlexibleDate(value any) (time.Time, bool) {
	return ParseFlexibleDateIn(value, Location())
}

// ParseFlexibleDateIn is ParseFlexibleDate normalizing to loc instead of the
// calendar location. A nil loc means the calendar location.
func ParseFlexibleDateIn(value any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = Location()
	}
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return StartOfDay(v.In(loc)), true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return ParseFlexibleDateIn(*v, loc)
	case string:
		return parseDateString(v, loc)
	case *string:
		if v == nil {
			return time.Time{}, false
		}
		return parseDateString(*v, loc)
	default:
		return time.Time{}, false
	}
}

func parseDateString(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := datePrefix.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
		// time.Date normalizes 2024-02-30 to March; reject instead.
		if t.Year() != year || int(t.Month()) != month || t.Day() != day {
			return time.Time{}, false
		}
		return t, true
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return StartOfDay(t.In(loc)), true
		}
	}
	return time.Time{}, false
}

// DateKey formats value as YYYY-MM-DD.
func DateKey(value any) (string, bool) {
	t, ok := ParseFlexibleDate(value)
	if !ok {
		return "", false
	}
	return t.Format(DateKeyLayout), true
}

// FormatForDisplay formats value with layout, or DefaultDisplayLayout when
// layout is empty. Unparseable input yields "".
func FormatForDisplay(value any, layout string) string {
	t, ok := ParseFlexibleDate(value)
	if !ok {
		return ""
	}
	if layout == "" {
		layout = DefaultDisplayLayout
	}
	return t.Format(layout)
}

// StartOfDay truncates t to midnight in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays moves t by n calendar days, keeping the wall clock.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b.
// DST transitions do not affect the result.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// AlignToWeekStart returns midnight of the most recent weekStart on or before t.
func AlignToWeekStart(t time.Time, weekStart time.Weekday) time.Time {
	t = StartOfDay(t)
	offset := (int(t.Weekday()) - int(weekStart) + 7) % 7
	return AddDays(t, -offset)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
