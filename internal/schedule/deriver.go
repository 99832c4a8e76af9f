package schedule

import (
	"time"

	"alcyxob/strength-academy/internal/domain"

	"github.com/teambition/rrule-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingDaysPerWeek is the cadence: day-numbers past it roll into the next week.
const TrainingDaysPerWeek = 6

// Week conventions. Program schedules are Monday-aligned; athlete-facing
// calendar grids are Sunday-aligned.
const (
	ProgramWeekStart  = time.Monday
	CalendarWeekStart = time.Sunday
)

// rruleWeekdays is indexed by time.Weekday.
var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Schedule is the derived date window of one active enrollment.
type Schedule struct {
	EnrollmentID primitive.ObjectID
	ProgramID    primitive.ObjectID
	// Start is always a ProgramWeekStart midnight.
	Start time.Time
	// End is inclusive; zero means open-ended.
	End time.Time
	// TotalTrainingDays is zero when there is no upper bound on day-number.
	TotalTrainingDays int
}

// OpenEnded reports whether the schedule has no end date.
func (s Schedule) OpenEnded() bool {
	return s.End.IsZero()
}

// DeriveProgramSchedule computes the schedule of an enrollment. Only active
// enrollments produce one.
func DeriveProgramSchedule(e *domain.Enrollment, now time.Time) (Schedule, bool) {
	return DeriveProgramScheduleIn(e, now, Location())
}

// DeriveProgramScheduleIn is DeriveProgramSchedule with the dates laid out
// in loc. A nil loc means the calendar location.
func DeriveProgramScheduleIn(e *domain.Enrollment, now time.Time, loc *time.Location) (Schedule, bool) {
	if e == nil || !e.IsActive() {
		return Schedule{}, false
	}
	if loc == nil {
		loc = Location()
	}

	start := AlignToWeekStart(startAnchor(e, now, loc), ProgramWeekStart)
	s := Schedule{
		EnrollmentID: e.ID,
		ProgramID:    e.ProgramID,
		Start:        start,
	}

	weeks := 0
	if e.DurationWeeks != nil && *e.DurationWeeks > 0 {
		weeks = *e.DurationWeeks
	}

	if end, ok := ParseFlexibleDateIn(e.EndDate, loc); ok {
		s.End = end
	} else if weeks > 0 {
		s.End = AddDays(start, weeks*7-1)
	}
	if weeks > 0 {
		s.TotalTrainingDays = weeks * TrainingDaysPerWeek
	}
	return s, true
}

// startAnchor picks StartDate, then EnrolledAt, then CreatedAt, then now.
func startAnchor(e *domain.Enrollment, now time.Time, loc *time.Location) time.Time {
	for _, candidate := range []any{e.StartDate, e.EnrolledAt, e.CreatedAt} {
		if t, ok := ParseFlexibleDateIn(candidate, loc); ok {
			return t
		}
	}
	return StartOfDay(now.In(loc))
}

// SchedulesByProgram derives a schedule per program from the active
// enrollments. When a program has several active enrollments the first one
// in input order wins.
func SchedulesByProgram(enrollments []domain.Enrollment, now time.Time) map[primitive.ObjectID]Schedule {
	return schedulesByProgram(enrollments, now, Location())
}

func schedulesByProgram(enrollments []domain.Enrollment, now time.Time, loc *time.Location) map[primitive.ObjectID]Schedule {
	out := make(map[primitive.ObjectID]Schedule, len(enrollments))
	for i := range enrollments {
		s, ok := DeriveProgramScheduleIn(&enrollments[i], now, loc)
		if !ok {
			continue
		}
		if _, seen := out[s.ProgramID]; seen {
			continue
		}
		out[s.ProgramID] = s
	}
	return out
}

// dayOffset is the number of calendar days between Start and dayNumber.
func dayOffset(dayNumber int) int {
	weeks := (dayNumber - 1) / TrainingDaysPerWeek
	within := (dayNumber - 1) % TrainingDaysPerWeek
	return weeks*7 + within
}

// DateForDay resolves a day-number to its calendar date, failing when the
// day-number is out of the committed duration or lands after End.
func (s Schedule) DateForDay(dayNumber int) (time.Time, bool) {
	if dayNumber < 1 {
		return time.Time{}, false
	}
	if s.TotalTrainingDays > 0 && dayNumber > s.TotalTrainingDays {
		return time.Time{}, false
	}
	date := AddDays(s.Start, dayOffset(dayNumber))
	if !s.OpenEnded() && date.After(s.End) {
		return time.Time{}, false
	}
	return date, true
}

// DayForDate is the inverse of DateForDay. It fails for dates before Start,
// rest days, and dates beyond the committed duration or End.
func (s Schedule) DayForDate(date time.Time) (int, bool) {
	day, ok := ComputeDayNumberFromDate(s.Start, date)
	if !ok {
		return 0, false
	}
	if _, ok := s.DateForDay(day); !ok {
		return 0, false
	}
	return day, true
}

// Contains reports whether date falls inside the schedule window.
func (s Schedule) Contains(date time.Time) bool {
	date = StartOfDay(date)
	if date.Before(s.Start) {
		return false
	}
	return s.OpenEnded() || !date.After(s.End)
}

// TrainingDates lists the schedule's training dates between from and to,
// inclusive. The dates come from a weekly recurrence over the cadence's
// weekdays bounded by the schedule's count and end.
func (s Schedule) TrainingDates(from, to time.Time) []time.Time {
	from, to = StartOfDay(from), StartOfDay(to)
	if to.Before(from) {
		return nil
	}

	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   s.Start,
		Wkst:      rruleWeekdays[ProgramWeekStart],
		Byweekday: trainingWeekdays(),
	}
	if s.TotalTrainingDays > 0 {
		opt.Count = s.TotalTrainingDays
	}
	if !s.OpenEnded() {
		opt.Until = s.End
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil
	}
	return rule.Between(from, to, true)
}

func trainingWeekdays() []rrule.Weekday {
	days := make([]rrule.Weekday, 0, TrainingDaysPerWeek)
	for i := 0; i < TrainingDaysPerWeek; i++ {
		days = append(days, rruleWeekdays[(int(ProgramWeekStart)+i)%7])
	}
	return days
}
