package schedule

import (
	"sort"
	"time"

	"alcyxob/strength-academy/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SourceKind records where a resolved date came from.
type SourceKind string

const (
	SourceExplicit SourceKind = "explicit"
	SourceProgram  SourceKind = "program"
)

// OmitReason explains why a workout was left off the calendar.
type OmitReason string

const (
	ReasonTemplate           OmitReason = "template"
	ReasonUnplaceable        OmitReason = "unplaceable"
	ReasonNoActiveEnrollment OmitReason = "no_active_enrollment"
	ReasonBeyondDuration     OmitReason = "beyond_duration"
	ReasonAfterEnd           OmitReason = "after_end"
	ReasonOutOfRange         OmitReason = "out_of_range"
)

// Placement is how a workout can be put on a calendar: an ExplicitPlacement,
// a ProgramPlacement or Unplaceable.
type Placement interface {
	placement()
}

// ExplicitPlacement is a workout carrying its own scheduled date.
type ExplicitPlacement struct {
	Date time.Time
}

// ProgramPlacement is a workout positioned by day-number inside a program.
type ProgramPlacement struct {
	ProgramID primitive.ObjectID
	DayNumber int
}

// Unplaceable is a workout that can never receive a date.
type Unplaceable struct {
	Reason OmitReason
}

func (ExplicitPlacement) placement() {}
func (ProgramPlacement) placement()  {}
func (Unplaceable) placement()       {}

// Classify decides once how w is placed. A parseable explicit date always
// wins over a day-number; an unparseable one falls back to the day-number.
func Classify(w *domain.Workout) Placement {
	return classify(w, Location())
}

func classify(w *domain.Workout, loc *time.Location) Placement {
	if w.IsTemplate {
		return Unplaceable{Reason: ReasonTemplate}
	}
	if date, ok := ParseFlexibleDateIn(w.ScheduledDate, loc); ok {
		return ExplicitPlacement{Date: date}
	}
	if w.ProgramID != nil && *w.ProgramID != primitive.NilObjectID && w.DayNumber != nil && *w.DayNumber >= 1 {
		return ProgramPlacement{ProgramID: *w.ProgramID, DayNumber: *w.DayNumber}
	}
	return Unplaceable{Reason: ReasonUnplaceable}
}

// DateRange bounds a calendar query by day, inclusive on both ends.
// A zero From or To leaves that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether date falls within the range.
func (r DateRange) Contains(date time.Time) bool {
	date = StartOfDay(date)
	if !r.From.IsZero() && date.Before(StartOfDay(r.From)) {
		return false
	}
	if !r.To.IsZero() && date.After(StartOfDay(r.To)) {
		return false
	}
	return true
}

// ResolvedWorkout is a workout with its calendar date.
type ResolvedWorkout struct {
	Workout domain.Workout
	Date    time.Time
	DateKey string
	Source  SourceKind
}

// Omission is a workout that was dropped from the calendar, and why.
type Omission struct {
	WorkoutID primitive.ObjectID
	Reason    OmitReason
}

// ReconcileInput is everything the reconciler needs for one athlete.
type ReconcileInput struct {
	Workouts    []domain.Workout
	Enrollments []domain.Enrollment
	AthleteID   primitive.ObjectID
	Range       *DateRange
	Now         time.Time
	// Location lays out every date; nil means the calendar location.
	Location *time.Location
}

// Result holds the placed workouts sorted by date and the omitted ones in
// input order.
type Result struct {
	Workouts []ResolvedWorkout
	Omitted  []Omission
}

// Reconcile places every workout on the calendar, drops those that cannot be
// placed, and sorts the rest by date. Workouts on the same date keep their
// input order. Each workout's check-ins are narrowed to AthleteID.
func Reconcile(in ReconcileInput) Result {
	loc := in.Location
	if loc == nil {
		loc = Location()
	}
	schedules := schedulesByProgram(in.Enrollments, in.Now, loc)

	res := Result{Workouts: make([]ResolvedWorkout, 0, len(in.Workouts))}
	for i := range in.Workouts {
		w := in.Workouts[i]

		date, source, reason := resolve(&w, schedules, loc)
		if reason == "" && in.Range != nil && !in.Range.Contains(date) {
			reason = ReasonOutOfRange
		}
		if reason != "" {
			res.Omitted = append(res.Omitted, Omission{WorkoutID: w.ID, Reason: reason})
			continue
		}

		w.CheckIns = checkInsFor(w.CheckIns, in.AthleteID)
		res.Workouts = append(res.Workouts, ResolvedWorkout{
			Workout: w,
			Date:    date,
			DateKey: date.Format(DateKeyLayout),
			Source:  source,
		})
	}

	sort.SliceStable(res.Workouts, func(i, j int) bool {
		return res.Workouts[i].Date.Before(res.Workouts[j].Date)
	})
	return res
}

// ReconcileWorkoutsForCalendar returns only the placed workouts of Reconcile.
func ReconcileWorkoutsForCalendar(in ReconcileInput) []ResolvedWorkout {
	return Reconcile(in).Workouts
}

func resolve(w *domain.Workout, schedules map[primitive.ObjectID]Schedule, loc *time.Location) (time.Time, SourceKind, OmitReason) {
	switch p := classify(w, loc).(type) {
	case ExplicitPlacement:
		return p.Date, SourceExplicit, ""
	case ProgramPlacement:
		s, ok := schedules[p.ProgramID]
		if !ok {
			return time.Time{}, "", ReasonNoActiveEnrollment
		}
		if s.TotalTrainingDays > 0 && p.DayNumber > s.TotalTrainingDays {
			return time.Time{}, "", ReasonBeyondDuration
		}
		date := AddDays(s.Start, dayOffset(p.DayNumber))
		if !s.OpenEnded() && date.After(s.End) {
			return time.Time{}, "", ReasonAfterEnd
		}
		return date, SourceProgram, ""
	case Unplaceable:
		return time.Time{}, "", p.Reason
	}
	return time.Time{}, "", ReasonUnplaceable
}

func checkInsFor(checkIns []domain.CheckIn, athleteID primitive.ObjectID) []domain.CheckIn {
	if len(checkIns) == 0 {
		return nil
	}
	out := make([]domain.CheckIn, 0, len(checkIns))
	for _, c := range checkIns {
		if c.AthleteID == athleteID {
			out = append(out, c)
		}
	}
	return out
}

// ComputeDayNumberFromDate maps a calendar date back to a day-number within
// a schedule starting at start. It fails for dates before start and for
// dates on a rest day of the cadence.
func ComputeDayNumberFromDate(start, target time.Time) (int, bool) {
	diff := DaysBetween(start, target)
	if diff < 0 {
		return 0, false
	}
	week, within := diff/7, diff%7
	if within >= TrainingDaysPerWeek {
		return 0, false
	}
	return week*TrainingDaysPerWeek + within + 1, true
}

// WorkoutsOn returns the resolved workouts falling on date, in order.
func WorkoutsOn(resolved []ResolvedWorkout, date time.Time) []ResolvedWorkout {
	var out []ResolvedWorkout
	for _, rw := range resolved {
		if SameDay(rw.Date, date) {
			out = append(out, rw)
		}
	}
	return out
}

// CurrentWorkout is the first workout on date.
func CurrentWorkout(resolved []ResolvedWorkout, date time.Time) (ResolvedWorkout, bool) {
	for _, rw := range resolved {
		if SameDay(rw.Date, date) {
			return rw, true
		}
	}
	return ResolvedWorkout{}, false
}

// GroupByDateKey buckets resolved workouts by their YYYY-MM-DD key.
func GroupByDateKey(resolved []ResolvedWorkout) map[string][]ResolvedWorkout {
	out := make(map[string][]ResolvedWorkout)
	for _, rw := range resolved {
		out[rw.DateKey] = append(out[rw.DateKey], rw)
	}
	return out
}
