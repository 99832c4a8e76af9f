package schedule

import (
	"math/rand"
	"testing"
	"time"

	"alcyxob/strength-academy/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func strPtr(s string) *string { return &s }

func programWorkout(programID primitive.ObjectID, dayNumber int, title string) domain.Workout {
	pid := programID
	return domain.Workout{
		ID:        primitive.NewObjectID(),
		ProgramID: &pid,
		DayNumber: intPtr(dayNumber),
		Title:     title,
	}
}

func titles(resolved []ResolvedWorkout) []string {
	out := make([]string, len(resolved))
	for i, rw := range resolved {
		out[i] = rw.Workout.Title
	}
	return out
}

func TestReconcile_EndToEndScenario(t *testing.T) {
	programID := primitive.NewObjectID()
	athleteID := primitive.NewObjectID()
	enrollment := activeEnrollment(programID, day(2024, time.January, 1), intPtr(4))

	a := programWorkout(programID, 7, "A")
	b := programWorkout(programID, 1, "B")
	b.ScheduledDate = strPtr("2024-01-20")

	all := Reconcile(ReconcileInput{
		Workouts:    []domain.Workout{b, a},
		Enrollments: []domain.Enrollment{enrollment},
		AthleteID:   athleteID,
		Now:         day(2024, time.January, 2),
	})
	require.Len(t, all.Workouts, 2)
	assert.Equal(t, []string{"A", "B"}, titles(all.Workouts))
	assert.Equal(t, "2024-01-08", all.Workouts[0].DateKey)
	assert.Equal(t, SourceProgram, all.Workouts[0].Source)
	assert.Equal(t, "2024-01-20", all.Workouts[1].DateKey)
	assert.Equal(t, SourceExplicit, all.Workouts[1].Source)

	ranged := ReconcileWorkoutsForCalendar(ReconcileInput{
		Workouts:    []domain.Workout{b, a},
		Enrollments: []domain.Enrollment{enrollment},
		AthleteID:   athleteID,
		Range:       &DateRange{From: day(2024, time.January, 1), To: day(2024, time.January, 14)},
		Now:         day(2024, time.January, 2),
	})
	require.Len(t, ranged, 1)
	assert.Equal(t, "A", ranged[0].Workout.Title)
	assert.Equal(t, day(2024, time.January, 8), ranged[0].Date)
}

func TestReconcile_ExplicitDatePrecedence(t *testing.T) {
	programID := primitive.NewObjectID()
	w := programWorkout(programID, 3, "explicit")
	w.ScheduledDate = strPtr("2024-05-05")

	// No enrollment at all: the explicit date still places it.
	got := ReconcileWorkoutsForCalendar(ReconcileInput{Workouts: []domain.Workout{w}})
	require.Len(t, got, 1)
	assert.Equal(t, day(2024, time.May, 5), got[0].Date)
	assert.Equal(t, SourceExplicit, got[0].Source)
}

func TestReconcile_UnparseableExplicitDateFallsBack(t *testing.T) {
	programID := primitive.NewObjectID()
	w := programWorkout(programID, 2, "fallback")
	w.ScheduledDate = strPtr("soon")

	got := ReconcileWorkoutsForCalendar(ReconcileInput{
		Workouts:    []domain.Workout{w},
		Enrollments: []domain.Enrollment{activeEnrollment(programID, day(2024, time.January, 1), nil)},
	})
	require.Len(t, got, 1)
	assert.Equal(t, day(2024, time.January, 2), got[0].Date)
	assert.Equal(t, SourceProgram, got[0].Source)
}

func TestReconcile_DurationExhaustion(t *testing.T) {
	programID := primitive.NewObjectID()
	enrollment := activeEnrollment(programID, day(2024, time.January, 1), intPtr(2))
	w12 := programWorkout(programID, 12, "day 12")
	w13 := programWorkout(programID, 13, "day 13")

	res := Reconcile(ReconcileInput{
		Workouts:    []domain.Workout{w12, w13},
		Enrollments: []domain.Enrollment{enrollment},
	})
	require.Len(t, res.Workouts, 1)
	assert.Equal(t, "day 12", res.Workouts[0].Workout.Title)
	assert.Equal(t, day(2024, time.January, 13), res.Workouts[0].Date)
	assert.Equal(t, []Omission{{WorkoutID: w13.ID, Reason: ReasonBeyondDuration}}, res.Omitted)
}

func TestReconcile_Omissions(t *testing.T) {
	programID := primitive.NewObjectID()
	otherProgram := primitive.NewObjectID()
	pendingProgram := primitive.NewObjectID()

	enrollment := activeEnrollment(programID, day(2024, time.January, 1), intPtr(4))
	enrollment.EndDate = timePtr(day(2024, time.January, 10))
	pending := activeEnrollment(pendingProgram, day(2024, time.January, 1), intPtr(4))
	pending.Status = domain.EnrollmentPending

	template := programWorkout(programID, 1, "template")
	template.IsTemplate = true
	templateDated := template
	templateDated.ID = primitive.NewObjectID()
	templateDated.ScheduledDate = strPtr("2024-01-03")
	orphan := programWorkout(otherProgram, 1, "orphan")
	awaiting := programWorkout(pendingProgram, 1, "awaiting approval")
	afterEnd := programWorkout(programID, 10, "after end") // 2024-01-11
	dateless := domain.Workout{ID: primitive.NewObjectID(), Title: "personal, no date"}
	zeroDay := programWorkout(programID, 0, "zero day")

	res := Reconcile(ReconcileInput{
		Workouts:    []domain.Workout{template, templateDated, orphan, awaiting, afterEnd, dateless, zeroDay},
		Enrollments: []domain.Enrollment{enrollment, pending},
	})
	assert.Empty(t, res.Workouts)
	assert.Equal(t, []Omission{
		{WorkoutID: template.ID, Reason: ReasonTemplate},
		{WorkoutID: templateDated.ID, Reason: ReasonTemplate},
		{WorkoutID: orphan.ID, Reason: ReasonNoActiveEnrollment},
		{WorkoutID: awaiting.ID, Reason: ReasonNoActiveEnrollment},
		{WorkoutID: afterEnd.ID, Reason: ReasonAfterEnd},
		{WorkoutID: dateless.ID, Reason: ReasonUnplaceable},
		{WorkoutID: zeroDay.ID, Reason: ReasonUnplaceable},
	}, res.Omitted)
}

func TestReconcile_FiltersCheckInsToAthlete(t *testing.T) {
	athleteID := primitive.NewObjectID()
	otherAthlete := primitive.NewObjectID()
	w := domain.Workout{
		ID:            primitive.NewObjectID(),
		ScheduledDate: strPtr("2024-02-01"),
		CheckIns: []domain.CheckIn{
			{ID: primitive.NewObjectID(), AthleteID: otherAthlete},
			{ID: primitive.NewObjectID(), AthleteID: athleteID},
		},
	}

	got := ReconcileWorkoutsForCalendar(ReconcileInput{Workouts: []domain.Workout{w}, AthleteID: athleteID})
	require.Len(t, got, 1)
	require.Len(t, got[0].Workout.CheckIns, 1)
	assert.Equal(t, athleteID, got[0].Workout.CheckIns[0].AthleteID)
	// The caller's slice is left untouched.
	assert.Len(t, w.CheckIns, 2)
}

func TestReconcile_StableTies(t *testing.T) {
	var workouts []domain.Workout
	for _, title := range []string{"first", "second", "third"} {
		workouts = append(workouts, domain.Workout{ID: primitive.NewObjectID(), Title: title, ScheduledDate: strPtr("2024-04-01")})
	}
	workouts = append([]domain.Workout{{ID: primitive.NewObjectID(), Title: "later", ScheduledDate: strPtr("2024-04-02")}}, workouts...)

	got := ReconcileWorkoutsForCalendar(ReconcileInput{Workouts: workouts})
	assert.Equal(t, []string{"first", "second", "third", "later"}, titles(got))
}

func TestReconcile_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	programs := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}
	enrollments := []domain.Enrollment{
		activeEnrollment(programs[0], day(2024, time.January, 1), intPtr(4)),
		activeEnrollment(programs[1], day(2024, time.January, 17), nil),
	}

	var workouts []domain.Workout
	for i := 0; i < 300; i++ {
		w := programWorkout(programs[rng.Intn(len(programs))], rng.Intn(40), "")
		if rng.Intn(3) == 0 {
			w.ScheduledDate = strPtr(day(2024, time.January, 1).AddDate(0, 0, rng.Intn(60)).Format(DateKeyLayout))
		}
		workouts = append(workouts, w)
	}
	in := ReconcileInput{
		Workouts:    workouts,
		Enrollments: enrollments,
		Range:       &DateRange{From: day(2024, time.January, 5), To: day(2024, time.February, 20)},
		Now:         day(2024, time.January, 1),
	}

	first := Reconcile(in)
	second := Reconcile(in)
	assert.Equal(t, first, second)
	for i := 1; i < len(first.Workouts); i++ {
		assert.False(t, first.Workouts[i].Date.Before(first.Workouts[i-1].Date))
	}
	assert.Equal(t, len(workouts), len(first.Workouts)+len(first.Omitted))
}

func TestComputeDayNumberFromDate(t *testing.T) {
	start := day(2024, time.January, 1) // Monday

	n, ok := ComputeDayNumberFromDate(start, day(2024, time.January, 1))
	require.True(t, ok)
	assert.Equal(t, 1, n)

	n, ok = ComputeDayNumberFromDate(start, day(2024, time.January, 9))
	require.True(t, ok)
	assert.Equal(t, 8, n)

	_, ok = ComputeDayNumberFromDate(start, day(2024, time.January, 7)) // 7th day of the week
	assert.False(t, ok)
	_, ok = ComputeDayNumberFromDate(start, day(2024, time.January, 21))
	assert.False(t, ok)
	_, ok = ComputeDayNumberFromDate(start, day(2023, time.December, 30))
	assert.False(t, ok)
}

func TestComputeDayNumberFromDate_RoundTrip(t *testing.T) {
	programID := primitive.NewObjectID()
	start := day(2024, time.March, 4)
	enrollment := activeEnrollment(programID, start, nil)

	for d := 1; d <= 200; d++ {
		got := ReconcileWorkoutsForCalendar(ReconcileInput{
			Workouts:    []domain.Workout{programWorkout(programID, d, "")},
			Enrollments: []domain.Enrollment{enrollment},
		})
		require.Len(t, got, 1)
		n, ok := ComputeDayNumberFromDate(start, got[0].Date)
		require.True(t, ok, "day %d", d)
		assert.Equal(t, d, n)
	}
}

func TestWorkoutsOnAndCurrent(t *testing.T) {
	resolved := ReconcileWorkoutsForCalendar(ReconcileInput{Workouts: []domain.Workout{
		{ID: primitive.NewObjectID(), Title: "am", ScheduledDate: strPtr("2024-06-03")},
		{ID: primitive.NewObjectID(), Title: "pm", ScheduledDate: strPtr("2024-06-03")},
		{ID: primitive.NewObjectID(), Title: "next", ScheduledDate: strPtr("2024-06-04")},
	}})

	assert.Equal(t, []string{"am", "pm"}, titles(WorkoutsOn(resolved, day(2024, time.June, 3).Add(18*time.Hour))))

	cur, ok := CurrentWorkout(resolved, day(2024, time.June, 4))
	require.True(t, ok)
	assert.Equal(t, "next", cur.Workout.Title)

	_, ok = CurrentWorkout(resolved, day(2024, time.June, 5))
	assert.False(t, ok)

	groups := GroupByDateKey(resolved)
	assert.Len(t, groups["2024-06-03"], 2)
	assert.Len(t, groups["2024-06-04"], 1)
}

func TestReconcile_InjectedLocation(t *testing.T) {
	east := time.FixedZone("UTC+10", 10*3600)
	west := time.FixedZone("UTC-8", -8*3600)
	programID := primitive.NewObjectID()

	// Sunday evening in UTC is already Monday morning in east.
	started := time.Date(2024, time.January, 7, 20, 0, 0, 0, time.UTC)
	enrollment := domain.Enrollment{
		ID:        primitive.NewObjectID(),
		ProgramID: programID,
		Status:    domain.EnrollmentActive,
		StartDate: &started,
	}
	explicit := domain.Workout{ID: primitive.NewObjectID(), Title: "explicit", ScheduledDate: strPtr("2024-01-10")}
	first := programWorkout(programID, 1, "first")

	tests := []struct {
		loc       *time.Location
		wantFirst string
	}{
		{east, "2024-01-08"},
		{west, "2024-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.loc.String(), func(t *testing.T) {
			res := Reconcile(ReconcileInput{
				Workouts:    []domain.Workout{explicit, first},
				Enrollments: []domain.Enrollment{enrollment},
				Now:         started,
				Location:    tt.loc,
			})
			require.Len(t, res.Workouts, 2)
			assert.Equal(t, "first", res.Workouts[0].Workout.Title)
			assert.Equal(t, tt.wantFirst, res.Workouts[0].DateKey)
			assert.Equal(t, "2024-01-10", res.Workouts[1].DateKey)
			for _, rw := range res.Workouts {
				assert.Equal(t, tt.loc, rw.Date.Location())
			}

			s, ok := DeriveProgramScheduleIn(&enrollment, started, tt.loc)
			require.True(t, ok)
			assert.Equal(t, tt.wantFirst, s.Start.Format(DateKeyLayout))
		})
	}
}
