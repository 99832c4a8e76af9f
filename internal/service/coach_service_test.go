package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/schedule"
	"alcyxob/strength-academy/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type coachFixture struct {
	svc      *coachService
	users    *fakeUsers
	workouts *fakeWorkouts
	checkIns *fakeCheckIns
	media    *fakeMedia
	notifier *recordingNotifier
	coach    *domain.User
	athlete  *domain.User
	program  *domain.Program
}

func newCoachFixture(now time.Time) *coachFixture {
	coach := newCoach()
	athlete := newAthlete(coach)
	program := &domain.Program{ID: primitive.NewObjectID(), CoachID: coach.ID, Name: "Base", DurationWeeks: intPtr(4)}
	start := date(2024, time.January, 1)

	f := &coachFixture{
		users:    newFakeUsers(coach, athlete),
		workouts: &fakeWorkouts{},
		checkIns: &fakeCheckIns{},
		media:    &fakeMedia{},
		notifier: &recordingNotifier{},
		coach:    coach,
		athlete:  athlete,
		program:  program,
	}
	programs := newFakePrograms(program)
	enrollments := &fakeEnrollments{items: []*domain.Enrollment{{
		ID:        primitive.NewObjectID(),
		AthleteID: athlete.ID,
		ProgramID: program.ID,
		Status:    domain.EnrollmentActive,
		StartDate: &start,
	}}}
	calendar := NewCalendarService(enrollments, programs, f.workouts, f.checkIns, zap.NewNop())
	calendar.(*calendarService).now = clock(now)

	f.svc = NewCoachService(CoachDeps{
		UserRepo:       f.users,
		ProgramRepo:    programs,
		EnrollmentRepo: enrollments,
		WorkoutRepo:    f.workouts,
		CheckInRepo:    f.checkIns,
		MediaRepo:      f.media,
		Calendar:       calendar,
		FileStorage:    &fakeStorage{objects: map[string]storage.ObjectInfo{}},
		Notifier:       f.notifier,
		Logger:         zap.NewNop(),
	}).(*coachService)
	f.svc.now = clock(now)
	return f
}

func TestCoachService_AddAthleteByEmail(t *testing.T) {
	ctx := context.Background()
	f := newCoachFixture(date(2024, time.January, 2))
	free := &domain.User{ID: primitive.NewObjectID(), Email: "free@example.com", Role: domain.RoleAthlete}
	otherCoach := primitive.NewObjectID()
	taken := &domain.User{ID: primitive.NewObjectID(), Email: "taken@example.com", Role: domain.RoleAthlete, CoachID: &otherCoach}
	f.users.byID[free.ID] = free
	f.users.byID[taken.ID] = taken

	added, err := f.svc.AddAthleteByEmail(ctx, f.coach.ID, "FREE@example.com")
	require.NoError(t, err)
	assert.True(t, added.CoachedBy(f.coach.ID))

	athletes, err := f.svc.GetManagedAthletes(ctx, f.coach.ID)
	require.NoError(t, err)
	assert.Len(t, athletes, 2)

	_, err = f.svc.AddAthleteByEmail(ctx, f.coach.ID, "taken@example.com")
	assert.ErrorIs(t, err, ErrAthleteAlreadyCoached)
	_, err = f.svc.AddAthleteByEmail(ctx, f.coach.ID, "coach@example.com")
	assert.ErrorIs(t, err, ErrNotAnAthlete)
	_, err = f.svc.AddAthleteByEmail(ctx, f.coach.ID, "ghost@example.com")
	assert.ErrorIs(t, err, ErrAthleteNotFound)
}

func TestCoachService_AssignWorkoutDate_ProgramWorkout(t *testing.T) {
	ctx := context.Background()
	f := newCoachFixture(date(2024, time.January, 2))
	w := f.workouts.add(programWorkout(f.coach.ID, f.program.ID, 3, "moveable"))

	moved, err := f.svc.AssignWorkoutDate(ctx, f.coach.ID, f.athlete.ID, w.ID, date(2024, time.January, 9))
	require.NoError(t, err)
	assert.Equal(t, 8, *moved.DayNumber)
	assert.Nil(t, moved.ScheduledDate)

	view, err := f.svc.GetAthleteCalendar(ctx, f.coach.ID, f.athlete.ID, nil)
	require.NoError(t, err)
	require.Len(t, view.Workouts, 1)
	assert.Equal(t, "2024-01-09", view.Workouts[0].DateKey)

	// Sunday is a rest day.
	_, err = f.svc.AssignWorkoutDate(ctx, f.coach.ID, f.athlete.ID, w.ID, date(2024, time.January, 7))
	assert.ErrorIs(t, err, ErrDateNotTrainingDay)
	assert.EqualError(t, err, "selected date falls outside this program's training days")

	// Past the four committed weeks.
	_, err = f.svc.AssignWorkoutDate(ctx, f.coach.ID, f.athlete.ID, w.ID, date(2024, time.January, 29))
	assert.ErrorIs(t, err, ErrDateNotTrainingDay)
}

func TestCoachService_AssignWorkoutDate_PersonalAndDenied(t *testing.T) {
	ctx := context.Background()
	f := newCoachFixture(date(2024, time.January, 2))
	aid := f.athlete.ID
	personal := f.workouts.add(domain.Workout{CoachID: f.coach.ID, AthleteID: &aid, Title: "mobility", ScheduledDate: strPtr("2024-01-02")})

	moved, err := f.svc.AssignWorkoutDate(ctx, f.coach.ID, f.athlete.ID, personal.ID, date(2024, time.January, 7).Add(18*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-07", *moved.ScheduledDate)

	stranger := newAthlete(nil)
	f.users.byID[stranger.ID] = stranger
	_, err = f.svc.AssignWorkoutDate(ctx, f.coach.ID, stranger.ID, personal.ID, date(2024, time.January, 8))
	assert.ErrorIs(t, err, ErrAthleteNotManaged)

	_, err = f.svc.AssignWorkoutDate(ctx, primitive.NewObjectID(), f.athlete.ID, personal.ID, date(2024, time.January, 8))
	assert.ErrorIs(t, err, ErrAthleteNotManaged)

	template := f.workouts.add(domain.Workout{CoachID: f.coach.ID, AthleteID: &aid, Title: "template", IsTemplate: true})
	_, err = f.svc.AssignWorkoutDate(ctx, f.coach.ID, f.athlete.ID, template.ID, date(2024, time.January, 8))
	assert.ErrorIs(t, err, ErrTemplateNotSchedulable)
}

func TestCoachService_PersonalWorkouts(t *testing.T) {
	ctx := context.Background()
	f := newCoachFixture(date(2024, time.January, 2))

	_, err := f.svc.CreatePersonalWorkout(ctx, f.coach.ID, f.athlete.ID, WorkoutInput{Title: "no date"})
	assert.ErrorIs(t, err, ErrValidation)

	w, err := f.svc.CreatePersonalWorkout(ctx, f.coach.ID, f.athlete.ID, WorkoutInput{
		Title:         "Deload",
		ScheduledDate: strPtr("2024-01-10"),
		DayNumber:     intPtr(4),
		CoachNotes:    "Keep it *light*",
	})
	require.NoError(t, err)
	assert.True(t, w.IsPersonal())
	assert.Nil(t, w.DayNumber)

	updated, err := f.svc.UpdateWorkout(ctx, f.coach.ID, w.ID, WorkoutInput{Title: "Deload v2", ScheduledDate: strPtr("2024-01-11")})
	require.NoError(t, err)
	assert.Equal(t, "Deload v2", updated.Title)
	assert.Equal(t, "2024-01-11", *updated.ScheduledDate)

	_, err = f.svc.UpdateWorkout(ctx, primitive.NewObjectID(), w.ID, WorkoutInput{Title: "hijack"})
	assert.ErrorIs(t, err, ErrWorkoutAccessDenied)

	pw := f.workouts.add(programWorkout(f.coach.ID, f.program.ID, 1, "program"))
	_, err = f.svc.UpdateWorkout(ctx, f.coach.ID, pw.ID, WorkoutInput{Title: "program", DayNumber: intPtr(25)})
	assert.ErrorIs(t, err, ErrDayNumberOutOfPlan)
}

func TestCoachService_UpdateWorkout_KeepsPlacement(t *testing.T) {
	ctx := context.Background()
	f := newCoachFixture(date(2024, time.January, 2))

	pw := f.workouts.add(programWorkout(f.coach.ID, f.program.ID, 3, "Pull day"))
	before, err := f.svc.GetAthleteCalendar(ctx, f.coach.ID, f.athlete.ID, nil)
	require.NoError(t, err)
	require.Len(t, before.Workouts, 1)
	assert.Equal(t, "2024-01-03", before.Workouts[0].DateKey)

	updated, err := f.svc.UpdateWorkout(ctx, f.coach.ID, pw.ID, WorkoutInput{Title: "Pull day (heavy)"})
	require.NoError(t, err)
	require.NotNil(t, updated.DayNumber)
	assert.Equal(t, 3, *updated.DayNumber)

	after, err := f.svc.GetAthleteCalendar(ctx, f.coach.ID, f.athlete.ID, nil)
	require.NoError(t, err)
	require.Len(t, after.Workouts, 1)
	assert.Equal(t, "2024-01-03", after.Workouts[0].DateKey)
	assert.Equal(t, "Pull day (heavy)", after.Workouts[0].Workout.Title)
	assert.Empty(t, after.Omitted)

	// A personal workout keeps its date when only the title changes.
	personal, err := f.svc.CreatePersonalWorkout(ctx, f.coach.ID, f.athlete.ID, WorkoutInput{
		Title:         "Mobility",
		ScheduledDate: strPtr("2024-01-10"),
	})
	require.NoError(t, err)
	renamed, err := f.svc.UpdateWorkout(ctx, f.coach.ID, personal.ID, WorkoutInput{Title: "Mobility flow"})
	require.NoError(t, err)
	require.NotNil(t, renamed.ScheduledDate)
	assert.Equal(t, "2024-01-10", *renamed.ScheduledDate)
}

func TestCoachService_ReviewCheckIn(t *testing.T) {
	ctx := context.Background()
	now := date(2024, time.January, 4).Add(9 * time.Hour)
	f := newCoachFixture(now)

	checkIn := &domain.CheckIn{
		ID:          primitive.NewObjectID(),
		WorkoutID:   primitive.NewObjectID(),
		AthleteID:   f.athlete.ID,
		SubmittedAt: now.Add(-30 * time.Hour),
		Status:      domain.CheckInSubmitted,
	}
	f.checkIns.items = []*domain.CheckIn{checkIn}

	got, err := f.svc.ReviewCheckIn(ctx, f.coach.ID, checkIn.ID, domain.CheckInNeedsRevision, "Film the last set please")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckInNeedsRevision, got.Status)
	require.NotNil(t, got.RevisionRequestedAt)

	// The athlete's locked check-in is editable again.
	assert.True(t, schedule.EvaluateCheckInEditability(got, now.Add(time.Hour)).CanEdit)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "Your coach asked for a revision", f.notifier.sent[0].Subject)

	_, err = f.svc.ReviewCheckIn(ctx, f.coach.ID, checkIn.ID, domain.CheckInReviewed, "ok")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.ReviewCheckIn(ctx, primitive.NewObjectID(), checkIn.ID, domain.CheckInReviewed, "ok")
	assert.ErrorIs(t, err, ErrAthleteNotManaged)
}

func TestCoachService_ReviewCheckIn_EscapesFeedback(t *testing.T) {
	ctx := context.Background()
	now := date(2024, time.January, 4).Add(9 * time.Hour)
	f := newCoachFixture(now)

	checkIn := &domain.CheckIn{
		ID:          primitive.NewObjectID(),
		WorkoutID:   primitive.NewObjectID(),
		AthleteID:   f.athlete.ID,
		SubmittedAt: now.Add(-2 * time.Hour),
		Status:      domain.CheckInSubmitted,
	}
	f.checkIns.items = []*domain.CheckIn{checkIn}

	_, err := f.svc.ReviewCheckIn(ctx, f.coach.ID, checkIn.ID, domain.CheckInReviewed, `<a href="x">depth</a> & lockout`)
	require.NoError(t, err)
	require.Len(t, f.notifier.sent, 1)

	body := f.notifier.sent[0].HTML
	assert.Contains(t, body, "&lt;a href=&#34;x&#34;&gt;depth&lt;/a&gt; &amp; lockout")
	assert.NotContains(t, body, "<a ")
}

func TestCoachService_GetCheckInMediaURL(t *testing.T) {
	ctx := context.Background()
	f := newCoachFixture(date(2024, time.January, 4))
	checkIn := &domain.CheckIn{ID: primitive.NewObjectID(), AthleteID: f.athlete.ID, Status: domain.CheckInSubmitted}
	f.checkIns.items = []*domain.CheckIn{checkIn}
	media := &domain.Media{ID: primitive.NewObjectID(), CheckInID: checkIn.ID, AthleteID: f.athlete.ID, S3ObjectKey: "checkins/a/b/c.mp4"}
	f.media.items = []*domain.Media{media}

	url, err := f.svc.GetCheckInMediaURL(ctx, f.coach.ID, checkIn.ID, media.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.test/get/checkins/a/b/c.mp4", url)

	_, err = f.svc.GetCheckInMediaURL(ctx, f.coach.ID, checkIn.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrMediaNotFound)
}
