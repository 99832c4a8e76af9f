package service

import (
	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/notify"
	"alcyxob/strength-academy/internal/repository"
	"alcyxob/strength-academy/internal/schedule"
	"alcyxob/strength-academy/internal/storage"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrAthleteNotFound        = errors.New("athlete not found")
	ErrNotAnAthlete           = errors.New("user found but is not an athlete")
	ErrAthleteAlreadyCoached  = errors.New("athlete is already coached by someone else")
	ErrAthleteNotManaged      = errors.New("athlete is not managed by this coach")
	ErrWorkoutAccessDenied    = errors.New("access denied to modify this workout")
	ErrDateNotTrainingDay     = errors.New("selected date falls outside this program's training days")
	ErrTemplateNotSchedulable = errors.New("template workouts cannot be scheduled")
)

type CoachService interface {
	// Athlete management
	AddAthleteByEmail(ctx context.Context, coachID primitive.ObjectID, email string) (*domain.User, error)
	GetManagedAthletes(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
	GetAthleteCalendar(ctx context.Context, coachID, athleteID primitive.ObjectID, rng *schedule.DateRange) (*CalendarView, error)

	// Workouts
	CreatePersonalWorkout(ctx context.Context, coachID, athleteID primitive.ObjectID, in WorkoutInput) (*domain.Workout, error)
	UpdateWorkout(ctx context.Context, coachID, workoutID primitive.ObjectID, in WorkoutInput) (*domain.Workout, error)
	AssignWorkoutDate(ctx context.Context, coachID, athleteID, workoutID primitive.ObjectID, date time.Time) (*domain.Workout, error)

	// Check-ins
	ReviewCheckIn(ctx context.Context, coachID, checkInID primitive.ObjectID, status domain.CheckInStatus, feedback string) (*domain.CheckIn, error)
	GetCheckInMediaURL(ctx context.Context, coachID, checkInID, mediaID primitive.ObjectID) (string, error)
}

type coachService struct {
	userRepo       repository.UserRepository
	programRepo    repository.ProgramRepository
	enrollmentRepo repository.EnrollmentRepository
	workoutRepo    repository.WorkoutRepository
	checkInRepo    repository.CheckInRepository
	mediaRepo      repository.MediaRepository
	calendar       CalendarService
	fileStorage    storage.FileStorage
	notifier       notify.Notifier
	logger         *zap.Logger
	now            func() time.Time
}

// CoachDeps groups the collaborators of the coach service.
type CoachDeps struct {
	UserRepo       repository.UserRepository
	ProgramRepo    repository.ProgramRepository
	EnrollmentRepo repository.EnrollmentRepository
	WorkoutRepo    repository.WorkoutRepository
	CheckInRepo    repository.CheckInRepository
	MediaRepo      repository.MediaRepository
	Calendar       CalendarService
	FileStorage    storage.FileStorage
	Notifier       notify.Notifier
	Logger         *zap.Logger
}

func NewCoachService(deps CoachDeps) CoachService {
	return &coachService{
		userRepo:       deps.UserRepo,
		programRepo:    deps.ProgramRepo,
		enrollmentRepo: deps.EnrollmentRepo,
		workoutRepo:    deps.WorkoutRepo,
		checkInRepo:    deps.CheckInRepo,
		mediaRepo:      deps.MediaRepo,
		calendar:       deps.Calendar,
		fileStorage:    deps.FileStorage,
		notifier:       deps.Notifier,
		logger:         deps.Logger,
		now:            time.Now,
	}
}

// === Athlete Management ===

// AddAthleteByEmail finds an athlete by email and links them to the coach.
func (s *coachService) AddAthleteByEmail(ctx context.Context, coachID primitive.ObjectID, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, validationError("athlete email is required")
	}

	athlete, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAthleteNotFound
		}
		return nil, err
	}
	if !athlete.IsAthlete() {
		return nil, ErrNotAnAthlete
	}

	if athlete.CoachID != nil && *athlete.CoachID != primitive.NilObjectID {
		if *athlete.CoachID == coachID {
			athlete.PasswordHash = ""
			return athlete, nil
		}
		return nil, ErrAthleteAlreadyCoached
	}

	if err := s.userRepo.AddAthleteToCoach(ctx, coachID, athlete.ID); err != nil {
		return nil, err
	}
	if err := s.userRepo.SetCoachForAthlete(ctx, athlete.ID, coachID); err != nil {
		return nil, err
	}

	athlete.CoachID = &coachID
	athlete.PasswordHash = ""
	return athlete, nil
}

// GetManagedAthletes retrieves the athletes coached by coachID.
func (s *coachService) GetManagedAthletes(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	athletes, err := s.userRepo.GetAthletesByCoachID(ctx, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	for i := range athletes {
		athletes[i].PasswordHash = ""
	}
	return athletes, nil
}

func (s *coachService) GetAthleteCalendar(ctx context.Context, coachID, athleteID primitive.ObjectID, rng *schedule.DateRange) (*CalendarView, error) {
	if _, err := s.managedAthlete(ctx, coachID, athleteID); err != nil {
		return nil, err
	}
	return s.calendar.GetCalendar(ctx, athleteID, rng)
}

// === Workouts ===

// CreatePersonalWorkout authors a workout for a single athlete.
func (s *coachService) CreatePersonalWorkout(ctx context.Context, coachID, athleteID primitive.ObjectID, in WorkoutInput) (*domain.Workout, error) {
	if _, err := s.managedAthlete(ctx, coachID, athleteID); err != nil {
		return nil, err
	}
	if err := validateWorkoutInput(in); err != nil {
		return nil, err
	}
	if in.ScheduledDate == nil && !in.IsTemplate {
		return nil, validationError("a personal workout needs a scheduled date")
	}
	in.DayNumber = nil

	aid := athleteID
	workout := &domain.Workout{CoachID: coachID, AthleteID: &aid}
	applyWorkoutInput(workout, in)

	id, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	workout.ID = id
	return workout, nil
}

// UpdateWorkout edits a workout the coach authored.
func (s *coachService) UpdateWorkout(ctx context.Context, coachID, workoutID primitive.ObjectID, in WorkoutInput) (*domain.Workout, error) {
	workout, err := s.ownedWorkout(ctx, coachID, workoutID)
	if err != nil {
		return nil, err
	}
	if err := validateWorkoutInput(in); err != nil {
		return nil, err
	}
	if workout.ProgramID != nil && in.DayNumber != nil {
		program, err := s.programRepo.GetByID(ctx, *workout.ProgramID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProgramNotFound
			}
			return nil, err
		}
		if !dayFitsProgram(*in.DayNumber, program) {
			return nil, ErrDayNumberOutOfPlan
		}
	}
	if workout.IsPersonal() {
		in.DayNumber = nil
	}
	// Omitted placement fields keep the stored placement.
	if in.DayNumber == nil && workout.ProgramID != nil {
		in.DayNumber = workout.DayNumber
	}
	if in.ScheduledDate == nil {
		in.ScheduledDate = workout.ScheduledDate
	}

	applyWorkoutInput(workout, in)
	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}

// AssignWorkoutDate moves a workout to date on the athlete's calendar. A
// program workout gets the day-number that lands on date under the athlete's
// active enrollment; a personal workout gets date as its scheduled date.
func (s *coachService) AssignWorkoutDate(ctx context.Context, coachID, athleteID, workoutID primitive.ObjectID, date time.Time) (*domain.Workout, error) {
	if _, err := s.managedAthlete(ctx, coachID, athleteID); err != nil {
		return nil, err
	}
	workout, err := s.ownedWorkout(ctx, coachID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.IsTemplate {
		return nil, ErrTemplateNotSchedulable
	}
	date = schedule.StartOfDay(date.In(schedule.Location()))

	switch {
	case workout.ProgramID != nil && !workout.IsPersonal():
		sched, err := s.activeSchedule(ctx, athleteID, *workout.ProgramID)
		if err != nil {
			return nil, err
		}
		day, ok := sched.DayForDate(date)
		if !ok {
			return nil, ErrDateNotTrainingDay
		}
		workout.DayNumber = &day
		workout.ScheduledDate = nil
	case workout.IsPersonal() && *workout.AthleteID == athleteID:
		key := date.Format(schedule.DateKeyLayout)
		workout.ScheduledDate = &key
	default:
		return nil, ErrWorkoutAccessDenied
	}

	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, err
	}
	s.logger.Info("workout date assigned",
		zap.String("workout_id", workoutID.Hex()),
		zap.String("athlete_id", athleteID.Hex()),
		zap.String("date", date.Format(schedule.DateKeyLayout)),
	)
	return workout, nil
}

func (s *coachService) activeSchedule(ctx context.Context, athleteID, programID primitive.ObjectID) (schedule.Schedule, error) {
	enrollments, err := s.enrollmentRepo.GetByAthleteID(ctx, athleteID)
	if err != nil {
		return schedule.Schedule{}, err
	}
	if err := attachDurations(ctx, s.programRepo, enrollments); err != nil {
		return schedule.Schedule{}, err
	}
	sched, ok := schedule.SchedulesByProgram(enrollments, s.now())[programID]
	if !ok {
		return schedule.Schedule{}, ErrEnrollmentNotActive
	}
	return sched, nil
}

// === Check-ins ===

// ReviewCheckIn records coach feedback and moves a submitted check-in to
// reviewed or needs_revision. A revision request reopens the athlete's edit
// window and notifies them.
func (s *coachService) ReviewCheckIn(ctx context.Context, coachID, checkInID primitive.ObjectID, status domain.CheckInStatus, feedback string) (*domain.CheckIn, error) {
	checkIn, err := s.checkInRepo.GetByID(ctx, checkInID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCheckInNotFound
		}
		return nil, err
	}
	athlete, err := s.managedAthlete(ctx, coachID, checkIn.AthleteID)
	if err != nil {
		return nil, err
	}
	if !checkIn.CoachCanMove(status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, checkIn.Status, status)
	}

	now := s.now().UTC()
	checkIn.Status = status
	checkIn.CoachFeedback = feedback
	checkIn.ReviewedAt = &now
	if status == domain.CheckInNeedsRevision {
		checkIn.RevisionRequestedAt = &now
	}
	if err := s.checkInRepo.Update(ctx, checkIn); err != nil {
		return nil, err
	}

	msg := notify.Message{To: athlete.Email}
	switch status {
	case domain.CheckInNeedsRevision:
		msg.Subject = "Your coach asked for a revision"
		msg.HTML = fmt.Sprintf("<p>Please update your check-in by %s.</p><p>%s</p>",
			now.Add(schedule.RevisionWindow).In(schedule.Location()).Format(time.RFC1123), html.EscapeString(feedback))
	default:
		msg.Subject = "Your check-in was reviewed"
		msg.HTML = fmt.Sprintf("<p>%s</p>", html.EscapeString(feedback))
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Warn("notification failed", zap.String("check_in_id", checkInID.Hex()), zap.Error(err))
	}
	return checkIn, nil
}

// GetCheckInMediaURL returns a temporary download URL for media attached to
// a check-in of a managed athlete.
func (s *coachService) GetCheckInMediaURL(ctx context.Context, coachID, checkInID, mediaID primitive.ObjectID) (string, error) {
	checkIn, err := s.checkInRepo.GetByID(ctx, checkInID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrCheckInNotFound
		}
		return "", err
	}
	if _, err := s.managedAthlete(ctx, coachID, checkIn.AthleteID); err != nil {
		return "", err
	}
	return mediaDownloadURL(ctx, s.mediaRepo, s.fileStorage, checkIn.ID, mediaID)
}

// === Helpers ===

func (s *coachService) managedAthlete(ctx context.Context, coachID, athleteID primitive.ObjectID) (*domain.User, error) {
	athlete, err := s.userRepo.GetByID(ctx, athleteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAthleteNotFound
		}
		return nil, err
	}
	if !athlete.IsAthlete() {
		return nil, ErrNotAnAthlete
	}
	if !athlete.CoachedBy(coachID) {
		return nil, ErrAthleteNotManaged
	}
	return athlete, nil
}

func (s *coachService) ownedWorkout(ctx context.Context, coachID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if workout.CoachID != coachID {
		return nil, ErrWorkoutAccessDenied
	}
	return workout, nil
}
