package service

import (
	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/repository"
	"alcyxob/strength-academy/internal/schedule"
	"context"
	"errors"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrProgramNotFound    = errors.New("program not found")
	ErrProgramNameTaken   = errors.New("a program with this name already exists")
	ErrWorkoutNotFound    = errors.New("workout not found")
	ErrDayNumberOutOfPlan = errors.New("day number is outside the program's length")
)

// ProgramInput carries the editable fields of a program.
type ProgramInput struct {
	Name          string
	Description   string
	DurationWeeks *int
}

// WorkoutInput carries the editable fields of a workout.
type WorkoutInput struct {
	Title           string
	DurationMinutes int
	Exercises       []domain.ExercisePrescription
	CoachNotes      string
	DayNumber       *int
	ScheduledDate   *string
	IsTemplate      bool
}

// ImportedProgram is the result of a TOML import.
type ImportedProgram struct {
	Program  *domain.Program  `json:"program"`
	Workouts []domain.Workout `json:"workouts"`
}

type ProgramService interface {
	CreateProgram(ctx context.Context, coachID primitive.ObjectID, in ProgramInput) (*domain.Program, error)
	ImportProgram(ctx context.Context, coachID primitive.ObjectID, r io.Reader) (*ImportedProgram, error)
	ListPrograms(ctx context.Context) ([]domain.Program, error)
	GetProgramWorkouts(ctx context.Context, programID primitive.ObjectID) ([]domain.Workout, error)
	AddProgramWorkout(ctx context.Context, coachID, programID primitive.ObjectID, in WorkoutInput) (*domain.Workout, error)
}

type programService struct {
	programRepo repository.ProgramRepository
	workoutRepo repository.WorkoutRepository
	logger      *zap.Logger
}

func NewProgramService(programRepo repository.ProgramRepository, workoutRepo repository.WorkoutRepository, logger *zap.Logger) ProgramService {
	return &programService{
		programRepo: programRepo,
		workoutRepo: workoutRepo,
		logger:      logger,
	}
}

func (s *programService) CreateProgram(ctx context.Context, coachID primitive.ObjectID, in ProgramInput) (*domain.Program, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, validationError("program name is required")
	}
	if in.DurationWeeks != nil && *in.DurationWeeks <= 0 {
		in.DurationWeeks = nil // treated as open-ended
	}

	program := &domain.Program{
		CoachID:       coachID,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		DurationWeeks: in.DurationWeeks,
	}
	id, err := s.programRepo.Create(ctx, program)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrProgramNameTaken
		}
		return nil, err
	}
	program.ID = id
	return program, nil
}

// ImportProgram creates a program and its workouts from a TOML document.
func (s *programService) ImportProgram(ctx context.Context, coachID primitive.ObjectID, r io.Reader) (*ImportedProgram, error) {
	doc, err := ParseProgramDocument(r)
	if err != nil {
		return nil, err
	}

	program := doc.Program(coachID)
	id, err := s.programRepo.Create(ctx, program)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrProgramNameTaken
		}
		return nil, err
	}
	program.ID = id

	workouts := doc.Workouts(program)
	if err := s.workoutRepo.CreateMany(ctx, workouts); err != nil {
		// Leave no half-imported program behind.
		if delErr := s.programRepo.Delete(ctx, program.ID, coachID); delErr != nil {
			s.logger.Error("failed to roll back program import", zap.String("program_id", program.ID.Hex()), zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("program imported",
		zap.String("program_id", program.ID.Hex()),
		zap.String("coach_id", coachID.Hex()),
		zap.Int("workouts", len(workouts)),
	)
	return &ImportedProgram{Program: program, Workouts: workouts}, nil
}

func (s *programService) ListPrograms(ctx context.Context) ([]domain.Program, error) {
	return s.programRepo.List(ctx)
}

func (s *programService) GetProgramWorkouts(ctx context.Context, programID primitive.ObjectID) ([]domain.Workout, error) {
	if _, err := s.getProgram(ctx, programID); err != nil {
		return nil, err
	}
	return s.workoutRepo.GetByProgramID(ctx, programID)
}

// AddProgramWorkout attaches a workout to a program the coach owns.
func (s *programService) AddProgramWorkout(ctx context.Context, coachID, programID primitive.ObjectID, in WorkoutInput) (*domain.Workout, error) {
	program, err := s.getProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	if program.CoachID != coachID {
		return nil, ErrAccessDenied
	}
	if err := validateWorkoutInput(in); err != nil {
		return nil, err
	}
	if in.DayNumber != nil && !dayFitsProgram(*in.DayNumber, program) {
		return nil, ErrDayNumberOutOfPlan
	}

	pid := program.ID
	workout := &domain.Workout{
		CoachID:   coachID,
		ProgramID: &pid,
	}
	applyWorkoutInput(workout, in)

	id, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	workout.ID = id
	return workout, nil
}

func (s *programService) getProgram(ctx context.Context, id primitive.ObjectID) (*domain.Program, error) {
	program, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return program, nil
}

func dayFitsProgram(day int, program *domain.Program) bool {
	if day < 1 {
		return false
	}
	if program.DurationWeeks == nil || *program.DurationWeeks <= 0 {
		return true
	}
	return day <= *program.DurationWeeks*schedule.TrainingDaysPerWeek
}

func validateWorkoutInput(in WorkoutInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return validationError("workout title is required")
	}
	if in.ScheduledDate != nil {
		if _, ok := schedule.ParseFlexibleDate(*in.ScheduledDate); !ok {
			return validationError("scheduled date %q is not a date", *in.ScheduledDate)
		}
	}
	for _, ex := range in.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return validationError("exercise name is required")
		}
	}
	return nil
}

// applyWorkoutInput copies the editable fields; a scheduled date is stored
// in its canonical YYYY-MM-DD form.
func applyWorkoutInput(w *domain.Workout, in WorkoutInput) {
	w.Title = strings.TrimSpace(in.Title)
	w.DurationMinutes = in.DurationMinutes
	w.Exercises = in.Exercises
	w.CoachNotes = in.CoachNotes
	w.DayNumber = in.DayNumber
	w.IsTemplate = in.IsTemplate
	w.ScheduledDate = nil
	if in.ScheduledDate != nil {
		if date, ok := schedule.ParseFlexibleDate(*in.ScheduledDate); ok {
			key := date.Format(schedule.DateKeyLayout)
			w.ScheduledDate = &key
		}
	}
}
