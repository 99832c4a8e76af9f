package repository

import (
	"alcyxob/strength-academy/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("already exists")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	AddAthleteToCoach(ctx context.Context, coachID, athleteID primitive.ObjectID) error
	GetAthletesByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
	SetCoachForAthlete(ctx context.Context, athleteID, coachID primitive.ObjectID) error
}

// ProgramRepository defines the interface for interacting with program data.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Program, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Program, error)
	List(ctx context.Context) ([]domain.Program, error)
	Update(ctx context.Context, program *domain.Program) error
	Delete(ctx context.Context, id, coachID primitive.ObjectID) error // coach must own the program
}

// EnrollmentRepository defines the interface for interacting with enrollment data.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *domain.Enrollment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Enrollment, error)
	// GetByAthleteID returns enrollments oldest first.
	GetByAthleteID(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Enrollment, error)
	GetByProgramIDs(ctx context.Context, programIDs []primitive.ObjectID) ([]domain.Enrollment, error)
	GetActive(ctx context.Context) ([]domain.Enrollment, error)
	Update(ctx context.Context, enrollment *domain.Enrollment) error
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, workouts []domain.Workout) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.Workout, error)
	// GetForAthlete returns the athlete's personal workouts plus every
	// workout of the given programs.
	GetForAthlete(ctx context.Context, athleteID primitive.ObjectID, programIDs []primitive.ObjectID) ([]domain.Workout, error)
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id, coachID primitive.ObjectID) error
}

// CheckInRepository defines the interface for interacting with check-in data.
type CheckInRepository interface {
	Create(ctx context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CheckIn, error)
	GetByWorkoutIDs(ctx context.Context, workoutIDs []primitive.ObjectID) ([]domain.CheckIn, error)
	GetByAthleteAndWorkout(ctx context.Context, athleteID, workoutID primitive.ObjectID) ([]domain.CheckIn, error)
	Update(ctx context.Context, checkIn *domain.CheckIn) error
}

// MediaRepository defines the interface for interacting with check-in media metadata.
type MediaRepository interface {
	Create(ctx context.Context, media *domain.Media) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Media, error)
	GetByCheckInID(ctx context.Context, checkInID primitive.ObjectID) ([]domain.Media, error)
}
