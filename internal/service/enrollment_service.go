package service

import (
	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/notify"
	"alcyxob/strength-academy/internal/repository"
	"alcyxob/strength-academy/internal/schedule"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrAlreadyEnrolled     = errors.New("athlete already has an open enrollment in this program")
	ErrEnrollmentNotActive = errors.New("enrollment is not active")
)

// EnrollmentSchedule is the derived schedule of one enrollment and its
// training dates within a requested window.
type EnrollmentSchedule struct {
	Enrollment *domain.Enrollment `json:"enrollment"`
	Schedule   schedule.Schedule  `json:"schedule"`
	Dates      []time.Time        `json:"dates"`
}

type EnrollmentService interface {
	RequestEnrollment(ctx context.Context, athleteID, programID primitive.ObjectID, startDate *time.Time) (*domain.Enrollment, error)
	GetAthleteEnrollments(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Enrollment, error)
	GetCoachEnrollments(ctx context.Context, coachID primitive.ObjectID) ([]domain.Enrollment, error)
	Approve(ctx context.Context, coachID, enrollmentID primitive.ObjectID, startDate *time.Time) (*domain.Enrollment, error)
	Cancel(ctx context.Context, coachID, enrollmentID primitive.ObjectID) (*domain.Enrollment, error)
	Complete(ctx context.Context, coachID, enrollmentID primitive.ObjectID) (*domain.Enrollment, error)
	CompleteExpiredEnrollments(ctx context.Context, now time.Time) (int, error)
	GetEnrollmentSchedule(ctx context.Context, userID primitive.ObjectID, enrollmentID primitive.ObjectID, from, to time.Time) (*EnrollmentSchedule, error)
}

type enrollmentService struct {
	enrollmentRepo repository.EnrollmentRepository
	programRepo    repository.ProgramRepository
	userRepo       repository.UserRepository
	notifier       notify.Notifier
	logger         *zap.Logger
	now            func() time.Time
}

func NewEnrollmentService(
	enrollmentRepo repository.EnrollmentRepository,
	programRepo repository.ProgramRepository,
	userRepo repository.UserRepository,
	notifier notify.Notifier,
	logger *zap.Logger,
) EnrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		programRepo:    programRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
	}
}

// RequestEnrollment creates a pending enrollment that a coach must approve.
func (s *enrollmentService) RequestEnrollment(ctx context.Context, athleteID, programID primitive.ObjectID, startDate *time.Time) (*domain.Enrollment, error) {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}

	existing, err := s.enrollmentRepo.GetByAthleteID(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.ProgramID == programID && (e.Status == domain.EnrollmentPending || e.Status == domain.EnrollmentActive) {
			return nil, ErrAlreadyEnrolled
		}
	}

	enrollment := &domain.Enrollment{
		AthleteID: athleteID,
		ProgramID: programID,
		Status:    domain.EnrollmentPending,
		StartDate: normalizeDate(startDate),
	}
	id, err := s.enrollmentRepo.Create(ctx, enrollment)
	if err != nil {
		return nil, err
	}
	enrollment.ID = id
	enrollment.DurationWeeks = program.DurationWeeks
	return enrollment, nil
}

func (s *enrollmentService) GetAthleteEnrollments(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Enrollment, error) {
	enrollments, err := s.enrollmentRepo.GetByAthleteID(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if err := attachDurations(ctx, s.programRepo, enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// GetCoachEnrollments lists enrollments into any of the coach's programs.
func (s *enrollmentService) GetCoachEnrollments(ctx context.Context, coachID primitive.ObjectID) ([]domain.Enrollment, error) {
	programs, err := s.programRepo.GetByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(programs))
	for i, p := range programs {
		ids[i] = p.ID
	}
	enrollments, err := s.enrollmentRepo.GetByProgramIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := attachDurations(ctx, s.programRepo, enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// Approve activates a pending enrollment. The start date defaults to the
// requested one, then today. An athlete without a coach is linked to the
// approving coach.
func (s *enrollmentService) Approve(ctx context.Context, coachID, enrollmentID primitive.ObjectID, startDate *time.Time) (*domain.Enrollment, error) {
	enrollment, program, err := s.loadOwned(ctx, coachID, enrollmentID)
	if err != nil {
		return nil, err
	}
	if !enrollment.CanTransitionTo(domain.EnrollmentActive) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, enrollment.Status, domain.EnrollmentActive)
	}

	if start := normalizeDate(startDate); start != nil {
		enrollment.StartDate = start
	} else if enrollment.StartDate == nil {
		enrollment.StartDate = normalizeDate(ptr(s.now()))
	}
	enrollment.Status = domain.EnrollmentActive
	enrollment.ApprovedBy = &coachID
	if err := s.enrollmentRepo.Update(ctx, enrollment); err != nil {
		return nil, err
	}

	athlete, err := s.userRepo.GetByID(ctx, enrollment.AthleteID)
	if err != nil {
		s.logger.Warn("approved enrollment for missing athlete", zap.String("enrollment_id", enrollmentID.Hex()), zap.Error(err))
		return enrollment, nil
	}
	if athlete.CoachID == nil {
		if err := s.linkAthlete(ctx, coachID, athlete.ID); err != nil {
			s.logger.Warn("failed to link athlete to coach", zap.String("athlete_id", athlete.ID.Hex()), zap.Error(err))
		}
	}

	s.send(ctx, notify.Message{
		To:      athlete.Email,
		Subject: fmt.Sprintf("You're in: %s", program.Name),
		HTML: fmt.Sprintf("<p>Your enrollment in <strong>%s</strong> was approved. Training starts %s.</p>",
			program.Name, schedule.FormatForDisplay(enrollment.StartDate, "")),
	})
	return enrollment, nil
}

func (s *enrollmentService) Cancel(ctx context.Context, coachID, enrollmentID primitive.ObjectID) (*domain.Enrollment, error) {
	return s.transition(ctx, coachID, enrollmentID, domain.EnrollmentCancelled)
}

// Complete closes an active enrollment. Its end date is set to today when
// none was recorded.
func (s *enrollmentService) Complete(ctx context.Context, coachID, enrollmentID primitive.ObjectID) (*domain.Enrollment, error) {
	return s.transition(ctx, coachID, enrollmentID, domain.EnrollmentCompleted)
}

func (s *enrollmentService) transition(ctx context.Context, coachID, enrollmentID primitive.ObjectID, next domain.EnrollmentStatus) (*domain.Enrollment, error) {
	enrollment, _, err := s.loadOwned(ctx, coachID, enrollmentID)
	if err != nil {
		return nil, err
	}
	if !enrollment.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, enrollment.Status, next)
	}
	enrollment.Status = next
	if next == domain.EnrollmentCompleted && enrollment.EndDate == nil {
		enrollment.EndDate = normalizeDate(ptr(s.now()))
	}
	if err := s.enrollmentRepo.Update(ctx, enrollment); err != nil {
		return nil, err
	}
	s.logger.Info("enrollment status changed",
		zap.String("enrollment_id", enrollmentID.Hex()),
		zap.String("status", string(next)),
	)
	return enrollment, nil
}

// CompleteExpiredEnrollments marks active enrollments whose schedule ended
// before today as completed and returns how many were changed.
func (s *enrollmentService) CompleteExpiredEnrollments(ctx context.Context, now time.Time) (int, error) {
	active, err := s.enrollmentRepo.GetActive(ctx)
	if err != nil {
		return 0, err
	}
	if err := attachDurations(ctx, s.programRepo, active); err != nil {
		return 0, err
	}

	today := schedule.StartOfDay(now.In(schedule.Location()))
	completed := 0
	for i := range active {
		e := &active[i]
		sched, ok := schedule.DeriveProgramSchedule(e, now)
		if !ok || sched.OpenEnded() || !sched.End.Before(today) {
			continue
		}
		e.Status = domain.EnrollmentCompleted
		if e.EndDate == nil {
			end := sched.End
			e.EndDate = &end
		}
		if err := s.enrollmentRepo.Update(ctx, e); err != nil {
			return completed, fmt.Errorf("failed to complete enrollment %s: %w", e.ID.Hex(), err)
		}
		completed++
	}
	return completed, nil
}

// GetEnrollmentSchedule lists the training dates of an active enrollment
// between from and to. The athlete and the program's coach may read it.
func (s *enrollmentService) GetEnrollmentSchedule(ctx context.Context, userID, enrollmentID primitive.ObjectID, from, to time.Time) (*EnrollmentSchedule, error) {
	enrollment, program, err := s.load(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.AthleteID != userID && program.CoachID != userID {
		return nil, ErrAccessDenied
	}
	enrollment.DurationWeeks = program.DurationWeeks

	sched, ok := schedule.DeriveProgramSchedule(enrollment, s.now())
	if !ok {
		return nil, ErrEnrollmentNotActive
	}
	if from.IsZero() {
		from = sched.Start
	}
	if to.IsZero() {
		to = schedule.AddDays(from, 4*7-1)
	}
	dates := sched.TrainingDates(from, to)
	if dates == nil {
		dates = []time.Time{}
	}
	return &EnrollmentSchedule{Enrollment: enrollment, Schedule: sched, Dates: dates}, nil
}

func (s *enrollmentService) load(ctx context.Context, enrollmentID primitive.ObjectID) (*domain.Enrollment, *domain.Program, error) {
	enrollment, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrEnrollmentNotFound
		}
		return nil, nil, err
	}
	program, err := s.programRepo.GetByID(ctx, enrollment.ProgramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrProgramNotFound
		}
		return nil, nil, err
	}
	return enrollment, program, nil
}

// loadOwned loads an enrollment whose program belongs to coachID.
func (s *enrollmentService) loadOwned(ctx context.Context, coachID, enrollmentID primitive.ObjectID) (*domain.Enrollment, *domain.Program, error) {
	enrollment, program, err := s.load(ctx, enrollmentID)
	if err != nil {
		return nil, nil, err
	}
	if program.CoachID != coachID {
		return nil, nil, ErrAccessDenied
	}
	enrollment.DurationWeeks = program.DurationWeeks
	return enrollment, program, nil
}

func (s *enrollmentService) linkAthlete(ctx context.Context, coachID, athleteID primitive.ObjectID) error {
	if err := s.userRepo.SetCoachForAthlete(ctx, athleteID, coachID); err != nil {
		return err
	}
	return s.userRepo.AddAthleteToCoach(ctx, coachID, athleteID)
}

func (s *enrollmentService) send(ctx context.Context, msg notify.Message) {
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Warn("notification failed", zap.String("subject", msg.Subject), zap.Error(err))
	}
}

// attachDurations copies each referenced program's DurationWeeks onto its
// enrollments. Enrollments whose program is gone keep a nil duration.
func attachDurations(ctx context.Context, programRepo repository.ProgramRepository, enrollments []domain.Enrollment) error {
	if len(enrollments) == 0 {
		return nil
	}
	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, e := range enrollments {
		if !seen[e.ProgramID] {
			seen[e.ProgramID] = true
			ids = append(ids, e.ProgramID)
		}
	}
	programs, err := programRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	durations := make(map[primitive.ObjectID]*int, len(programs))
	for _, p := range programs {
		durations[p.ID] = p.DurationWeeks
	}
	for i := range enrollments {
		enrollments[i].DurationWeeks = durations[enrollments[i].ProgramID]
	}
	return nil
}

// normalizeDate truncates t to midnight in the calendar location.
func normalizeDate(t *time.Time) *time.Time {
	d, ok := schedule.ParseFlexibleDate(t)
	if !ok {
		return nil
	}
	return &d
}

func ptr[T any](v T) *T {
	return &v
}
