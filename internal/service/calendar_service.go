package service

import (
	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/repository"
	"alcyxob/strength-academy/internal/schedule"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DayCell is one day of a month or week view.
type DayCell struct {
	Date     time.Time                  `json:"date"`
	DateKey  string                     `json:"dateKey"`
	InMonth  bool                       `json:"inMonth"`
	IsToday  bool                       `json:"isToday"`
	Workouts []schedule.ResolvedWorkout `json:"workouts"`
}

// CalendarView is an athlete's reconciled calendar for a range.
type CalendarView struct {
	Workouts []schedule.ResolvedWorkout `json:"workouts"`
	Omitted  []schedule.Omission        `json:"omitted,omitempty"`
}

type MonthView struct {
	Year  int       `json:"year"`
	Month string    `json:"month"`
	Cells []DayCell `json:"cells"`
}

// WeekView is a Sunday-aligned week plus the visible slice shown on narrow screens.
type WeekView struct {
	Days         []DayCell `json:"days"`
	VisibleStart int       `json:"visibleStart"`
	Visible      []DayCell `json:"visible"`
}

// CurrentWorkout is the workout an athlete sees for a day, with the check-in
// they would edit and whether they still can.
type CurrentWorkout struct {
	Workout     *schedule.ResolvedWorkout `json:"workout"`
	CheckIn     *domain.CheckIn           `json:"checkIn"`
	Editability schedule.Editability      `json:"editability"`
}

type CalendarService interface {
	GetCalendar(ctx context.Context, athleteID primitive.ObjectID, rng *schedule.DateRange) (*CalendarView, error)
	GetMonth(ctx context.Context, athleteID primitive.ObjectID, anchor time.Time) (*MonthView, error)
	GetWeek(ctx context.Context, athleteID primitive.ObjectID, anchor time.Time, start int) (*WeekView, error)
	GetCurrentWorkout(ctx context.Context, athleteID primitive.ObjectID, date time.Time) (*CurrentWorkout, error)
}

type calendarService struct {
	enrollmentRepo repository.EnrollmentRepository
	programRepo    repository.ProgramRepository
	workoutRepo    repository.WorkoutRepository
	checkInRepo    repository.CheckInRepository
	logger         *zap.Logger
	now            func() time.Time
	// loc is the calendar location captured at construction.
	loc *time.Location
}

func NewCalendarService(
	enrollmentRepo repository.EnrollmentRepository,
	programRepo repository.ProgramRepository,
	workoutRepo repository.WorkoutRepository,
	checkInRepo repository.CheckInRepository,
	logger *zap.Logger,
) CalendarService {
	return &calendarService{
		enrollmentRepo: enrollmentRepo,
		programRepo:    programRepo,
		workoutRepo:    workoutRepo,
		checkInRepo:    checkInRepo,
		logger:         logger,
		now:            time.Now,
		loc:            schedule.Location(),
	}
}

func (s *calendarService) GetCalendar(ctx context.Context, athleteID primitive.ObjectID, rng *schedule.DateRange) (*CalendarView, error) {
	res, err := s.reconcile(ctx, athleteID, rng)
	if err != nil {
		return nil, err
	}
	return &CalendarView{Workouts: res.Workouts, Omitted: res.Omitted}, nil
}

// GetMonth builds the 42-cell month grid around anchor.
func (s *calendarService) GetMonth(ctx context.Context, athleteID primitive.ObjectID, anchor time.Time) (*MonthView, error) {
	anchor = anchor.In(s.loc)
	grid := schedule.BuildMonthGrid(anchor)

	res, err := s.reconcile(ctx, athleteID, &schedule.DateRange{From: grid[0], To: grid[len(grid)-1]})
	if err != nil {
		return nil, err
	}

	cells := s.cells(grid[:], res.Workouts)
	for i := range cells {
		cells[i].InMonth = cells[i].Date.Month() == anchor.Month()
	}
	return &MonthView{Year: anchor.Year(), Month: anchor.Month().String(), Cells: cells}, nil
}

// GetWeek builds the week around anchor; start selects the first visible day.
func (s *calendarService) GetWeek(ctx context.Context, athleteID primitive.ObjectID, anchor time.Time, start int) (*WeekView, error) {
	week := schedule.BuildWeekWindow(anchor.In(s.loc))

	res, err := s.reconcile(ctx, athleteID, &schedule.DateRange{From: week[0], To: week[len(week)-1]})
	if err != nil {
		return nil, err
	}

	days := s.cells(week[:], res.Workouts)
	visibleStart := schedule.ClampWindowStart(start, schedule.MobileWindowSize)
	return &WeekView{Days: days, VisibleStart: visibleStart, Visible: days[visibleStart : visibleStart+schedule.MobileWindowSize]}, nil
}

// GetCurrentWorkout returns the first workout on date with its current
// check-in. Workout is nil on a day without training.
func (s *calendarService) GetCurrentWorkout(ctx context.Context, athleteID primitive.ObjectID, date time.Time) (*CurrentWorkout, error) {
	day := schedule.StartOfDay(date.In(s.loc))
	res, err := s.reconcile(ctx, athleteID, &schedule.DateRange{From: day, To: day})
	if err != nil {
		return nil, err
	}

	rw, ok := schedule.CurrentWorkout(res.Workouts, day)
	if !ok {
		return &CurrentWorkout{}, nil
	}
	now := s.now()
	current := &CurrentWorkout{Workout: &rw}
	if c := schedule.SelectCurrentCheckIn(rw.Workout.CheckIns, now); c != nil {
		current.CheckIn = c
		current.Editability = schedule.EvaluateCheckInEditability(c, now)
	}
	return current, nil
}

func (s *calendarService) cells(dates []time.Time, resolved []schedule.ResolvedWorkout) []DayCell {
	byKey := schedule.GroupByDateKey(resolved)
	today := s.now().In(s.loc)

	cells := make([]DayCell, len(dates))
	for i, d := range dates {
		key := d.Format(schedule.DateKeyLayout)
		workouts := byKey[key]
		if workouts == nil {
			workouts = []schedule.ResolvedWorkout{}
		}
		cells[i] = DayCell{
			Date:     d,
			DateKey:  key,
			IsToday:  schedule.SameDay(d, today),
			Workouts: workouts,
		}
	}
	return cells
}

// reconcile loads everything one athlete's calendar depends on and places it.
func (s *calendarService) reconcile(ctx context.Context, athleteID primitive.ObjectID, rng *schedule.DateRange) (schedule.Result, error) {
	enrollments, err := s.enrollmentRepo.GetByAthleteID(ctx, athleteID)
	if err != nil {
		return schedule.Result{}, err
	}
	if err := attachDurations(ctx, s.programRepo, enrollments); err != nil {
		return schedule.Result{}, err
	}

	var programIDs []primitive.ObjectID
	for _, e := range enrollments {
		if e.IsActive() {
			programIDs = append(programIDs, e.ProgramID)
		}
	}

	workouts, err := s.workoutRepo.GetForAthlete(ctx, athleteID, programIDs)
	if err != nil {
		return schedule.Result{}, err
	}
	if err := s.attachCheckIns(ctx, workouts); err != nil {
		return schedule.Result{}, err
	}

	res := schedule.Reconcile(schedule.ReconcileInput{
		Workouts:    workouts,
		Enrollments: enrollments,
		AthleteID:   athleteID,
		Range:       rng,
		Now:         s.now(),
		Location:    s.loc,
	})
	s.logOmissions(athleteID, res.Omitted)
	return res, nil
}

func (s *calendarService) attachCheckIns(ctx context.Context, workouts []domain.Workout) error {
	if len(workouts) == 0 {
		return nil
	}
	ids := make([]primitive.ObjectID, len(workouts))
	for i, w := range workouts {
		ids[i] = w.ID
	}
	checkIns, err := s.checkInRepo.GetByWorkoutIDs(ctx, ids)
	if err != nil {
		return err
	}
	byWorkout := make(map[primitive.ObjectID][]domain.CheckIn)
	for _, c := range checkIns {
		byWorkout[c.WorkoutID] = append(byWorkout[c.WorkoutID], c)
	}
	for i := range workouts {
		workouts[i].CheckIns = byWorkout[workouts[i].ID]
	}
	return nil
}

// logOmissions reports unexpected omissions. Templates and out-of-range
// workouts are routine and not counted.
func (s *calendarService) logOmissions(athleteID primitive.ObjectID, omitted []schedule.Omission) {
	counts := make(map[schedule.OmitReason]int)
	for _, o := range omitted {
		if o.Reason == schedule.ReasonTemplate || o.Reason == schedule.ReasonOutOfRange {
			continue
		}
		counts[o.Reason]++
	}
	for reason, n := range counts {
		fields := []zap.Field{
			zap.String("athlete_id", athleteID.Hex()),
			zap.String("reason", string(reason)),
			zap.Int("count", n),
		}
		// Pending approval is expected; anything else is bad workout data.
		if reason == schedule.ReasonNoActiveEnrollment {
			s.logger.Debug("workouts left off calendar", fields...)
			continue
		}
		s.logger.Warn("workouts left off calendar", fields...)
	}
}
