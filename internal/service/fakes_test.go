package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/notify"
	"alcyxob/strength-academy/internal/repository"
	"alcyxob/strength-academy/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeUsers is an in-memory repository.UserRepository.
type fakeUsers struct {
	byID map[primitive.ObjectID]*domain.User
}

func newFakeUsers(users ...*domain.User) *fakeUsers {
	f := &fakeUsers{byID: map[primitive.ObjectID]*domain.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range f.byID {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	cp := *user
	f.byID[user.ID] = &cp
	return user.ID, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	out := []domain.User{}
	for _, id := range ids {
		if u, err := f.GetByID(ctx, id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) AddAthleteToCoach(_ context.Context, coachID, athleteID primitive.ObjectID) error {
	c, ok := f.byID[coachID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range c.AthleteIDs {
		if id == athleteID {
			return nil
		}
	}
	c.AthleteIDs = append(c.AthleteIDs, athleteID)
	return nil
}

func (f *fakeUsers) GetAthletesByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	c, ok := f.byID[coachID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f.GetByIDs(ctx, c.AthleteIDs)
}

func (f *fakeUsers) SetCoachForAthlete(_ context.Context, athleteID, coachID primitive.ObjectID) error {
	a, ok := f.byID[athleteID]
	if !ok {
		return repository.ErrNotFound
	}
	id := coachID
	a.CoachID = &id
	return nil
}

// fakePrograms is an in-memory repository.ProgramRepository.
type fakePrograms struct {
	byID    map[primitive.ObjectID]*domain.Program
	order   []primitive.ObjectID
	deleted []primitive.ObjectID
}

func newFakePrograms(programs ...*domain.Program) *fakePrograms {
	f := &fakePrograms{byID: map[primitive.ObjectID]*domain.Program{}}
	for _, p := range programs {
		f.byID[p.ID] = p
		f.order = append(f.order, p.ID)
	}
	return f
}

func (f *fakePrograms) Create(_ context.Context, p *domain.Program) (primitive.ObjectID, error) {
	for _, existing := range f.byID {
		if existing.CoachID == p.CoachID && existing.Name == p.Name {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	p.ID = primitive.NewObjectID()
	cp := *p
	f.byID[p.ID] = &cp
	f.order = append(f.order, p.ID)
	return p.ID, nil
}

func (f *fakePrograms) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Program, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePrograms) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Program, error) {
	out := []domain.Program{}
	for _, id := range ids {
		if p, ok := f.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePrograms) GetByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.Program, error) {
	out := []domain.Program{}
	for _, id := range f.order {
		if p, ok := f.byID[id]; ok && p.CoachID == coachID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePrograms) List(_ context.Context) ([]domain.Program, error) {
	out := []domain.Program{}
	for _, id := range f.order {
		if p, ok := f.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePrograms) Update(_ context.Context, p *domain.Program) error {
	if _, ok := f.byID[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePrograms) Delete(_ context.Context, id, coachID primitive.ObjectID) error {
	p, ok := f.byID[id]
	if !ok || p.CoachID != coachID {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeEnrollments is an in-memory repository.EnrollmentRepository that keeps
// insertion order.
type fakeEnrollments struct {
	items []*domain.Enrollment
}

func (f *fakeEnrollments) Create(_ context.Context, e *domain.Enrollment) (primitive.ObjectID, error) {
	e.ID = primitive.NewObjectID()
	cp := *e
	f.items = append(f.items, &cp)
	return e.ID, nil
}

func (f *fakeEnrollments) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Enrollment, error) {
	for _, e := range f.items {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeEnrollments) filter(keep func(*domain.Enrollment) bool) []domain.Enrollment {
	out := []domain.Enrollment{}
	for _, e := range f.items {
		if keep(e) {
			out = append(out, *e)
		}
	}
	return out
}

func (f *fakeEnrollments) GetByAthleteID(_ context.Context, athleteID primitive.ObjectID) ([]domain.Enrollment, error) {
	return f.filter(func(e *domain.Enrollment) bool { return e.AthleteID == athleteID }), nil
}

func (f *fakeEnrollments) GetByProgramIDs(_ context.Context, programIDs []primitive.ObjectID) ([]domain.Enrollment, error) {
	want := map[primitive.ObjectID]bool{}
	for _, id := range programIDs {
		want[id] = true
	}
	return f.filter(func(e *domain.Enrollment) bool { return want[e.ProgramID] }), nil
}

func (f *fakeEnrollments) GetActive(_ context.Context) ([]domain.Enrollment, error) {
	return f.filter(func(e *domain.Enrollment) bool { return e.IsActive() }), nil
}

func (f *fakeEnrollments) Update(_ context.Context, e *domain.Enrollment) error {
	for i, existing := range f.items {
		if existing.ID == e.ID {
			cp := *e
			cp.DurationWeeks = nil
			f.items[i] = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}

// fakeWorkouts is an in-memory repository.WorkoutRepository.
type fakeWorkouts struct {
	items []*domain.Workout
}

func (f *fakeWorkouts) add(w domain.Workout) domain.Workout {
	if w.ID == primitive.NilObjectID {
		w.ID = primitive.NewObjectID()
	}
	cp := w
	f.items = append(f.items, &cp)
	return w
}

func (f *fakeWorkouts) Create(_ context.Context, w *domain.Workout) (primitive.ObjectID, error) {
	w.ID = primitive.NewObjectID()
	f.add(*w)
	return w.ID, nil
}

func (f *fakeWorkouts) CreateMany(_ context.Context, workouts []domain.Workout) error {
	for i := range workouts {
		workouts[i].ID = primitive.NewObjectID()
		f.add(workouts[i])
	}
	return nil
}

func (f *fakeWorkouts) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	for _, w := range f.items {
		if w.ID == id {
			cp := *w
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeWorkouts) GetByProgramID(_ context.Context, programID primitive.ObjectID) ([]domain.Workout, error) {
	out := []domain.Workout{}
	for _, w := range f.items {
		if w.ProgramID != nil && *w.ProgramID == programID {
			out = append(out, *w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DayNumber != nil && out[j].DayNumber != nil && *out[i].DayNumber < *out[j].DayNumber
	})
	return out, nil
}

func (f *fakeWorkouts) GetForAthlete(_ context.Context, athleteID primitive.ObjectID, programIDs []primitive.ObjectID) ([]domain.Workout, error) {
	want := map[primitive.ObjectID]bool{}
	for _, id := range programIDs {
		want[id] = true
	}
	out := []domain.Workout{}
	for _, w := range f.items {
		switch {
		case w.AthleteID != nil:
			if *w.AthleteID == athleteID {
				out = append(out, *w)
			}
		case w.ProgramID != nil && want[*w.ProgramID] && !w.IsTemplate:
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWorkouts) Update(_ context.Context, w *domain.Workout) error {
	for i, existing := range f.items {
		if existing.ID == w.ID && existing.CoachID == w.CoachID {
			cp := *w
			cp.CheckIns = nil
			f.items[i] = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeWorkouts) Delete(_ context.Context, id, coachID primitive.ObjectID) error {
	for i, w := range f.items {
		if w.ID == id && w.CoachID == coachID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// fakeCheckIns is an in-memory repository.CheckInRepository.
type fakeCheckIns struct {
	items []*domain.CheckIn
}

func (f *fakeCheckIns) Create(_ context.Context, c *domain.CheckIn) (primitive.ObjectID, error) {
	c.ID = primitive.NewObjectID()
	cp := *c
	f.items = append(f.items, &cp)
	return c.ID, nil
}

func (f *fakeCheckIns) GetByID(_ context.Context, id primitive.ObjectID) (*domain.CheckIn, error) {
	for _, c := range f.items {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCheckIns) GetByWorkoutIDs(_ context.Context, workoutIDs []primitive.ObjectID) ([]domain.CheckIn, error) {
	want := map[primitive.ObjectID]bool{}
	for _, id := range workoutIDs {
		want[id] = true
	}
	out := []domain.CheckIn{}
	for _, c := range f.items {
		if want[c.WorkoutID] {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCheckIns) GetByAthleteAndWorkout(_ context.Context, athleteID, workoutID primitive.ObjectID) ([]domain.CheckIn, error) {
	out := []domain.CheckIn{}
	for _, c := range f.items {
		if c.AthleteID == athleteID && c.WorkoutID == workoutID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCheckIns) Update(_ context.Context, c *domain.CheckIn) error {
	for i, existing := range f.items {
		if existing.ID == c.ID {
			cp := *c
			f.items[i] = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}

// fakeMedia is an in-memory repository.MediaRepository.
type fakeMedia struct {
	items []*domain.Media
}

func (f *fakeMedia) Create(_ context.Context, m *domain.Media) (primitive.ObjectID, error) {
	m.ID = primitive.NewObjectID()
	cp := *m
	f.items = append(f.items, &cp)
	return m.ID, nil
}

func (f *fakeMedia) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Media, error) {
	for _, m := range f.items {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeMedia) GetByCheckInID(_ context.Context, checkInID primitive.ObjectID) ([]domain.Media, error) {
	out := []domain.Media{}
	for _, m := range f.items {
		if m.CheckInID == checkInID {
			out = append(out, *m)
		}
	}
	return out, nil
}

// fakeStorage is an in-memory storage.FileStorage.
type fakeStorage struct {
	objects map[string]storage.ObjectInfo
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://s3.test/put/" + objectKey, nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://s3.test/get/" + objectKey, nil
}

func (f *fakeStorage) StatObject(_ context.Context, objectKey string) (*storage.ObjectInfo, error) {
	info, ok := f.objects[objectKey]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &info, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	delete(f.objects, objectKey)
	return nil
}

// recordingNotifier captures messages instead of sending them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

// --- fixtures ---

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func newCoach() *domain.User {
	return &domain.User{ID: primitive.NewObjectID(), Name: "Coach", Email: "coach@example.com", Role: domain.RoleCoach}
}

func newAthlete(coach *domain.User) *domain.User {
	a := &domain.User{ID: primitive.NewObjectID(), Name: "Athlete", Email: "athlete@example.com", Role: domain.RoleAthlete}
	if coach != nil {
		id := coach.ID
		a.CoachID = &id
		coach.AthleteIDs = append(coach.AthleteIDs, a.ID)
	}
	return a
}

func programWorkout(coachID, programID primitive.ObjectID, day int, title string) domain.Workout {
	pid := programID
	return domain.Workout{CoachID: coachID, ProgramID: &pid, DayNumber: intPtr(day), Title: title}
}
