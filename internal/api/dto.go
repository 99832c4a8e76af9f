package api

import (
	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/schedule"
	"alcyxob/strength-academy/internal/service"
	"bytes"
	"html"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mdRenderer turns coach notes into HTML. Raw HTML in the notes is escaped
// because WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) string {
	if md == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return "<p>" + html.EscapeString(md) + "</p>"
	}
	return buf.String()
}

// --- Users ---

// UserResponse excludes sensitive info like password hash
type UserResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	CreatedAt  time.Time   `json:"createdAt"`
	AthleteIDs []string    `json:"athleteIds,omitempty"`
	CoachID    *string     `json:"coachId,omitempty"`
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	resp := UserResponse{
		ID:         user.ID.Hex(),
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		CreatedAt:  user.CreatedAt,
		AthleteIDs: hexIDs(user.AthleteIDs),
		CoachID:    optionalHex(user.CoachID),
	}
	return resp
}

// MapUsersToResponse converts a slice of domain.User to UserResponse DTOs.
func MapUsersToResponse(users []domain.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = MapUserToResponse(&users[i])
	}
	return out
}

// --- Programs and workouts ---

type ProgramResponse struct {
	ID            string    `json:"id"`
	CoachID       string    `json:"coachId"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	DurationWeeks *int      `json:"durationWeeks,omitempty"`
	TrainingDays  *int      `json:"trainingDays,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func MapProgramToResponse(p *domain.Program) ProgramResponse {
	resp := ProgramResponse{
		ID:            p.ID.Hex(),
		CoachID:       p.CoachID.Hex(),
		Name:          p.Name,
		Description:   p.Description,
		DurationWeeks: p.DurationWeeks,
		CreatedAt:     p.CreatedAt,
	}
	if p.DurationWeeks != nil && *p.DurationWeeks > 0 {
		days := *p.DurationWeeks * schedule.TrainingDaysPerWeek
		resp.TrainingDays = &days
	}
	return resp
}

func MapProgramsToResponse(programs []domain.Program) []ProgramResponse {
	out := make([]ProgramResponse, len(programs))
	for i := range programs {
		out[i] = MapProgramToResponse(&programs[i])
	}
	return out
}

type WorkoutResponse struct {
	ID              string                        `json:"id"`
	CoachID         string                        `json:"coachId"`
	AthleteID       *string                       `json:"athleteId,omitempty"`
	ProgramID       *string                       `json:"programId,omitempty"`
	DayNumber       *int                          `json:"dayNumber,omitempty"`
	ScheduledDate   *string                       `json:"scheduledDate,omitempty"`
	Title           string                        `json:"title"`
	DurationMinutes int                           `json:"durationMinutes,omitempty"`
	Exercises       []domain.ExercisePrescription `json:"exercises"`
	CoachNotes      string                        `json:"coachNotes,omitempty"`
	CoachNotesHTML  string                        `json:"coachNotesHtml,omitempty"`
	IsTemplate      bool                          `json:"isTemplate"`
	UpdatedAt       time.Time                     `json:"updatedAt"`
}

func MapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	exercises := w.Exercises
	if exercises == nil {
		exercises = []domain.ExercisePrescription{}
	}
	return WorkoutResponse{
		ID:              w.ID.Hex(),
		CoachID:         w.CoachID.Hex(),
		AthleteID:       optionalHex(w.AthleteID),
		ProgramID:       optionalHex(w.ProgramID),
		DayNumber:       w.DayNumber,
		ScheduledDate:   w.ScheduledDate,
		Title:           w.Title,
		DurationMinutes: w.DurationMinutes,
		Exercises:       exercises,
		CoachNotes:      w.CoachNotes,
		CoachNotesHTML:  renderMarkdown(w.CoachNotes),
		IsTemplate:      w.IsTemplate,
		UpdatedAt:       w.UpdatedAt,
	}
}

func MapWorkoutsToResponse(workouts []domain.Workout) []WorkoutResponse {
	out := make([]WorkoutResponse, len(workouts))
	for i := range workouts {
		out[i] = MapWorkoutToResponse(&workouts[i])
	}
	return out
}

type ImportedProgramResponse struct {
	Program  ProgramResponse   `json:"program"`
	Workouts []WorkoutResponse `json:"workouts"`
}

// --- Calendar ---

// CalendarWorkoutResponse is a workout placed on a calendar date.
type CalendarWorkoutResponse struct {
	Date     string              `json:"date"` // YYYY-MM-DD
	Source   schedule.SourceKind `json:"source"`
	Workout  WorkoutResponse     `json:"workout"`
	CheckIns []domain.CheckIn    `json:"checkIns"`
}

type OmissionResponse struct {
	WorkoutID string              `json:"workoutId"`
	Reason    schedule.OmitReason `json:"reason"`
}

type CalendarResponse struct {
	Workouts []CalendarWorkoutResponse `json:"workouts"`
	Omitted  []OmissionResponse        `json:"omitted,omitempty"`
}

type DayCellResponse struct {
	Date     string                    `json:"date"`
	Weekday  string                    `json:"weekday"`
	InMonth  bool                      `json:"inMonth"`
	IsToday  bool                      `json:"isToday"`
	Workouts []CalendarWorkoutResponse `json:"workouts"`
}

type MonthResponse struct {
	Year  int               `json:"year"`
	Month string            `json:"month"`
	Cells []DayCellResponse `json:"cells"`
}

type WeekResponse struct {
	Days         []DayCellResponse `json:"days"`
	VisibleStart int               `json:"visibleStart"`
	Visible      []DayCellResponse `json:"visible"`
}

func mapResolvedWorkout(rw schedule.ResolvedWorkout) CalendarWorkoutResponse {
	checkIns := rw.Workout.CheckIns
	if checkIns == nil {
		checkIns = []domain.CheckIn{}
	}
	return CalendarWorkoutResponse{
		Date:     rw.DateKey,
		Source:   rw.Source,
		Workout:  MapWorkoutToResponse(&rw.Workout),
		CheckIns: checkIns,
	}
}

func mapResolvedWorkouts(resolved []schedule.ResolvedWorkout) []CalendarWorkoutResponse {
	out := make([]CalendarWorkoutResponse, len(resolved))
	for i, rw := range resolved {
		out[i] = mapResolvedWorkout(rw)
	}
	return out
}

func MapCalendarToResponse(view *service.CalendarView) CalendarResponse {
	resp := CalendarResponse{Workouts: mapResolvedWorkouts(view.Workouts)}
	for _, o := range view.Omitted {
		resp.Omitted = append(resp.Omitted, OmissionResponse{WorkoutID: o.WorkoutID.Hex(), Reason: o.Reason})
	}
	return resp
}

func mapDayCells(cells []service.DayCell) []DayCellResponse {
	out := make([]DayCellResponse, len(cells))
	for i, cell := range cells {
		out[i] = DayCellResponse{
			Date:     cell.DateKey,
			Weekday:  cell.Date.Weekday().String(),
			InMonth:  cell.InMonth,
			IsToday:  cell.IsToday,
			Workouts: mapResolvedWorkouts(cell.Workouts),
		}
	}
	return out
}

func MapMonthToResponse(view *service.MonthView) MonthResponse {
	return MonthResponse{Year: view.Year, Month: view.Month, Cells: mapDayCells(view.Cells)}
}

func MapWeekToResponse(view *service.WeekView) WeekResponse {
	return WeekResponse{
		Days:         mapDayCells(view.Days),
		VisibleStart: view.VisibleStart,
		Visible:      mapDayCells(view.Visible),
	}
}

// --- Check-ins ---

type EditabilityResponse struct {
	CanEdit          bool       `json:"canEdit"`
	RevisionDeadline *time.Time `json:"revisionDeadline,omitempty"`
}

func mapEditability(e schedule.Editability) EditabilityResponse {
	return EditabilityResponse{CanEdit: e.CanEdit, RevisionDeadline: e.RevisionDeadline}
}

type CheckInStateResponse struct {
	CheckIn     *domain.CheckIn     `json:"checkIn"`
	Editability EditabilityResponse `json:"editability"`
}

func MapCheckInStateToResponse(state *service.CheckInState) CheckInStateResponse {
	return CheckInStateResponse{CheckIn: state.CheckIn, Editability: mapEditability(state.Editability)}
}

type CurrentWorkoutResponse struct {
	Workout     *CalendarWorkoutResponse `json:"workout"`
	CheckIn     *domain.CheckIn          `json:"checkIn"`
	Editability EditabilityResponse      `json:"editability"`
}

func MapCurrentWorkoutToResponse(cw *service.CurrentWorkout) CurrentWorkoutResponse {
	resp := CurrentWorkoutResponse{CheckIn: cw.CheckIn, Editability: mapEditability(cw.Editability)}
	if cw.Workout != nil {
		w := mapResolvedWorkout(*cw.Workout)
		resp.Workout = &w
	}
	return resp
}

// --- Enrollments ---

type EnrollmentResponse struct {
	ID            string                  `json:"id"`
	AthleteID     string                  `json:"athleteId"`
	ProgramID     string                  `json:"programId"`
	Status        domain.EnrollmentStatus `json:"status"`
	StartDate     *string                 `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate       *string                 `json:"endDate,omitempty"`
	EnrolledAt    *time.Time              `json:"enrolledAt,omitempty"`
	DurationWeeks *int                    `json:"durationWeeks,omitempty"`
	CreatedAt     time.Time               `json:"createdAt"`
}

func MapEnrollmentToResponse(e *domain.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:            e.ID.Hex(),
		AthleteID:     e.AthleteID.Hex(),
		ProgramID:     e.ProgramID.Hex(),
		Status:        e.Status,
		StartDate:     optionalDateKey(e.StartDate),
		EndDate:       optionalDateKey(e.EndDate),
		EnrolledAt:    e.EnrolledAt,
		DurationWeeks: e.DurationWeeks,
		CreatedAt:     e.CreatedAt,
	}
}

func MapEnrollmentsToResponse(enrollments []domain.Enrollment) []EnrollmentResponse {
	out := make([]EnrollmentResponse, len(enrollments))
	for i := range enrollments {
		out[i] = MapEnrollmentToResponse(&enrollments[i])
	}
	return out
}

type ScheduleResponse struct {
	Enrollment        EnrollmentResponse `json:"enrollment"`
	Start             string             `json:"start"`
	End               *string            `json:"end,omitempty"` // absent when open-ended
	TotalTrainingDays int                `json:"totalTrainingDays,omitempty"`
	Dates             []string           `json:"dates"`
}

func MapScheduleToResponse(s *service.EnrollmentSchedule) ScheduleResponse {
	resp := ScheduleResponse{
		Enrollment:        MapEnrollmentToResponse(s.Enrollment),
		Start:             s.Schedule.Start.Format(schedule.DateKeyLayout),
		TotalTrainingDays: s.Schedule.TotalTrainingDays,
		Dates:             make([]string, len(s.Dates)),
	}
	if !s.Schedule.OpenEnded() {
		end := s.Schedule.End.Format(schedule.DateKeyLayout)
		resp.End = &end
	}
	for i, d := range s.Dates {
		resp.Dates[i] = d.Format(schedule.DateKeyLayout)
	}
	return resp
}

// --- helpers ---

func hexIDs(ids []primitive.ObjectID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}

func optionalHex(id *primitive.ObjectID) *string {
	if id == nil || *id == primitive.NilObjectID {
		return nil
	}
	hex := id.Hex()
	return &hex
}

func optionalDateKey(t *time.Time) *string {
	if t == nil {
		return nil
	}
	key := t.In(schedule.Location()).Format(schedule.DateKeyLayout)
	return &key
}
