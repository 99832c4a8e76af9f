package api

import (
	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// maxProgramDocumentBytes caps TOML program uploads.
const maxProgramDocumentBytes = 1 << 20

// ProgramHandler serves program authoring and enrollment schedules.
type ProgramHandler struct {
	programService    service.ProgramService
	enrollmentService service.EnrollmentService
}

func NewProgramHandler(programService service.ProgramService, enrollmentService service.EnrollmentService) *ProgramHandler {
	return &ProgramHandler{
		programService:    programService,
		enrollmentService: enrollmentService,
	}
}

// --- Request DTOs ---

type ProgramRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	DurationWeeks *int   `json:"durationWeeks" binding:"omitempty,min=0"` // 0 or absent means open-ended
}

type ExerciseRequest struct {
	Name        string   `json:"name" binding:"required"`
	Sets        int      `json:"sets" binding:"min=0"`
	Reps        string   `json:"reps"`
	Weight      string   `json:"weight"`
	RPE         *float64 `json:"rpe" binding:"omitempty,min=1,max=10"`
	RestSeconds int      `json:"restSeconds" binding:"min=0"`
	Notes       string   `json:"notes"`
}

type WorkoutRequest struct {
	Title           string            `json:"title" binding:"required"`
	DurationMinutes int               `json:"durationMinutes" binding:"min=0"`
	Exercises       []ExerciseRequest `json:"exercises" binding:"dive"`
	CoachNotes      string            `json:"coachNotes"` // markdown
	DayNumber       *int              `json:"dayNumber" binding:"omitempty,min=1"`
	ScheduledDate   *string           `json:"scheduledDate" binding:"omitempty,datekey"`
	IsTemplate      bool              `json:"isTemplate"`
}

func (r WorkoutRequest) input() service.WorkoutInput {
	exercises := make([]domain.ExercisePrescription, len(r.Exercises))
	for i, ex := range r.Exercises {
		exercises[i] = domain.ExercisePrescription{
			Name:        ex.Name,
			Sets:        ex.Sets,
			Reps:        ex.Reps,
			Weight:      ex.Weight,
			RPE:         ex.RPE,
			RestSeconds: ex.RestSeconds,
			Notes:       ex.Notes,
		}
	}
	return service.WorkoutInput{
		Title:           r.Title,
		DurationMinutes: r.DurationMinutes,
		Exercises:       exercises,
		CoachNotes:      r.CoachNotes,
		DayNumber:       r.DayNumber,
		ScheduledDate:   r.ScheduledDate,
		IsTemplate:      r.IsTemplate,
	}
}

// --- Handler Methods ---

// CreateProgram godoc
// @Summary Create a program
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param program body ProgramRequest true "Program details"
// @Success 201 {object} ProgramResponse
// @Failure 409 {object} gin.H "Coach already has a program with this name"
// @Router /programs [post]
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}

	program, err := h.programService.CreateProgram(c.Request.Context(), coachID, service.ProgramInput{
		Name:          req.Name,
		Description:   req.Description,
		DurationWeeks: req.DurationWeeks,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapProgramToResponse(program))
}

// ImportProgram godoc
// @Summary Import a program with its workouts from a TOML document
// @Tags Programs
// @Accept plain
// @Produce json
// @Security BearerAuth
// @Success 201 {object} ImportedProgramResponse
// @Failure 400 {object} gin.H "Document is not a valid program"
// @Router /programs/import [post]
func (h *ProgramHandler) ImportProgram(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxProgramDocumentBytes)

	imported, err := h.programService.ImportProgram(c.Request.Context(), coachID, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ImportedProgramResponse{
		Program:  MapProgramToResponse(imported.Program),
		Workouts: MapWorkoutsToResponse(imported.Workouts),
	})
}

// ListPrograms returns the catalogue athletes can enroll in.
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	programs, err := h.programService.ListPrograms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProgramsToResponse(programs))
}

func (h *ProgramHandler) GetProgramWorkouts(c *gin.Context) {
	programID, ok := objectIDParam(c, "programId")
	if !ok {
		return
	}
	workouts, err := h.programService.GetProgramWorkouts(c.Request.Context(), programID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToResponse(workouts))
}

func (h *ProgramHandler) AddProgramWorkout(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	programID, ok := objectIDParam(c, "programId")
	if !ok {
		return
	}
	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	workout, err := h.programService.AddProgramWorkout(c.Request.Context(), coachID, programID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(workout))
}

// GetEnrollmentSchedule lists the training dates of an enrollment between
// from and to. The athlete and the program's coach may read it.
func (h *ProgramHandler) GetEnrollmentSchedule(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	enrollmentID, ok := objectIDParam(c, "enrollmentId")
	if !ok {
		return
	}
	var q CalendarRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	sched, err := h.enrollmentService.GetEnrollmentSchedule(c.Request.Context(), userID, enrollmentID, parseDate(q.From), parseDate(q.To))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapScheduleToResponse(sched))
}
