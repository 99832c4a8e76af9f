// internal/api/coach_handler.go
package api

import (
	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/schedule"
	"alcyxob/strength-academy/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type CoachHandler struct {
	coachService      service.CoachService
	enrollmentService service.EnrollmentService
}

func NewCoachHandler(coachService service.CoachService, enrollmentService service.EnrollmentService) *CoachHandler {
	return &CoachHandler{
		coachService:      coachService,
		enrollmentService: enrollmentService,
	}
}

// --- DTOs ---

type AddAthleteRequest struct {
	AthleteEmail string `json:"athleteEmail" binding:"required,email"`
}

type AssignDateRequest struct {
	Date string `json:"date" binding:"required,datekey"`
}

type ApproveEnrollmentRequest struct {
	StartDate *string `json:"startDate" binding:"omitempty,datekey"`
}

type ReviewCheckInRequest struct {
	Status   domain.CheckInStatus `json:"status" binding:"required,oneof=reviewed needs_revision"`
	Feedback string               `json:"feedback"`
}

// --- Athlete management ---

// AddAthleteByEmail godoc
// @Summary Add an athlete to the coach's roster by email
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AddAthleteRequest true "Athlete's email"
// @Success 200 {object} UserResponse "Athlete successfully added/associated"
// @Failure 403 {object} gin.H "User is not an athlete"
// @Failure 404 {object} gin.H "Athlete not found"
// @Failure 409 {object} gin.H "Athlete already has a coach"
// @Router /coach/athletes [post]
func (h *CoachHandler) AddAthleteByEmail(c *gin.Context) {
	var req AddAthleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}

	athlete, err := h.coachService.AddAthleteByEmail(c.Request.Context(), coachID, req.AthleteEmail)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(athlete))
}

func (h *CoachHandler) GetManagedAthletes(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}

	athletes, err := h.coachService.GetManagedAthletes(c.Request.Context(), coachID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(athletes))
}

// GetAthleteCalendar shows a managed athlete's calendar, optionally bounded
// by from and to.
func (h *CoachHandler) GetAthleteCalendar(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	athleteID, ok := objectIDParam(c, "athleteId")
	if !ok {
		return
	}
	var q CalendarRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	var rng *schedule.DateRange
	if q.From != "" || q.To != "" {
		rng = &schedule.DateRange{From: parseDate(q.From), To: parseDate(q.To)}
	}

	view, err := h.coachService.GetAthleteCalendar(c.Request.Context(), coachID, athleteID, rng)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapCalendarToResponse(view))
}

// --- Workouts ---

// CreatePersonalWorkout godoc
// @Summary Author a workout for one athlete
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param athleteId path string true "Athlete ID"
// @Param workout body WorkoutRequest true "Workout; scheduledDate is required unless isTemplate"
// @Success 201 {object} WorkoutResponse
// @Router /coach/athletes/{athleteId}/workouts [post]
func (h *CoachHandler) CreatePersonalWorkout(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	athleteID, ok := objectIDParam(c, "athleteId")
	if !ok {
		return
	}
	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	workout, err := h.coachService.CreatePersonalWorkout(c.Request.Context(), coachID, athleteID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(workout))
}

func (h *CoachHandler) UpdateWorkout(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	workout, err := h.coachService.UpdateWorkout(c.Request.Context(), coachID, workoutID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// AssignWorkoutDate godoc
// @Summary Move a workout to a date on an athlete's calendar
// @Description Program workouts get the day number that falls on the date; personal workouts get the date itself.
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param athleteId path string true "Athlete ID"
// @Param workoutId path string true "Workout ID"
// @Param request body AssignDateRequest true "Target date (YYYY-MM-DD)"
// @Success 200 {object} WorkoutResponse
// @Failure 422 {object} gin.H "Date is not a training day of the program"
// @Router /coach/athletes/{athleteId}/workouts/{workoutId}/date [put]
func (h *CoachHandler) AssignWorkoutDate(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	athleteID, ok := objectIDParam(c, "athleteId")
	if !ok {
		return
	}
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	var req AssignDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	workout, err := h.coachService.AssignWorkoutDate(c.Request.Context(), coachID, athleteID, workoutID, parseDate(req.Date))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// --- Enrollments ---

func (h *CoachHandler) GetEnrollments(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	enrollments, err := h.enrollmentService.GetCoachEnrollments(c.Request.Context(), coachID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEnrollmentsToResponse(enrollments))
}

// ApproveEnrollment activates a pending enrollment. The start date defaults
// to the one the athlete asked for, then today.
func (h *CoachHandler) ApproveEnrollment(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	enrollmentID, ok := objectIDParam(c, "enrollmentId")
	if !ok {
		return
	}
	var req ApproveEnrollmentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
	}

	enrollment, err := h.enrollmentService.Approve(c.Request.Context(), coachID, enrollmentID, parseOptionalDate(req.StartDate))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEnrollmentToResponse(enrollment))
}

func (h *CoachHandler) CancelEnrollment(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	enrollmentID, ok := objectIDParam(c, "enrollmentId")
	if !ok {
		return
	}
	enrollment, err := h.enrollmentService.Cancel(c.Request.Context(), coachID, enrollmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEnrollmentToResponse(enrollment))
}

func (h *CoachHandler) CompleteEnrollment(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	enrollmentID, ok := objectIDParam(c, "enrollmentId")
	if !ok {
		return
	}
	enrollment, err := h.enrollmentService.Complete(c.Request.Context(), coachID, enrollmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEnrollmentToResponse(enrollment))
}

// --- Check-ins ---

// ReviewCheckIn godoc
// @Summary Review an athlete's check-in
// @Description Marks the check-in reviewed, or sends it back for revision which reopens the athlete's 24h edit window.
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param checkInId path string true "Check-in ID"
// @Param request body ReviewCheckInRequest true "New status and feedback"
// @Success 200 {object} domain.CheckIn
// @Failure 409 {object} gin.H "Check-in was already reviewed"
// @Router /coach/checkins/{checkInId}/review [post]
func (h *CoachHandler) ReviewCheckIn(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	checkInID, ok := objectIDParam(c, "checkInId")
	if !ok {
		return
	}
	var req ReviewCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	checkIn, err := h.coachService.ReviewCheckIn(c.Request.Context(), coachID, checkInID, req.Status, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkIn)
}

func (h *CoachHandler) GetCheckInMediaURL(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	checkInID, ok := objectIDParam(c, "checkInId")
	if !ok {
		return
	}
	mediaID, ok := objectIDParam(c, "mediaId")
	if !ok {
		return
	}

	url, err := h.coachService.GetCheckInMediaURL(c.Request.Context(), coachID, checkInID, mediaID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MediaURLResponse{URL: url})
}
