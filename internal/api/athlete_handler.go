// internal/api/athlete_handler.go
package api

import (
	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/schedule"
	"alcyxob/strength-academy/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AthleteHandler struct {
	calendarService   service.CalendarService
	enrollmentService service.EnrollmentService
	checkInService    service.CheckInService
}

func NewAthleteHandler(
	calendarService service.CalendarService,
	enrollmentService service.EnrollmentService,
	checkInService service.CheckInService,
) *AthleteHandler {
	return &AthleteHandler{
		calendarService:   calendarService,
		enrollmentService: enrollmentService,
		checkInService:    checkInService,
	}
}

// --- Request DTOs ---

type CalendarRangeQuery struct {
	From string `form:"from" binding:"omitempty,datekey"`
	To   string `form:"to" binding:"omitempty,datekey"`
}

type CalendarDateQuery struct {
	Date  string `form:"date" binding:"omitempty,datekey"`
	Start *int   `form:"start"` // first visible column of the week view
}

type EnrollmentRequest struct {
	ProgramID string  `json:"programId" binding:"required"`
	StartDate *string `json:"startDate" binding:"omitempty,datekey"`
}

type CheckInRequest struct {
	Readiness      int                    `json:"readiness" binding:"required,min=1,max=10"`
	Energy         int                    `json:"energy" binding:"required,min=1,max=10"`
	Soreness       int                    `json:"soreness" binding:"required,min=1,max=10"`
	Notes          string                 `json:"notes"`
	PersonalRecord *domain.PersonalRecord `json:"personalRecord"`
}

func (r CheckInRequest) input() service.CheckInInput {
	return service.CheckInInput{
		Readiness:      r.Readiness,
		Energy:         r.Energy,
		Soreness:       r.Soreness,
		Notes:          r.Notes,
		PersonalRecord: r.PersonalRecord,
	}
}

type UploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"` // e.g. "video/mp4"
}

type ConfirmUploadRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
	FileName  string `json:"fileName"`
}

type MediaURLResponse struct {
	URL string `json:"url"`
}

// --- Calendar ---

// GetCalendar godoc
// @Summary Get my reconciled calendar
// @Description Lists every workout on the athlete's calendar between from and to (inclusive, YYYY-MM-DD). Both bounds are optional.
// @Tags Athlete
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CalendarResponse
// @Router /athlete/calendar [get]
func (h *AthleteHandler) GetCalendar(c *gin.Context) {
	athleteID, ok := currentUserID(c)
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
		if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
			abortWithError(c, http.StatusBadRequest, "to must not be before from")
			return
		}
	}

	view, err := h.calendarService.GetCalendar(c.Request.Context(), athleteID, rng)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapCalendarToResponse(view))
}

// GetMonth returns the 42-day month grid around date (default today).
func (h *AthleteHandler) GetMonth(c *gin.Context) {
	athleteID, ok := currentUserID(c)
	if !ok {
		return
	}
	var q CalendarDateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	view, err := h.calendarService.GetMonth(c.Request.Context(), athleteID, dateOrToday(q.Date))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMonthToResponse(view))
}

// GetWeek returns the Sunday-aligned week containing date plus the visible
// window starting at column start.
func (h *AthleteHandler) GetWeek(c *gin.Context) {
	athleteID, ok := currentUserID(c)
	if !ok {
		return
	}
	var q CalendarDateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	anchor := dateOrToday(q.Date)
	start := int(anchor.Weekday())
	if q.Start != nil {
		start = *q.Start
	}

	view, err := h.calendarService.GetWeek(c.Request.Context(), athleteID, anchor, start)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWeekToResponse(view))
}

// GetCurrentWorkout returns the workout shown for date (default today) and
// the check-in the athlete would edit.
func (h *AthleteHandler) GetCurrentWorkout(c *gin.Context) {
	athleteID, ok := currentUserID(c)
	if !ok {
		return
	}
	var q CalendarDateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	current, err := h.calendarService.GetCurrentWorkout(c.Request.Context(), athleteID, dateOrToday(q.Date))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapCurrentWorkoutToResponse(current))
}

// --- Enrollments ---

// RequestEnrollment godoc
// @Summary Ask to join a program
// @Tags Athlete
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EnrollmentRequest true "Program and optional start date"
// @Success 201 {object} EnrollmentResponse
// @Failure 409 {object} gin.H "Already enrolled"
// @Router /athlete/enrollments [post]
func (h *AthleteHandler) RequestEnrollment(c *gin.Context) {
	athleteID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	programID, err := primitive.ObjectIDFromHex(req.ProgramID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid programId format")
		return
	}

	enrollment, err := h.enrollmentService.RequestEnrollment(c.Request.Context(), athleteID, programID, parseOptionalDate(req.StartDate))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapEnrollmentToResponse(enrollment))
}

func (h *AthleteHandler) GetMyEnrollments(c *gin.Context) {
	athleteID, ok := currentUserID(c)
	if !ok {
		return
	}
	enrollments, err := h.enrollmentService.GetAthleteEnrollments(c.Request.Context(), athleteID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEnrollmentsToResponse(enrollments))
}

// --- Check-ins ---

// SubmitCheckIn godoc
// @Summary Check in after a workout
// @Tags Athlete
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Param request body CheckInRequest true "Scores and notes"
// @Success 201 {object} CheckInStateResponse
// @Failure 409 {object} gin.H "An editable check-in already exists"
// @Failure 422 {object} gin.H "Workout is not on the athlete's calendar"
// @Router /athlete/workouts/{workoutId}/checkins [post]
func (h *AthleteHandler) SubmitCheckIn(c *gin.Context) {
	athleteID, ok := currentUserID(c)
	if !ok {
		return
	}
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	state, err := h.checkInService.SubmitCheckIn(c.Request.Context(), athleteID, workoutID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapCheckInStateToResponse(state))
}

func (h *AthleteHandler) GetCurrentCheckIn(c *gin.Context) {
	athleteID, ok := currentUserID(c)
	if !ok {
		return
	}
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}

	state, err := h.checkInService.GetCurrentCheckIn(c.Request.Context(), athleteID, workoutID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapCheckInStateToResponse(state))
}

// UpdateCheckIn edits a check-in while its revision window is open.
func (h *AthleteHandler) UpdateCheckIn(c *gin.Context) {
	athleteID, ok := currentUserID(c)
	if !ok {
		return
	}
	checkInID, ok := objectIDParam(c, "checkInId")
	if !ok {
		return
	}
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	state, err := h.checkInService.UpdateCheckIn(c.Request.Context(), athleteID, checkInID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapCheckInStateToResponse(state))
}

// RequestUploadURL godoc
// @Summary Get a pre-signed URL for check-in media
// @Tags Athlete
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param checkInId path string true "Check-in ID"
// @Param request body UploadURLRequest true "Content type of the file"
// @Success 200 {object} service.UploadURLResponse
// @Router /athlete/checkins/{checkInId}/media/upload-url [post]
func (h *AthleteHandler) RequestUploadURL(c *gin.Context) {
	athleteID, ok := currentUserID(c)
	if !ok {
		return
	}
	checkInID, ok := objectIDParam(c, "checkInId")
	if !ok {
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	resp, err := h.checkInService.RequestMediaUploadURL(c.Request.Context(), athleteID, checkInID, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmUpload records media the athlete uploaded with a pre-signed URL.
func (h *AthleteHandler) ConfirmUpload(c *gin.Context) {
	athleteID, ok := currentUserID(c)
	if !ok {
		return
	}
	checkInID, ok := objectIDParam(c, "checkInId")
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	media, err := h.checkInService.ConfirmMediaUpload(c.Request.Context(), athleteID, checkInID, req.ObjectKey, req.FileName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, media)
}

func (h *AthleteHandler) GetMediaURL(c *gin.Context) {
	athleteID, ok := currentUserID(c)
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

	url, err := h.checkInService.GetMediaURL(c.Request.Context(), athleteID, checkInID, mediaID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MediaURLResponse{URL: url})
}
