package api

import (
	"alcyxob/strength-academy/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorStatuses maps service errors to HTTP status codes. The first match wins.
var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrInvalidID, http.StatusBadRequest},
	{service.ErrInvalidRole, http.StatusBadRequest},
	{service.ErrUnsupportedMedia, http.StatusBadRequest},
	{service.ErrObjectKeyMismatch, http.StatusBadRequest},

	{service.ErrAuthenticationFailed, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},

	{service.ErrAccessDenied, http.StatusForbidden},
	{service.ErrAthleteNotManaged, http.StatusForbidden},
	{service.ErrWorkoutAccessDenied, http.StatusForbidden},
	{service.ErrCheckInNotOwned, http.StatusForbidden},
	{service.ErrNotAnAthlete, http.StatusForbidden},

	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrAthleteNotFound, http.StatusNotFound},
	{service.ErrProgramNotFound, http.StatusNotFound},
	{service.ErrWorkoutNotFound, http.StatusNotFound},
	{service.ErrEnrollmentNotFound, http.StatusNotFound},
	{service.ErrCheckInNotFound, http.StatusNotFound},
	{service.ErrMediaNotFound, http.StatusNotFound},
	{service.ErrUploadNotFound, http.StatusNotFound},

	{service.ErrUserAlreadyExists, http.StatusConflict},
	{service.ErrProgramNameTaken, http.StatusConflict},
	{service.ErrAlreadyEnrolled, http.StatusConflict},
	{service.ErrAthleteAlreadyCoached, http.StatusConflict},
	{service.ErrCheckInStillEditable, http.StatusConflict},
	{service.ErrCheckInLocked, http.StatusConflict},
	{service.ErrInvalidStatus, http.StatusConflict},
	{service.ErrEnrollmentNotActive, http.StatusConflict},

	{service.ErrDateNotTrainingDay, http.StatusUnprocessableEntity},
	{service.ErrDayNumberOutOfPlan, http.StatusUnprocessableEntity},
	{service.ErrTemplateNotSchedulable, http.StatusUnprocessableEntity},
	{service.ErrWorkoutNotOnCalendar, http.StatusUnprocessableEntity},
}

func statusForError(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes err as a JSON error. Unmapped errors become a generic
// 500 and the detail is kept on the gin context for the request logger.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		abortWithError(c, status, "An unexpected error occurred")
		return
	}
	abortWithError(c, status, err.Error())
}
