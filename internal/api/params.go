package api

import (
	"alcyxob/strength-academy/internal/schedule"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// validateDateKey backs the `datekey` binding tag: the field must parse as a
// calendar date.
func validateDateKey(fl validator.FieldLevel) bool {
	_, ok := schedule.ParseFlexibleDate(fl.Field().String())
	return ok
}

// objectIDParam reads a hex ObjectID path parameter, aborting with 400 when
// it is malformed.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return primitive.NilObjectID, false
	}
	return id, true
}

// parseDate turns an already validated date string into midnight in the
// calendar location. Empty input yields the zero time.
func parseDate(s string) time.Time {
	t, _ := schedule.ParseFlexibleDate(s)
	return t
}

func parseOptionalDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, ok := schedule.ParseFlexibleDate(*s)
	if !ok {
		return nil
	}
	return &t
}

// dateOrToday returns the parsed date, or today when s is empty.
func dateOrToday(s string) time.Time {
	if t := parseDate(s); !t.IsZero() {
		return t
	}
	return schedule.StartOfDay(time.Now().In(schedule.Location()))
}
