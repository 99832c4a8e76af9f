package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Program is a multi-week training program authored by a coach.
// Workouts belonging to a program reference it by ID and carry a DayNumber.
type Program struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID       primitive.ObjectID `bson:"coachId" json:"coachId"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	DurationWeeks *int               `bson:"durationWeeks,omitempty" json:"durationWeeks,omitempty"` // nil means open-ended
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
