package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExercisePrescription is one exercise within a workout with its targets.
type ExercisePrescription struct {
	Name        string   `bson:"name" json:"name"`
	Sets        int      `bson:"sets" json:"sets"`
	Reps        string   `bson:"reps" json:"reps"` // "5", "8-10", "AMRAP"
	Weight      string   `bson:"weight,omitempty" json:"weight,omitempty"`
	RPE         *float64 `bson:"rpe,omitempty" json:"rpe,omitempty"`
	RestSeconds int      `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
	Notes       string   `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Workout represents a single training session. Program-linked workouts carry
// ProgramID and DayNumber; personal workouts carry AthleteID and usually a
// ScheduledDate. The calendar date of a program-linked workout is derived on
// read from the athlete's enrollment and is never stored.
type Workout struct {
	ID              primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	CoachID         primitive.ObjectID     `bson:"coachId" json:"coachId"`
	AthleteID       *primitive.ObjectID    `bson:"athleteId,omitempty" json:"athleteId,omitempty"`
	ProgramID       *primitive.ObjectID    `bson:"programId,omitempty" json:"programId,omitempty"`
	DayNumber       *int                   `bson:"dayNumber,omitempty" json:"dayNumber,omitempty"`          // 1-based within the program
	ScheduledDate   *string                `bson:"scheduledDate,omitempty" json:"scheduledDate,omitempty"`  // YYYY-MM-DD
	Title           string                 `bson:"title" json:"title"`
	DurationMinutes int                    `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	Exercises       []ExercisePrescription `bson:"exercises,omitempty" json:"exercises,omitempty"`
	CoachNotes      string                 `bson:"coachNotes,omitempty" json:"coachNotes,omitempty"` // Markdown
	IsTemplate      bool                   `bson:"isTemplate" json:"isTemplate"`
	CreatedAt       time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time              `bson:"updatedAt" json:"updatedAt"`

	// CheckIns are attached by the service layer when reading.
	CheckIns []CheckIn `bson:"-" json:"checkIns,omitempty"`
}

// IsPersonal reports whether the workout was authored for a single athlete.
func (w *Workout) IsPersonal() bool {
	return w.AthleteID != nil && *w.AthleteID != primitive.NilObjectID
}
