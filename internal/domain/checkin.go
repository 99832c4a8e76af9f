package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckInStatus type for check-in lifecycle
type CheckInStatus string

const (
	CheckInSubmitted     CheckInStatus = "submitted"      // Athlete submitted, awaiting coach
	CheckInReviewed      CheckInStatus = "reviewed"       // Coach reviewed, terminal
	CheckInNeedsRevision CheckInStatus = "needs_revision" // Coach asked the athlete to revise
)

// PersonalRecord is an athlete's claim of a new best on an exercise.
type PersonalRecord struct {
	Exercise string `bson:"exercise" json:"exercise"`
	Value    string `bson:"value" json:"value"` // e.g. "140kg x 3"
}

// CheckIn is an athlete's response to a specific workout instance.
type CheckIn struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	WorkoutID           primitive.ObjectID   `bson:"workoutId" json:"workoutId"`
	AthleteID           primitive.ObjectID   `bson:"athleteId" json:"athleteId"`
	SubmittedAt         time.Time            `bson:"submittedAt" json:"submittedAt"`
	Status              CheckInStatus        `bson:"status" json:"status"`
	RevisionRequestedAt *time.Time           `bson:"revisionRequestedAt,omitempty" json:"revisionRequestedAt,omitempty"`
	Readiness           int                  `bson:"readiness" json:"readiness"` // 1-10
	Energy              int                  `bson:"energy" json:"energy"`       // 1-10
	Soreness            int                  `bson:"soreness" json:"soreness"`   // 1-10
	Notes               string               `bson:"notes,omitempty" json:"notes,omitempty"`
	PersonalRecord      *PersonalRecord      `bson:"personalRecord,omitempty" json:"personalRecord,omitempty"`
	MediaIDs            []primitive.ObjectID `bson:"mediaIds,omitempty" json:"mediaIds,omitempty"`
	CoachFeedback       string               `bson:"coachFeedback,omitempty" json:"coachFeedback,omitempty"`
	ReviewedAt          *time.Time           `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	UpdatedAt           time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// CoachCanMove reports whether a coach may move the check-in to next.
// Only a submitted check-in can be reviewed or sent back for revision.
func (c *CheckIn) CoachCanMove(next CheckInStatus) bool {
	if c.Status != CheckInSubmitted {
		return false
	}
	return next == CheckInReviewed || next == CheckInNeedsRevision
}
