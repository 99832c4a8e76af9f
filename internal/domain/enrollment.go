package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EnrollmentStatus type for enrollment lifecycle
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// enrollmentTransitions lists the allowed next states for each status.
var enrollmentTransitions = map[EnrollmentStatus][]EnrollmentStatus{
	EnrollmentPending: {EnrollmentActive, EnrollmentCancelled},
	EnrollmentActive:  {EnrollmentCompleted, EnrollmentCancelled},
}

// Enrollment connects an Athlete to a Program.
type Enrollment struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AthleteID  primitive.ObjectID  `bson:"athleteId" json:"athleteId"`
	ProgramID  primitive.ObjectID  `bson:"programId" json:"programId"`
	Status     EnrollmentStatus    `bson:"status" json:"status"`
	StartDate  *time.Time          `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EnrolledAt *time.Time          `bson:"enrolledAt,omitempty" json:"enrolledAt,omitempty"`
	EndDate    *time.Time          `bson:"endDate,omitempty" json:"endDate,omitempty"`
	ApprovedBy *primitive.ObjectID `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt" json:"updatedAt"`

	// DurationWeeks is inherited from the referenced Program on read.
	DurationWeeks *int `bson:"-" json:"durationWeeks,omitempty"`
}

func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentActive
}

// CanTransitionTo reports whether moving from the current status to next is allowed.
func (e *Enrollment) CanTransitionTo(next EnrollmentStatus) bool {
	for _, s := range enrollmentTransitions[e.Status] {
		if s == next {
			return true
		}
	}
	return false
}
