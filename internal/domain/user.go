package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleCoach   Role = "coach"
	RoleAthlete Role = "athlete"
)

// User represents a user in the system (either a Coach or an Athlete).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never exposed via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Coach-specific ---
	AthleteIDs []primitive.ObjectID `bson:"athleteIds,omitempty" json:"athleteIds,omitempty"`

	// --- Athlete-specific ---
	CoachID *primitive.ObjectID `bson:"coachId,omitempty" json:"coachId,omitempty"`
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

func (u *User) IsAthlete() bool {
	return u.Role == RoleAthlete
}

// CoachedBy reports whether the athlete is managed by the given coach.
func (u *User) CoachedBy(coachID primitive.ObjectID) bool {
	return u.CoachID != nil && *u.CoachID == coachID
}
