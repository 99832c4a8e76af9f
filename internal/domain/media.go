package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Media stores metadata about a file an athlete attached to a check-in.
// The actual file resides in S3.
type Media struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CheckInID   primitive.ObjectID `bson:"checkInId" json:"checkInId"`
	AthleteID   primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	S3ObjectKey string             `bson:"s3ObjectKey" json:"-"` // internal use
	FileName    string             `bson:"fileName" json:"fileName"`
	ContentType string             `bson:"contentType" json:"contentType"` // e.g. "video/mp4"
	Size        int64              `bson:"size" json:"size"`
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}
