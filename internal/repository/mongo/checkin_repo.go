package mongo

import (
	"alcyxob/strength-academy/internal/domain"
	"alcyxob/strength-academy/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const checkInCollectionName = "checkins"

type mongoCheckInRepository struct {
	collection *mongo.Collection
}

// NewMongoCheckInRepository creates a new CheckIn repository.
func NewMongoCheckInRepository(db *mongo.Database) repository.CheckInRepository {
	return &mongoCheckInRepository{
		collection: db.Collection(checkInCollectionName),
	}
}

// Create inserts a new check-in.
func (r *mongoCheckInRepository) Create(ctx context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error) {
	if checkIn.WorkoutID == primitive.NilObjectID || checkIn.AthleteID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("check-in requires workoutId and athleteId")
	}
	checkIn.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	if checkIn.SubmittedAt.IsZero() {
		checkIn.SubmittedAt = now
	}
	if checkIn.Status == "" {
		checkIn.Status = domain.CheckInSubmitted
	}
	checkIn.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, checkIn)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

func (r *mongoCheckInRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CheckIn, error) {
	var checkIn domain.CheckIn
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&checkIn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &checkIn, nil
}

// GetByWorkoutIDs retrieves check-ins of many workouts, oldest submission first.
func (r *mongoCheckInRepository) GetByWorkoutIDs(ctx context.Context, workoutIDs []primitive.ObjectID) ([]domain.CheckIn, error) {
	if len(workoutIDs) == 0 {
		return []domain.CheckIn{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}})
	return findAll[domain.CheckIn](ctx, r.collection, bson.M{"workoutId": bson.M{"$in": workoutIDs}}, opts)
}

func (r *mongoCheckInRepository) GetByAthleteAndWorkout(ctx context.Context, athleteID, workoutID primitive.ObjectID) ([]domain.CheckIn, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}})
	return findAll[domain.CheckIn](ctx, r.collection, bson.M{"athleteId": athleteID, "workoutId": workoutID}, opts)
}

// Update replaces the mutable fields of a check-in.
func (r *mongoCheckInRepository) Update(ctx context.Context, checkIn *domain.CheckIn) error {
	if checkIn.ID == primitive.NilObjectID {
		return errors.New("check-in ID is required for update")
	}
	checkIn.UpdatedAt = time.Now().UTC()

	update := bson.M{"$set": bson.M{
		"status":              checkIn.Status,
		"submittedAt":         checkIn.SubmittedAt,
		"revisionRequestedAt": checkIn.RevisionRequestedAt,
		"readiness":           checkIn.Readiness,
		"energy":              checkIn.Energy,
		"soreness":            checkIn.Soreness,
		"notes":               checkIn.Notes,
		"personalRecord":      checkIn.PersonalRecord,
		"mediaIds":            checkIn.MediaIDs,
		"coachFeedback":       checkIn.CoachFeedback,
		"reviewedAt":          checkIn.ReviewedAt,
		"updatedAt":           checkIn.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": checkIn.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureCheckInIndexes creates necessary indexes. Call during startup.
func EnsureCheckInIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "workoutId", Value: 1}, {Key: "submittedAt", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "athleteId", Value: 1}, {Key: "workoutId", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
