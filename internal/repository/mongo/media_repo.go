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

const mediaCollectionName = "media"

// mongoMediaRepository implements repository.MediaRepository
type mongoMediaRepository struct {
	collection *mongo.Collection
}

// NewMongoMediaRepository creates a new Media repository backed by MongoDB.
func NewMongoMediaRepository(db *mongo.Database) repository.MediaRepository {
	return &mongoMediaRepository{
		collection: db.Collection(mediaCollectionName),
	}
}

// Create inserts media metadata after the object has landed in S3.
func (r *mongoMediaRepository) Create(ctx context.Context, media *domain.Media) (primitive.ObjectID, error) {
	if media.CheckInID == primitive.NilObjectID ||
		media.AthleteID == primitive.NilObjectID ||
		media.S3ObjectKey == "" {
		return primitive.NilObjectID, errors.New("media requires checkInId, athleteId, and s3ObjectKey")
	}

	media.ID = primitive.NewObjectID()
	media.UploadedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, media)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// GetByID retrieves media metadata by its ID.
func (r *mongoMediaRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Media, error) {
	var media domain.Media
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&media)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &media, nil
}

// GetByCheckInID retrieves all media of a check-in, oldest first.
func (r *mongoMediaRepository) GetByCheckInID(ctx context.Context, checkInID primitive.ObjectID) ([]domain.Media, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: 1}})
	return findAll[domain.Media](ctx, r.collection, bson.M{"checkInId": checkInID}, opts)
}

// EnsureMediaIndexes creates necessary indexes. Call during startup.
func EnsureMediaIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "checkInId", Value: 1}},
		},
		{
			// Confirming the same upload twice must not create two records.
			Keys:    bson.D{{Key: "s3ObjectKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
