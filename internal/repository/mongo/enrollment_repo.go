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

const enrollmentCollectionName = "enrollments"

// mongoEnrollmentRepository implements repository.EnrollmentRepository
type mongoEnrollmentRepository struct {
	collection *mongo.Collection
}

// NewMongoEnrollmentRepository creates a new Enrollment repository.
func NewMongoEnrollmentRepository(db *mongo.Database) repository.EnrollmentRepository {
	return &mongoEnrollmentRepository{
		collection: db.Collection(enrollmentCollectionName),
	}
}

// Create inserts a new enrollment. Status defaults to pending.
func (r *mongoEnrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) (primitive.ObjectID, error) {
	if enrollment.AthleteID == primitive.NilObjectID || enrollment.ProgramID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("enrollment requires athleteId and programId")
	}
	if enrollment.Status == "" {
		enrollment.Status = domain.EnrollmentPending
	}
	enrollment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	if enrollment.EnrolledAt == nil {
		enrollment.EnrolledAt = &now
	}

	result, err := r.collection.InsertOne(ctx, enrollment)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// GetByID retrieves a single enrollment by its ID.
func (r *mongoEnrollmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&enrollment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

// GetByAthleteID retrieves an athlete's enrollments, oldest first so that the
// first active enrollment per program is stable.
func (r *mongoEnrollmentRepository) GetByAthleteID(ctx context.Context, athleteID primitive.ObjectID) ([]domain.Enrollment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[domain.Enrollment](ctx, r.collection, bson.M{"athleteId": athleteID}, opts)
}

// GetByProgramIDs retrieves enrollments into any of the programs, newest first.
func (r *mongoEnrollmentRepository) GetByProgramIDs(ctx context.Context, programIDs []primitive.ObjectID) ([]domain.Enrollment, error) {
	if len(programIDs) == 0 {
		return []domain.Enrollment{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[domain.Enrollment](ctx, r.collection, bson.M{"programId": bson.M{"$in": programIDs}}, opts)
}

// GetActive retrieves every active enrollment.
func (r *mongoEnrollmentRepository) GetActive(ctx context.Context) ([]domain.Enrollment, error) {
	return findAll[domain.Enrollment](ctx, r.collection, bson.M{"status": domain.EnrollmentActive})
}

// Update modifies status, dates and approver of an enrollment.
func (r *mongoEnrollmentRepository) Update(ctx context.Context, enrollment *domain.Enrollment) error {
	if enrollment.ID == primitive.NilObjectID {
		return errors.New("enrollment ID is required for update")
	}
	enrollment.UpdatedAt = time.Now().UTC()

	updateFields := bson.M{
		"status":    enrollment.Status,
		"updatedAt": enrollment.UpdatedAt,
	}
	// Pointer fields are only written when set so a partial struct cannot clear them.
	if enrollment.StartDate != nil {
		updateFields["startDate"] = enrollment.StartDate
	}
	if enrollment.EndDate != nil {
		updateFields["endDate"] = enrollment.EndDate
	}
	if enrollment.ApprovedBy != nil {
		updateFields["approvedBy"] = enrollment.ApprovedBy
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": enrollment.ID}, bson.M{"$set": updateFields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureEnrollmentIndexes creates necessary indexes. Call during startup.
func EnsureEnrollmentIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "athleteId", Value: 1}, {Key: "createdAt", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "programId", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
