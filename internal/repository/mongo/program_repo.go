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

const programCollectionName = "programs"

// mongoProgramRepository implements repository.ProgramRepository
type mongoProgramRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramRepository creates a new Program repository backed by MongoDB.
func NewMongoProgramRepository(db *mongo.Database) repository.ProgramRepository {
	return &mongoProgramRepository{
		collection: db.Collection(programCollectionName),
	}
}

// Create inserts a new program.
func (r *mongoProgramRepository) Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error) {
	if program.CoachID == primitive.NilObjectID || program.Name == "" {
		return primitive.NilObjectID, errors.New("program requires coachId and name")
	}
	program.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, program)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// GetByID retrieves a program by its ID.
func (r *mongoProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error) {
	var program domain.Program
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&program)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &program, nil
}

func (r *mongoProgramRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Program, error) {
	if len(ids) == 0 {
		return []domain.Program{}, nil
	}
	return findAll[domain.Program](ctx, r.collection, bson.M{"_id": bson.M{"$in": ids}})
}

// GetByCoachID retrieves all programs authored by a coach, sorted by name.
func (r *mongoProgramRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Program, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll[domain.Program](ctx, r.collection, bson.M{"coachId": coachID}, opts)
}

// List returns every program, for athletes browsing what they can enroll in.
func (r *mongoProgramRepository) List(ctx context.Context) ([]domain.Program, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll[domain.Program](ctx, r.collection, bson.M{}, opts)
}

// Update modifies an existing program. The coach must own it.
func (r *mongoProgramRepository) Update(ctx context.Context, program *domain.Program) error {
	if program.ID == primitive.NilObjectID {
		return errors.New("program ID is required for update")
	}
	program.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": program.ID, "coachId": program.CoachID}
	update := bson.M{"$set": bson.M{
		"name":          program.Name,
		"description":   program.Description,
		"durationWeeks": program.DurationWeeks,
		"updatedAt":     program.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a program owned by coachID.
func (r *mongoProgramRepository) Delete(ctx context.Context, id, coachID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "coachId": coachID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureProgramIndexes creates necessary indexes. Call during startup.
func EnsureProgramIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// A coach cannot have two programs with the same name; import relies on it.
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
