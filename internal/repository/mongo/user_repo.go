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

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user into the database.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// GetByEmail retrieves a user by their email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByID retrieves a user by their MongoDB ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	return findAll[domain.User](ctx, r.collection, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// AddAthleteToCoach adds an athlete's ID to a coach's AthleteIDs array.
func (r *mongoUserRepository) AddAthleteToCoach(ctx context.Context, coachID, athleteID primitive.ObjectID) error {
	filter := bson.M{"_id": coachID, "role": domain.RoleCoach}
	update := bson.M{
		"$addToSet": bson.M{"athleteIds": athleteID}, // $addToSet prevents duplicates
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetAthletesByCoachID retrieves all athletes associated with a specific coach.
func (r *mongoUserRepository) GetAthletesByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	coach, err := r.GetByID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	if !coach.IsCoach() {
		return nil, errors.New("user is not a coach")
	}
	if len(coach.AthleteIDs) == 0 {
		return []domain.User{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll[domain.User](ctx, r.collection, bson.M{"_id": bson.M{"$in": coach.AthleteIDs}}, opts)
}

// SetCoachForAthlete sets the CoachID field for a specific athlete.
func (r *mongoUserRepository) SetCoachForAthlete(ctx context.Context, athleteID, coachID primitive.ObjectID) error {
	filter := bson.M{"_id": athleteID, "role": domain.RoleAthlete}
	update := bson.M{
		"$set": bson.M{
			"coachId":   coachID,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUserIndexes creates necessary indexes for the users collection.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}},
			Options: options.Index().SetSparse(true), // only athletes have coachId
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
