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

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

func validateWorkout(w *domain.Workout) error {
	if w.CoachID == primitive.NilObjectID || w.Title == "" {
		return errors.New("workout requires coachId and title")
	}
	if w.ProgramID == nil && w.AthleteID == nil {
		return errors.New("workout requires a programId or an athleteId")
	}
	return nil
}

// Create inserts a new workout.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if err := validateWorkout(workout); err != nil {
		return primitive.NilObjectID, err
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// CreateMany inserts workouts in one round trip, assigning IDs in place.
func (r *mongoWorkoutRepository) CreateMany(ctx context.Context, workouts []domain.Workout) error {
	if len(workouts) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, len(workouts))
	for i := range workouts {
		if err := validateWorkout(&workouts[i]); err != nil {
			return err
		}
		workouts[i].ID = primitive.NewObjectID()
		workouts[i].CreatedAt = now
		workouts[i].UpdatedAt = now
		docs[i] = workouts[i]
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByID retrieves a single workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// GetByProgramID retrieves all workouts of a program ordered by day-number.
func (r *mongoWorkoutRepository) GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.Workout, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dayNumber", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[domain.Workout](ctx, r.collection, bson.M{"programId": programID}, opts)
}

// GetForAthlete retrieves personal workouts of the athlete and the
// non-template workouts of the given programs, in insertion order.
func (r *mongoWorkoutRepository) GetForAthlete(ctx context.Context, athleteID primitive.ObjectID, programIDs []primitive.ObjectID) ([]domain.Workout, error) {
	or := bson.A{bson.M{"athleteId": athleteID}}
	if len(programIDs) > 0 {
		or = append(or, bson.M{
			"programId":  bson.M{"$in": programIDs},
			"athleteId":  bson.M{"$exists": false},
			"isTemplate": bson.M{"$ne": true},
		})
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return findAll[domain.Workout](ctx, r.collection, bson.M{"$or": or}, opts)
}

// Update modifies the editable fields of a workout. Ownership and program
// linkage are not changed here.
func (r *mongoWorkoutRepository) Update(ctx context.Context, workout *domain.Workout) error {
	if workout.ID == primitive.NilObjectID {
		return errors.New("workout ID is required for update")
	}
	workout.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"title":           workout.Title,
		"durationMinutes": workout.DurationMinutes,
		"exercises":       workout.Exercises,
		"coachNotes":      workout.CoachNotes,
		"isTemplate":      workout.IsTemplate,
		"updatedAt":       workout.UpdatedAt,
	}
	unset := bson.M{}
	if workout.DayNumber != nil {
		set["dayNumber"] = *workout.DayNumber
	} else {
		unset["dayNumber"] = ""
	}
	if workout.ScheduledDate != nil {
		set["scheduledDate"] = *workout.ScheduledDate
	} else {
		unset["scheduledDate"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": workout.ID, "coachId": workout.CoachID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a workout owned by coachID.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, workoutID, coachID primitive.ObjectID) error {
	if workoutID == primitive.NilObjectID || coachID == primitive.NilObjectID {
		return errors.New("workout ID and coach ID are required for deletion")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": workoutID, "coachId": coachID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		// Not found or not owned by this coach.
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "programId", Value: 1}, {Key: "dayNumber", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "athleteId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "coachId", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
