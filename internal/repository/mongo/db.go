package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI and
// verifies it with a ping against the primary.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// The initial connection can succeed against an unresponsive server.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Failures are logged
// and do not stop startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) {
	ensure := map[string]func(context.Context, *mongo.Collection) error{
		userCollectionName:       EnsureUserIndexes,
		programCollectionName:    EnsureProgramIndexes,
		enrollmentCollectionName: EnsureEnrollmentIndexes,
		workoutCollectionName:    EnsureWorkoutIndexes,
		checkInCollectionName:    EnsureCheckInIndexes,
		mediaCollectionName:      EnsureMediaIndexes,
	}
	for name, fn := range ensure {
		if err := fn(ctx, db.Collection(name)); err != nil {
			logger.Warn("failed to create indexes", zap.String("collection", name), zap.Error(err))
		}
	}
}

func insertedObjectID(result *mongo.InsertOneResult) (primitive.ObjectID, error) {
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("failed to convert inserted ID %v", result.InsertedID)
	}
	return id, nil
}

// findAll runs filter and decodes every document into a slice. It never
// returns a nil slice on success.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
