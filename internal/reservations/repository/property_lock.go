package repository

import (
	"context"
	"fmt"
	reservationserrors "rentals/internal/reservations/errors"
	"rentals/pkg/config"
	"rentals/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Property_locks"
)

// PropertyLockRepository stores one lease per property.
type PropertyLockRepository interface {
	// TryAcquire takes the lease for propertyID if it is free or expired.
	// It reports false, without error, when another owner holds a live lease.
	TryAcquire(ctx context.Context, propertyID, owner string, now time.Time, ttl time.Duration) (bool, error)
	// Release deletes the lease only if owner still holds it.
	Release(ctx context.Context, propertyID, owner string) error
}

type mongoPropertyLockRepository struct {
	collection *mongo.Collection
}

func NewMongoPropertyLockRepository(cfg *config.Config) PropertyLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPropertyLockRepository{
		collection: db.Collection(CollectionName),
	}
}

// The filter only matches an expired lease. A live lease makes the upsert
// collide on _id, which is reported as a duplicate key error.
func (r *mongoPropertyLockRepository) TryAcquire(ctx context.Context, propertyID, owner string, now time.Time, ttl time.Duration) (bool, error) {
	lockID := model.PropertyLockID(propertyID)

	filter := bson.M{
		"_id":        lockID,
		"expires_at": bson.M{"$lt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"property_id": propertyID,
			"owner":       owner,
			"expires_at":  now.Add(ttl),
			"created_at":  now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire property lock: %w", err)
	}

	return true, nil
}

func (r *mongoPropertyLockRepository) Release(ctx context.Context, propertyID, owner string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":   model.PropertyLockID(propertyID),
		"owner": owner,
	})
	if err != nil {
		return fmt.Errorf("failed to release property lock: %w", err)
	}
	if result.DeletedCount == 0 {
		return reservationserrors.ErrLockNotHeld
	}
	return nil
}
