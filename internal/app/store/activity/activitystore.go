// internal/app/store/activity/activitystore.go
package activitystore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/maestros-community/backend/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activity")}
}

// Record appends an activity entry. Logging never blocks the action it
// describes, so callers typically ignore the error after logging it.
func (s *Store) Record(ctx context.Context, userID, action string, metadata map[string]any) error {
	entry := models.ActivityLog{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Action:    action,
		Metadata:  metadata,
		Timestamp: time.Now(),
	}
	_, err := s.c.InsertOne(ctx, entry)
	return err
}

// Recent returns the latest activity, optionally for a single user.
func (s *Store) Recent(ctx context.Context, userID string, limit, skip int64) ([]models.ActivityLog, error) {
	filter := bson.M{}
	if userID != "" {
		filter["user_id"] = userID
	}
	cur, err := s.c.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: -1}}).
			SetLimit(limit).
			SetSkip(skip))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []models.ActivityLog
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
