// internal/app/store/syslogs/syslogstore.go
package syslogstore

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
	return &Store{c: db.Collection("logs")}
}

// Record writes a system event. Best effort: callers log the error and
// move on.
func (s *Store) Record(ctx context.Context, event, level string, metadata map[string]any) error {
	entry := models.SystemLog{
		ID:        primitive.NewObjectID(),
		Event:     event,
		Level:     level,
		Metadata:  metadata,
		Timestamp: time.Now(),
	}
	_, err := s.c.InsertOne(ctx, entry)
	return err
}

// Recent returns system events newest first, optionally filtered by level.
func (s *Store) Recent(ctx context.Context, level string, limit, skip int64) ([]models.SystemLog, error) {
	filter := bson.M{}
	if level != "" {
		filter["level"] = level
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

	var entries []models.SystemLog
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
