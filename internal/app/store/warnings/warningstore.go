// internal/app/store/warnings/warningstore.go
package warningstore

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
	return &Store{c: db.Collection("warnings")}
}

func (s *Store) Create(ctx context.Context, w *models.Warning) (primitive.ObjectID, error) {
	w.ID = primitive.NewObjectID()
	w.IssuedAt = time.Now()
	if _, err := s.c.InsertOne(ctx, w); err != nil {
		return primitive.NilObjectID, err
	}
	return w.ID, nil
}

// ByUser returns a member's warnings, newest first.
func (s *Store) ByUser(ctx context.Context, userID string) ([]models.Warning, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "issued_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var warnings []models.Warning
	if err := cur.All(ctx, &warnings); err != nil {
		return nil, err
	}
	return warnings, nil
}

// CountByUser returns how many warnings a member carries.
func (s *Store) CountByUser(ctx context.Context, userID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID})
}

// Delete revokes a warning.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
