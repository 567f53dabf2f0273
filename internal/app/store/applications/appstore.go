// internal/app/store/applications/appstore.go
package appstore

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
	return &Store{c: db.Collection("applications")}
}

// Create inserts a new application in pending status.
func (s *Store) Create(ctx context.Context, a *models.Application) (primitive.ObjectID, error) {
	a.ID = primitive.NewObjectID()
	a.Status = models.ApplicationPending
	a.SubmittedAt = time.Now()
	if a.Data == nil {
		a.Data = map[string]any{}
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return primitive.NilObjectID, err
	}
	return a.ID, nil
}

func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	var a models.Application
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// PendingByUser returns the user's open application, if any.
func (s *Store) PendingByUser(ctx context.Context, discordID string) (*models.Application, error) {
	var a models.Application
	err := s.c.FindOne(ctx, bson.M{
		"user_id": discordID,
		"status":  models.ApplicationPending,
	}).Decode(&a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// LatestByUser returns the user's most recent application regardless of
// status. mongo.ErrNoDocuments when the user has never applied.
func (s *Store) LatestByUser(ctx context.Context, discordID string) (*models.Application, error) {
	var a models.Application
	err := s.c.FindOne(ctx, bson.M{"user_id": discordID},
		options.FindOne().SetSort(bson.D{{Key: "submitted_at", Value: -1}})).Decode(&a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GrantReapplyOverride marks the user's most recent rejected application
// with a CEO cooldown waiver lasting until expires. mongo.ErrNoDocuments
// when the user has no rejected application to waive.
func (s *Store) GrantReapplyOverride(ctx context.Context, discordID, ceoID string, expires time.Time) error {
	now := time.Now()
	res := s.c.FindOneAndUpdate(ctx,
		bson.M{"user_id": discordID, "status": models.ApplicationRejected},
		bson.M{"$set": bson.M{
			"override_by_ceo":     true,
			"override_granted_by": ceoID,
			"override_granted_at": now,
			"override_expires_at": expires,
		}},
		options.FindOneAndUpdate().SetSort(bson.D{{Key: "submitted_at", Value: -1}}))
	return res.Err()
}

// ByUser returns all of a user's applications, newest first.
func (s *Store) ByUser(ctx context.Context, discordID string) ([]models.Application, error) {
	return s.find(ctx, bson.M{"user_id": discordID}, 0, 0)
}

// Pending returns pending applications, oldest first so reviewers work the
// queue in submission order.
func (s *Store) Pending(ctx context.Context, limit, skip int64) ([]models.Application, error) {
	cur, err := s.c.Find(ctx, bson.M{"status": models.ApplicationPending},
		options.Find().
			SetSort(bson.D{{Key: "submitted_at", Value: 1}}).
			SetLimit(limit).
			SetSkip(skip))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var apps []models.Application
	if err := cur.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// List returns applications optionally filtered by status, newest first.
func (s *Store) List(ctx context.Context, status string, limit, skip int64) ([]models.Application, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.find(ctx, filter, limit, skip)
}

// Decide records an accept/reject decision on a pending application.
// Notes carries the accepting manager's notes, reason the rejection reason.
// Returns mongo.ErrNoDocuments when the application is missing or already
// decided.
func (s *Store) Decide(ctx context.Context, id primitive.ObjectID, status, reviewerID, notes, reason string) error {
	now := time.Now()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ApplicationPending},
		bson.M{"$set": bson.M{
			"status":      status,
			"reviewed_by": reviewerID,
			"reviewed_at": now,
			"notes":       notes,
			"reason":      reason,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetAnalysis attaches the automated score and per-question analysis.
func (s *Store) SetAnalysis(ctx context.Context, id primitive.ObjectID, score float64, analysis map[string]any) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"result_score": score,
			"analysis":     analysis,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes an application outright. Admin use only.
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

// CountSince returns how many applications were submitted at or after t.
func (s *Store) CountSince(ctx context.Context, t time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"submitted_at": bson.M{"$gte": t}})
}

// StatusCounts tallies applications per status.
func (s *Store) StatusCounts(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := map[string]int64{
		models.ApplicationPending:  0,
		models.ApplicationApproved: 0,
		models.ApplicationRejected: 0,
	}
	for cur.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.ID] = row.Count
	}
	return counts, cur.Err()
}

func (s *Store) find(ctx context.Context, filter bson.M, limit, skip int64) ([]models.Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit).SetSkip(skip)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var apps []models.Application
	if err := cur.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}
