// internal/app/store/announcements/announcementstore.go
package announcementstore

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
	return &Store{c: db.Collection("announcement_logs")}
}

// Record writes the audit entry for an announcement attempt. Called for
// both successes and failures.
func (s *Store) Record(ctx context.Context, log *models.AnnouncementLog) error {
	log.ID = primitive.NewObjectID()
	log.Timestamp = time.Now()
	_, err := s.c.InsertOne(ctx, log)
	return err
}

// ByID returns one audit entry. mongo.ErrNoDocuments when absent.
func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (*models.AnnouncementLog, error) {
	var log models.AnnouncementLog
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&log); err != nil {
		return nil, err
	}
	return &log, nil
}

// Recent returns the latest announcement audit entries, optionally filtered
// to one manager.
func (s *Store) Recent(ctx context.Context, managerID string, limit, skip int64) ([]models.AnnouncementLog, error) {
	filter := bson.M{}
	if managerID != "" {
		filter["manager_id"] = managerID
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

	var logs []models.AnnouncementLog
	if err := cur.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
