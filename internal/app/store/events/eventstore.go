// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/maestros-community/backend/internal/domain/models"
)

// Registration failure modes surfaced to handlers as distinct errors.
var (
	ErrEventFull           = errors.New("event is full")
	ErrAlreadyRegistered   = errors.New("already registered for this event")
	ErrNotRegistered       = errors.New("not registered for this event")
	ErrEventNotOpen        = errors.New("event is not open for registration")
	ErrWinnersNotAllowed   = errors.New("winners can only be set on a completed event")
	ErrWinnerNotRegistered = errors.New("winner was not a participant")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

func (s *Store) Create(ctx context.Context, e *models.Event) (primitive.ObjectID, error) {
	e.ID = primitive.NewObjectID()
	e.CreatedAt = time.Now()
	if e.Status == "" {
		e.Status = models.EventUpcoming
	}
	if e.Participants == nil {
		e.Participants = []string{}
	}
	if e.Winners == nil {
		e.Winners = []string{}
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return primitive.NilObjectID, err
	}
	return e.ID, nil
}

func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns events optionally filtered by status. Upcoming and ongoing
// events sort soonest first; everything else newest first.
func (s *Store) List(ctx context.Context, status string, limit, skip int64) ([]models.Event, error) {
	filter := bson.M{}
	sort := bson.D{{Key: "date", Value: -1}}
	if status != "" {
		filter["status"] = status
		if status == models.EventUpcoming || status == models.EventOngoing {
			sort = bson.D{{Key: "date", Value: 1}}
		}
	}
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(sort).SetLimit(limit).SetSkip(skip))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Upcoming returns the next events by date. Events whose date has passed
// but were never marked ongoing or completed are excluded.
func (s *Store) Upcoming(ctx context.Context, limit int64) ([]models.Event, error) {
	filter := bson.M{
		"status": models.EventUpcoming,
		"date":   bson.M{"$gte": time.Now()},
	}
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	events := []models.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountUpcoming counts events that are still ahead of now.
func (s *Store) CountUpcoming(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"status": models.EventUpcoming,
		"date":   bson.M{"$gte": time.Now()},
	})
}

// ByParticipant returns the most recent events the member registered for.
func (s *Store) ByParticipant(ctx context.Context, discordID string, limit int64) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"participants": discordID}, opts)
	if err != nil {
		return nil, err
	}
	events := []models.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Update applies a partial update built by the handler.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

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

// Register adds the user to the participant list. The capacity check and
// the membership check ride in the update filter so concurrent signups
// cannot overfill the event.
func (s *Store) Register(ctx context.Context, id primitive.ObjectID, discordID string) error {
	e, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	if e.Status != models.EventUpcoming {
		return ErrEventNotOpen
	}
	for _, p := range e.Participants {
		if p == discordID {
			return ErrAlreadyRegistered
		}
	}

	filter := bson.M{
		"_id":          id,
		"status":       models.EventUpcoming,
		"participants": bson.M{"$ne": discordID},
	}
	if e.MaxParticipants > 0 {
		filter["$expr"] = bson.M{"$lt": bson.A{
			bson.M{"$size": "$participants"}, e.MaxParticipants,
		}}
	}
	res, err := s.c.UpdateOne(ctx, filter,
		bson.M{"$addToSet": bson.M{"participants": discordID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrEventFull
	}
	return nil
}

// Unregister removes the user from an upcoming event.
func (s *Store) Unregister(ctx context.Context, id primitive.ObjectID, discordID string) error {
	e, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	if e.Status != models.EventUpcoming {
		return ErrEventNotOpen
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "participants": discordID},
		bson.M{"$pull": bson.M{"participants": discordID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotRegistered
	}
	return nil
}

// SetWinners records the winners of a completed event. Every winner must
// have been a participant.
func (s *Store) SetWinners(ctx context.Context, id primitive.ObjectID, winners []string) error {
	e, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	if e.Status != models.EventCompleted {
		return ErrWinnersNotAllowed
	}
	registered := make(map[string]bool, len(e.Participants))
	for _, p := range e.Participants {
		registered[p] = true
	}
	for _, w := range winners {
		if !registered[w] {
			return ErrWinnerNotRegistered
		}
	}
	if winners == nil {
		winners = []string{}
	}
	return s.Update(ctx, id, bson.M{"winners": winners})
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
