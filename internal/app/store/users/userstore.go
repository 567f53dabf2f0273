// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/maestros-community/backend/internal/app/system/levels"
	"github.com/maestros-community/backend/internal/domain/models"
)

// ErrDuplicateDiscordID is returned when inserting a user whose Discord ID
// already exists.
var ErrDuplicateDiscordID = errors.New("a user with this discord id already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// ByDiscordID loads a user by Discord ID. Returns mongo.ErrNoDocuments if
// not found. Satisfies auth.UserFetcher.
func (s *Store) ByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"discord_id": discordID}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ByID loads a user by ObjectID.
func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// LoginIdentity is the Discord profile captured at OAuth login.
type LoginIdentity struct {
	DiscordID     string
	Username      string
	Discriminator string
	Avatar        string
	Email         string
	GuildRoles    []string
}

// UpsertLogin creates the user on first login or refreshes their profile
// and guild roles on a repeat login, and returns the stored document.
func (s *Store) UpsertLogin(ctx context.Context, id LoginIdentity) (*models.User, error) {
	now := time.Now()
	roles := id.GuildRoles
	if roles == nil {
		roles = []string{}
	}

	set := bson.M{
		"discord_id":    id.DiscordID,
		"username":      id.Username,
		"discriminator": id.Discriminator,
		"avatar":        id.Avatar,
		"email":         id.Email,
		"guild_roles":   roles,
		"last_login":    now,
	}
	setOnInsert := bson.M{
		"roles":     []string{},
		"xp":        0,
		"level":     0,
		"badges":    []string{},
		"joined_at": now,
	}

	res := s.c.FindOneAndUpdate(ctx,
		bson.M{"discord_id": id.DiscordID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	var u models.User
	if err := res.Decode(&u); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateDiscordID
		}
		return nil, err
	}
	return &u, nil
}

// SetGuildRoles replaces a user's synced Discord roles.
func (s *Store) SetGuildRoles(ctx context.Context, discordID string, roleIDs []string) error {
	if roleIDs == nil {
		roleIDs = []string{}
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"discord_id": discordID},
		bson.M{"$set": bson.M{"guild_roles": roleIDs}},
	)
	return err
}

// UpdateUsername changes the display name shown on the site.
func (s *Store) UpdateUsername(ctx context.Context, discordID, username string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"discord_id": discordID},
		bson.M{"$set": bson.M{"username": username}},
	)
	return err
}

// AddXP adds XP (which may be negative for penalties, floored at zero),
// recomputes the level, and returns the new totals.
func (s *Store) AddXP(ctx context.Context, discordID string, amount int) (xp, level int, err error) {
	u, err := s.ByDiscordID(ctx, discordID)
	if err != nil {
		return 0, 0, err
	}
	xp = u.XP + amount
	if xp < 0 {
		xp = 0
	}
	level = levels.FromXP(xp)
	_, err = s.c.UpdateOne(ctx,
		bson.M{"discord_id": discordID},
		bson.M{"$set": bson.M{"xp": xp, "level": level}},
	)
	return xp, level, err
}

// AddBadge appends a badge if the user does not already carry it.
func (s *Store) AddBadge(ctx context.Context, discordID, badge string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"discord_id": discordID},
		bson.M{"$addToSet": bson.M{"badges": badge}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RemoveBadge removes a badge.
func (s *Store) RemoveBadge(ctx context.Context, discordID, badge string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"discord_id": discordID},
		bson.M{"$pull": bson.M{"badges": badge}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Leaderboard returns the top users by XP, descending.
func (s *Store) Leaderboard(ctx context.Context, limit int64) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "xp", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// List returns users sorted by join date, newest first.
func (s *Store) List(ctx context.Context, limit, skip int64) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "joined_at", Value: -1}}).
			SetLimit(limit).
			SetSkip(skip))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the total number of users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
