package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/maestros-community/backend/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given Discord ID and guild roles.
func (f *Fixtures) CreateUser(ctx context.Context, discordID, username string, guildRoles ...string) models.User {
	f.t.Helper()

	if guildRoles == nil {
		guildRoles = []string{}
	}
	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		DiscordID:  discordID,
		Username:   username,
		Roles:      []string{},
		GuildRoles: guildRoles,
		Badges:     []string{},
		JoinedAt:   now,
		LastLogin:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateUserWithXP creates a test user carrying the given XP and level.
func (f *Fixtures) CreateUserWithXP(ctx context.Context, discordID, username string, xp, level int) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, discordID, username)
	_, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{"xp": xp, "level": level}})
	if err != nil {
		f.t.Fatalf("failed to set test user xp: %v", err)
	}
	u.XP = xp
	u.Level = level
	return u
}

// CreateApplication creates a pending application for the given user.
func (f *Fixtures) CreateApplication(ctx context.Context, discordID string, data map[string]any) models.Application {
	f.t.Helper()

	if data == nil {
		data = map[string]any{"why_join": "test answer"}
	}
	app := models.Application{
		ID:          primitive.NewObjectID(),
		UserID:      discordID,
		FormType:    "membership",
		Data:        data,
		Status:      models.ApplicationPending,
		SubmittedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("applications").InsertOne(ctx, app); err != nil {
		f.t.Fatalf("failed to create test application: %v", err)
	}
	return app
}

// CreateEvent creates an upcoming event with the given capacity.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, maxParticipants int) models.Event {
	f.t.Helper()

	event := models.Event{
		ID:              primitive.NewObjectID(),
		Title:           title,
		Description:     "Test event description",
		Game:            "Test Game",
		Date:            time.Now().UTC().Add(48 * time.Hour),
		MaxParticipants: maxParticipants,
		Participants:    []string{},
		Winners:         []string{},
		Status:          models.EventUpcoming,
		CreatedBy:       "test-manager",
		CreatedAt:       time.Now().UTC(),
	}

	if _, err := f.db.Collection("events").InsertOne(ctx, event); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return event
}

// CreateGame creates an active game.
func (f *Fixtures) CreateGame(ctx context.Context, name string) models.Game {
	f.t.Helper()

	now := time.Now().UTC()
	game := models.Game{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("games").InsertOne(ctx, game); err != nil {
		f.t.Fatalf("failed to create test game: %v", err)
	}
	return game
}

// CreateRule creates a rulebook entry in the given category.
func (f *Fixtures) CreateRule(ctx context.Context, category, title string, order int) models.Rule {
	f.t.Helper()

	now := time.Now().UTC()
	rule := models.Rule{
		ID:          primitive.NewObjectID(),
		Category:    category,
		Title:       title,
		Description: "Test rule description",
		Order:       order,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("rules").InsertOne(ctx, rule); err != nil {
		f.t.Fatalf("failed to create test rule: %v", err)
	}
	return rule
}

// CreateWarning creates a moderation warning against the given user.
func (f *Fixtures) CreateWarning(ctx context.Context, userID, severity string) models.Warning {
	f.t.Helper()

	warning := models.Warning{
		ID:       primitive.NewObjectID(),
		UserID:   userID,
		Reason:   "Test warning",
		Severity: severity,
		IssuedBy: "test-manager",
		IssuedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("warnings").InsertOne(ctx, warning); err != nil {
		f.t.Fatalf("failed to create test warning: %v", err)
	}
	return warning
}
