package userstore

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/maestros-community/backend/internal/testutil"
)

func TestUpsertLoginCreatesAndRefreshes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	u, err := store.UpsertLogin(ctx, LoginIdentity{
		DiscordID:  "111",
		Username:   "alice",
		GuildRoles: []string{"role-member"},
	})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if u.XP != 0 || u.Level != 0 {
		t.Errorf("new user should start at zero xp/level, got %d/%d", u.XP, u.Level)
	}
	if u.JoinedAt.IsZero() {
		t.Error("joined_at not set on first login")
	}

	// Repeat login refreshes profile but keeps progression.
	if _, _, err := store.AddXP(ctx, "111", 500); err != nil {
		t.Fatalf("add xp: %v", err)
	}
	u2, err := store.UpsertLogin(ctx, LoginIdentity{
		DiscordID:  "111",
		Username:   "alice-renamed",
		GuildRoles: []string{"role-member", "role-manager"},
	})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if u2.Username != "alice-renamed" {
		t.Errorf("username not refreshed: %q", u2.Username)
	}
	if u2.XP != 500 {
		t.Errorf("xp reset on repeat login: %d", u2.XP)
	}
	if !u2.JoinedAt.Equal(u.JoinedAt) {
		t.Error("joined_at changed on repeat login")
	}
	if len(u2.GuildRoles) != 2 {
		t.Errorf("guild roles not refreshed: %v", u2.GuildRoles)
	}
}

func TestByDiscordIDMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)

	_, err := store.ByDiscordID(ctx, "nope")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestAddXPFloorsAtZeroAndLevels(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)

	fx.CreateUser(ctx, "222", "bob")

	xp, level, err := store.AddXP(ctx, "222", 450)
	if err != nil {
		t.Fatalf("add xp: %v", err)
	}
	if xp != 450 || level != 2 {
		t.Errorf("got xp=%d level=%d, want 450/2", xp, level)
	}

	xp, level, err = store.AddXP(ctx, "222", -1000)
	if err != nil {
		t.Fatalf("subtract xp: %v", err)
	}
	if xp != 0 || level != 0 {
		t.Errorf("negative totals should floor at zero, got xp=%d level=%d", xp, level)
	}
}

func TestBadges(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)

	fx.CreateUser(ctx, "333", "carol")

	if err := store.AddBadge(ctx, "333", "founder"); err != nil {
		t.Fatalf("add badge: %v", err)
	}
	// Adding the same badge again is a no-op, not a duplicate.
	if err := store.AddBadge(ctx, "333", "founder"); err != nil {
		t.Fatalf("re-add badge: %v", err)
	}
	u, err := store.ByDiscordID(ctx, "333")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(u.Badges) != 1 || u.Badges[0] != "founder" {
		t.Errorf("badges = %v, want [founder]", u.Badges)
	}

	if err := store.RemoveBadge(ctx, "333", "founder"); err != nil {
		t.Fatalf("remove badge: %v", err)
	}
	if err := store.AddBadge(ctx, "missing", "founder"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("badge on missing user: got %v, want ErrNoDocuments", err)
	}
}

func TestLeaderboardOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := New(db)
	fx := testutil.NewFixtures(t, db)

	fx.CreateUserWithXP(ctx, "1", "low", 100, 1)
	fx.CreateUserWithXP(ctx, "2", "high", 900, 3)
	fx.CreateUserWithXP(ctx, "3", "mid", 400, 2)

	top, err := store.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("got %d users, want 2", len(top))
	}
	if top[0].DiscordID != "2" || top[1].DiscordID != "3" {
		t.Errorf("order wrong: %s, %s", top[0].DiscordID, top[1].DiscordID)
	}
}
