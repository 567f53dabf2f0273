// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureApplications(ctx, db); err != nil {
		problems = append(problems, "applications: "+err.Error())
	}
	if err := ensureEvents(ctx, db); err != nil {
		problems = append(problems, "events: "+err.Error())
	}
	if err := ensureGames(ctx, db); err != nil {
		problems = append(problems, "games: "+err.Error())
	}
	if err := ensureRules(ctx, db); err != nil {
		problems = append(problems, "rules: "+err.Error())
	}
	if err := ensureActivity(ctx, db); err != nil {
		problems = append(problems, "activity: "+err.Error())
	}
	if err := ensureWarnings(ctx, db); err != nil {
		problems = append(problems, "warnings: "+err.Error())
	}
	if err := ensureAnnouncementLogs(ctx, db); err != nil {
		problems = append(problems, "announcement_logs: "+err.Error())
	}
	if err := ensureSystemLogs(ctx, db); err != nil {
		problems = append(problems, "logs: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

type existingIndex struct {
	Name string `bson:"name"`
	Key  bson.D `bson:"key"`
}

// ensureIndexSet creates any of the desired indexes that do not already
// exist (matched on key pattern). Indexes present under another name or
// with other options are left alone; reconciling them is an operator task.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, desired []mongo.IndexModel) error {
	existing := map[string]struct{}{}
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var idx existingIndex
			if err := cur.Decode(&idx); err != nil {
				zap.L().Warn("failed to decode existing index",
					zap.String("collection", coll.Name()),
					zap.Error(err))
				continue
			}
			existing[keySig(idx.Key)] = struct{}{}
		}
	}

	var errs []string
	for _, m := range desired {
		sig := keySig(m.Keys.(bson.D))
		if _, ok := existing[sig]; ok {
			continue
		}
		zap.L().Info("creating index",
			zap.String("collection", coll.Name()),
			zap.String("keys", sig))
		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", sig, err))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func asc(fields ...string) bson.D {
	d := bson.D{}
	for _, f := range fields {
		d = append(d, bson.E{Key: f, Value: 1})
	}
	return d
}

func desc(field string) bson.D {
	return bson.D{{Key: field, Value: -1}}
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{Keys: asc("discord_id"), Options: options.Index().SetUnique(true).SetName("uniq_discord_id")},
		{Keys: asc("username")},
		{Keys: desc("xp")},    // leaderboard
		{Keys: desc("level")},
	})
}

func ensureApplications(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("applications"), []mongo.IndexModel{
		{Keys: asc("user_id")},
		{Keys: asc("status")},
		{Keys: desc("submitted_at")},
		{Keys: asc("user_id", "status")},
	})
}

func ensureEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("events"), []mongo.IndexModel{
		{Keys: asc("status")},
		{Keys: asc("date")},
		{Keys: asc("participants")},
	})
}

func ensureGames(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("games"), []mongo.IndexModel{
		{Keys: asc("active")},
		{Keys: desc("created_at")},
		{Keys: asc("name")},
	})
}

func ensureRules(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("rules"), []mongo.IndexModel{
		{Keys: asc("category")},
		{Keys: asc("order")},
	})
}

func ensureActivity(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("activity"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: desc("timestamp")},
	})
}

func ensureWarnings(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("warnings"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "issued_at", Value: -1}}},
	})
}

func ensureAnnouncementLogs(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("announcement_logs"), []mongo.IndexModel{
		{Keys: desc("timestamp")},
		{Keys: asc("manager_id")},
	})
}

func ensureSystemLogs(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("logs"), []mongo.IndexModel{
		{Keys: desc("timestamp")},
		{Keys: asc("level")},
	})
}
