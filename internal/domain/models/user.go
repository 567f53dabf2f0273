// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a community member identified by their Discord account.
//
// NOTE:
//   - GuildRoles holds Discord role IDs (as strings) synced from the guild.
//     Authorization is recomputed per request from these plus the configured
//     role IDs; nothing is derived from stale copies.
//   - Users are never deleted by any handler. Accounts linger after a member
//     leaves the guild so their history (XP, applications) survives a rejoin.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DiscordID     string             `bson:"discord_id" json:"discord_id"`
	Username      string             `bson:"username" json:"username"`
	Discriminator string             `bson:"discriminator,omitempty" json:"discriminator,omitempty"`
	Avatar        string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Email         string             `bson:"email,omitempty" json:"email,omitempty"`

	// Site-level roles granted by admins, distinct from Discord guild roles.
	Roles      []string `bson:"roles" json:"roles"`
	GuildRoles []string `bson:"guild_roles" json:"guild_roles"`

	XP     int      `bson:"xp" json:"xp"`
	Level  int      `bson:"level" json:"level"`
	Badges []string `bson:"badges" json:"badges"`

	JoinedAt  time.Time `bson:"joined_at" json:"joined_at"`
	LastLogin time.Time `bson:"last_login" json:"last_login"`
}
