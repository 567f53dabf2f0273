// internal/domain/models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmbedField is one name/value pair inside a Discord embed.
type EmbedField struct {
	Name   string `bson:"name" json:"name"`
	Value  string `bson:"value" json:"value"`
	Inline bool   `bson:"inline" json:"inline"`
}

// Embed describes the rich embed a manager composes on the site.
// Color is a hex string like "#5865F2".
type Embed struct {
	Title         string       `bson:"title,omitempty" json:"title,omitempty"`
	Description   string       `bson:"description,omitempty" json:"description,omitempty"`
	Color         string       `bson:"color,omitempty" json:"color,omitempty"`
	ThumbnailURL  string       `bson:"thumbnail_url,omitempty" json:"thumbnail_url,omitempty"`
	ImageURL      string       `bson:"image_url,omitempty" json:"image_url,omitempty"`
	FooterText    string       `bson:"footer_text,omitempty" json:"footer_text,omitempty"`
	FooterIconURL string       `bson:"footer_icon_url,omitempty" json:"footer_icon_url,omitempty"`
	AuthorName    string       `bson:"author_name,omitempty" json:"author_name,omitempty"`
	AuthorIconURL string       `bson:"author_icon_url,omitempty" json:"author_icon_url,omitempty"`
	Timestamp     bool         `bson:"timestamp" json:"timestamp"`
	Fields        []EmbedField `bson:"fields,omitempty" json:"fields,omitempty"`
}

// Mentions selects who gets pinged ahead of the embed.
type Mentions struct {
	RoleIDs  []string `bson:"role_ids,omitempty" json:"role_ids,omitempty"`
	UserIDs  []string `bson:"user_ids,omitempty" json:"user_ids,omitempty"`
	Everyone bool     `bson:"everyone" json:"everyone"`
	Here     bool     `bson:"here" json:"here"`
}

// AnnouncementLog is the audit record for every announcement attempt,
// successful or not.
type AnnouncementLog struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ManagerID       string             `bson:"manager_id" json:"manager_id"`
	ManagerUsername string             `bson:"manager_username" json:"manager_username"`
	GuildID         string             `bson:"guild_id" json:"guild_id"`
	GuildName       string             `bson:"guild_name" json:"guild_name"`
	ChannelID       string             `bson:"channel_id" json:"channel_id"`
	ChannelName     string             `bson:"channel_name" json:"channel_name"`
	EmbedSummary    map[string]any     `bson:"embed_summary" json:"embed_summary"`
	Mentions        Mentions           `bson:"mentions" json:"mentions"`
	Content         string             `bson:"content,omitempty" json:"content,omitempty"`
	Success         bool               `bson:"success" json:"success"`
	ErrorMessage    string             `bson:"error_message,omitempty" json:"error_message,omitempty"`
	Timestamp       time.Time          `bson:"timestamp" json:"timestamp"`
}
