// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event statuses.
const (
	EventUpcoming  = "upcoming"
	EventOngoing   = "ongoing"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
)

// Event is a community tournament or session members can register for.
// Participants and Winners hold Discord IDs.
type Event struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description" json:"description"`
	Game            string             `bson:"game" json:"game"`
	Date            time.Time          `bson:"date" json:"date"`
	MaxParticipants int                `bson:"max_participants" json:"max_participants"`
	Prize           string             `bson:"prize" json:"prize"`
	Rules           string             `bson:"rules,omitempty" json:"rules,omitempty"`

	Participants []string       `bson:"participants" json:"participants"`
	Winners      []string       `bson:"winners" json:"winners"`
	Status       string         `bson:"status" json:"status"`
	Rewards      map[string]any `bson:"rewards,omitempty" json:"rewards,omitempty"`

	CreatedBy string    `bson:"created_by" json:"created_by"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
