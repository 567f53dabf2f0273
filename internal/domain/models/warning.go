// internal/domain/models/warning.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Warning is a moderation strike against a member.
type Warning struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   string             `bson:"user_id" json:"user_id"`
	Reason   string             `bson:"reason" json:"reason"`
	Severity string             `bson:"severity" json:"severity"` // low | medium | high
	IssuedBy string             `bson:"issued_by" json:"issued_by"`
	IssuedAt time.Time          `bson:"issued_at" json:"issued_at"`
}
