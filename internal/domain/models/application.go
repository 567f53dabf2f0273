// internal/domain/models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application statuses.
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// Application is a membership request submitted through the site.
// Data holds the raw answers from the application form; Analysis and
// ResultScore are filled in by the moderation scorer at submit time.
type Application struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"` // Discord ID of the applicant
	FormType    string             `bson:"form_type" json:"form_type"`
	Data        map[string]any     `bson:"data" json:"data"`
	Status      string             `bson:"status" json:"status"`
	ResultScore float64            `bson:"result_score,omitempty" json:"result_score,omitempty"`
	Analysis    map[string]any     `bson:"analysis,omitempty" json:"analysis,omitempty"`

	SubmittedAt time.Time  `bson:"submitted_at" json:"submitted_at"`
	ReviewedAt  *time.Time `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	ReviewedBy  string     `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`

	// Notes from the accepting manager, or the rejection reason.
	Notes  string `bson:"notes,omitempty" json:"notes,omitempty"`
	Reason string `bson:"reason,omitempty" json:"reason,omitempty"`

	// CEO reapply override: waives the submit cooldown until it expires.
	OverrideByCEO     bool       `bson:"override_by_ceo,omitempty" json:"override_by_ceo,omitempty"`
	OverrideGrantedBy string     `bson:"override_granted_by,omitempty" json:"override_granted_by,omitempty"`
	OverrideGrantedAt *time.Time `bson:"override_granted_at,omitempty" json:"override_granted_at,omitempty"`
	OverrideExpiresAt *time.Time `bson:"override_expires_at,omitempty" json:"override_expires_at,omitempty"`
}
