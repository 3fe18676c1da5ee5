// internal/domain/models/verification.go
package models

import "time"

// VerificationStatus is the lifecycle state of a poet verification request.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// Terminal reports whether no further transitions are allowed.
func (s VerificationStatus) Terminal() bool {
	return s == VerificationApproved || s == VerificationRejected
}

// CanBecome reports whether a request in state s may move to next.
// Only pending -> approved and pending -> rejected are allowed.
func (s VerificationStatus) CanBecome(next VerificationStatus) bool {
	return s == VerificationPending && next.Terminal()
}

// PoetVerificationRequest is a curator's request to become a verified poet.
type PoetVerificationRequest struct {
	ID           string             `bson:"_id" json:"id"`
	UserID       string             `bson:"user_id" json:"user_id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	Bio          string             `bson:"bio" json:"bio"`
	SampleGhazal string             `bson:"sample_ghazal" json:"sample_ghazal"`
	Status       VerificationStatus `bson:"status" json:"status"`
	SubmittedAt  time.Time          `bson:"submitted_at" json:"submitted_at"`
	DecidedAt    *time.Time         `bson:"decided_at,omitempty" json:"decided_at,omitempty"`
	DecidedBy    string             `bson:"decided_by,omitempty" json:"decided_by,omitempty"`
}
