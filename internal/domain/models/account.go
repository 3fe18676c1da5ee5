// internal/domain/models/account.go
package models

import "time"

// Auth provider names stored on credentials.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Credential is the identity provider's record for one uid. It is kept apart
// from User so profile reads never carry secrets.
type Credential struct {
	ID            string    `bson:"_id" json:"id"` // uid, shared with User.ID
	Email         string    `bson:"email" json:"email"`
	PasswordHash  string    `bson:"password_hash,omitempty" json:"-"`
	GoogleSubject string    `bson:"google_subject,omitempty" json:"-"`
	DisplayName   string    `bson:"display_name,omitempty" json:"display_name,omitempty"`
	Provider      string    `bson:"provider" json:"provider"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	LastSignInAt  time.Time `bson:"last_sign_in_at" json:"last_sign_in_at"`
}

// DeviceToken is a push-notification registration.
type DeviceToken struct {
	Token     string    `bson:"_id" json:"token"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Platform  string    `bson:"platform" json:"platform"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
