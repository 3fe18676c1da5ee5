// internal/domain/models/poetry.go
package models

import "time"

// Couplet is a two-line excerpt and the unit users save into collections.
// IntikhabCount always equals len(SavedBy); the two only move together.
type Couplet struct {
	ID            string    `bson:"_id" json:"id"`
	Content       string    `bson:"content" json:"content"`
	Poet          string    `bson:"poet" json:"poet"`
	GhazalID      string    `bson:"ghazal_id,omitempty" json:"ghazal_id,omitempty"`
	IntikhabCount int64     `bson:"intikhab_count" json:"intikhab_count"`
	SavedBy       []string  `bson:"saved_by" json:"saved_by"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// SavedByUser reports whether userID has this couplet in a collection.
func (c *Couplet) SavedByUser(userID string) bool {
	return containsString(c.SavedBy, userID)
}

// Ghazal is a full poem. Read-only for the app.
type Ghazal struct {
	ID            string    `bson:"_id" json:"id"`
	Title         string    `bson:"title" json:"title"`
	Poet          string    `bson:"poet" json:"poet"`
	Content       string    `bson:"content" json:"content"`
	IntikhabCount int64     `bson:"intikhab_count" json:"intikhab_count"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// Poet is a poet profile. IDs are slugs such as "mirza-ghalib".
type Poet struct {
	ID            string    `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Bio           string    `bson:"bio" json:"bio"`
	Verified      bool      `bson:"verified" json:"verified"`
	Followers     []string  `bson:"followers" json:"-"`
	FollowerCount int64     `bson:"follower_count" json:"follower_count"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}
