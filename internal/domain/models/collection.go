// internal/domain/models/collection.go
package models

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// CollectionNamePrefix is prepended to the username to name a user's
// default collection ("Intikhab-e-<username>").
const CollectionNamePrefix = "Intikhab-e-"

// MaxCollectionNameRunes bounds the length of a collection name.
const MaxCollectionNameRunes = 120

var ErrInvalidCollectionName = errors.New(`collection name must be 1-120 characters without "." or "$" and without surrounding spaces`)

// CollectionName names one of a user's collections. It is also a document
// field path segment ("intikhab.<name>.items"), which is why "." and "$"
// are not allowed.
type CollectionName string

// DefaultCollectionName derives the name of the collection created at sign-up.
func DefaultCollectionName(username string) CollectionName {
	return CollectionName(CollectionNamePrefix + username)
}

// ParseCollectionName validates s and returns it as a CollectionName.
func ParseCollectionName(s string) (CollectionName, error) {
	n := CollectionName(s)
	if err := n.Validate(); err != nil {
		return "", err
	}
	return n, nil
}

// Validate checks the name against the field-path rules.
func (n CollectionName) Validate() error {
	s := string(n)
	if s == "" || strings.TrimSpace(s) != s {
		return ErrInvalidCollectionName
	}
	if utf8.RuneCountInString(s) > MaxCollectionNameRunes {
		return ErrInvalidCollectionName
	}
	if strings.ContainsAny(s, ".$") || !utf8.ValidString(s) {
		return ErrInvalidCollectionName
	}
	return nil
}

func (n CollectionName) String() string { return string(n) }

// ItemType is the kind of document an ItemRef points at.
type ItemType string

// ItemCouplet is the only item type the app currently produces.
const ItemCouplet ItemType = "couplet"

// ItemRef points from a collection at a saved document. Poet is a copy of the
// couplet's poet taken when the item was saved; it is not re-synced later.
type ItemRef struct {
	Type ItemType `bson:"type" json:"type"`
	ID   string   `bson:"id" json:"id"`
	Poet string   `bson:"poet" json:"poet"`
}

// SameTarget reports whether r and o reference the same document. Membership
// is decided by (type, id) only.
func (r ItemRef) SameTarget(o ItemRef) bool {
	return r.Type == o.Type && r.ID == o.ID
}

// Collection is one named Intikhab embedded in a User document.
type Collection struct {
	Items     []ItemRef `bson:"items" json:"items"`         // insertion order
	IsPublic  bool      `bson:"is_public" json:"is_public"` // listed in discover when true
	Followers []string  `bson:"followers" json:"followers"` // user IDs, never the owner
}

// NewCollection returns an empty public collection.
func NewCollection() Collection {
	return Collection{Items: []ItemRef{}, IsPublic: true, Followers: []string{}}
}

// Contains reports whether an item with the same (type, id) is present.
func (c Collection) Contains(ref ItemRef) bool {
	for _, it := range c.Items {
		if it.SameTarget(ref) {
			return true
		}
	}
	return false
}

// HasFollower reports whether userID follows this collection.
func (c Collection) HasFollower(userID string) bool {
	return containsString(c.Followers, userID)
}
