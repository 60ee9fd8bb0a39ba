package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/NetaKon/Real-Time-Forum/errorz"
)

// ID is the store identifier of a Question. Every backend uses the same 12-byte
// ObjectID so identifiers look the same to clients whatever the store.
type ID = bson.ObjectID

// Question is the aggregate root: a question and the answers embedded in it.
type Question struct {
	ID        ID        `bson:"_id"`
	Title     string    `bson:"title"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
	Answers   []Answer  `bson:"answers"`
}

// Answer belongs to exactly one Question and has no identity of its own.
type Answer struct {
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
}

// NewID returns a fresh identifier.
func NewID() ID {
	return bson.NewObjectID()
}

// ParseID decodes the external (24 hex characters) form of an identifier.
func ParseID(raw string) (ID, error) {
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		return bson.NilObjectID, errorz.ErrInvalidID
	}
	return id, nil
}

// IDString returns the external form of id, also used as its realtime room name.
func IDString(id ID) string {
	return id.Hex()
}
