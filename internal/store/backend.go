package store

import (
	"context"
	"errors"
)

var (
	ErrMissingID   = errors.New("document id is required")
	ErrDuplicateID = errors.New("duplicate document id in collection state")
)

// Document is one record of a named collection as it travels to and from the
// backend: a stable string id plus a JSON object body. The body always
// contains the id field as well; the separate ID is the addressing key.
type Document struct {
	ID   string
	Data []byte
}

// Backend is the remote document store the collection layer syncs against.
// Implementations must address documents by (collection, id), replace whole
// documents on Put (no merging), and invoke watch callbacks after any change
// to the collection, from whatever source.
type Backend interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Put(ctx context.Context, collection string, doc Document) error
	Delete(ctx context.Context, collection, id string) error
	// PutBatch writes all documents as a single atomic batch. Used for
	// one-time seeding of an empty collection.
	PutBatch(ctx context.Context, collection string, docs []Document) error
	// Watch registers fn to run after every change to the collection and
	// returns a cancel func. fn carries no payload; observers re-list.
	Watch(ctx context.Context, collection string, fn func()) (func(), error)
}
