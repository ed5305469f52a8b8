// Package store persists resolved world-state snapshots.
//
// A [Store] keeps an append-only history of [Snapshot] values ordered by
// fetch time. Three drivers exist: the in-memory [Memory] store in this
// package, and the postgres and sqlite subpackages. Every implementation
// must be safe for concurrent use.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by [Store.Get] and [Store.Latest] when no matching
// snapshot exists.
var ErrNotFound = errors.New("store: snapshot not found")

// Snapshot is one resolved world-state document as it was fetched at a
// point in time.
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	FetchedAt time.Time `json:"fetchedAt"`

	// Hash is the hex SHA-256 of the raw upstream document. Two snapshots
	// with equal hashes carry identical content.
	Hash string `json:"hash"`

	// Document is the resolved world state encoded as JSON. It is nil in
	// the results of [Store.List].
	Document json.RawMessage `json:"document,omitempty"`
}

// NewSnapshot builds a Snapshot for doc with a fresh time-ordered ID. raw is
// the upstream document the hash is computed from.
func NewSnapshot(raw, doc []byte, fetchedAt time.Time) (Snapshot, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		ID:        id,
		FetchedAt: fetchedAt.UTC(),
		Hash:      Hash(raw),
		Document:  doc,
	}, nil
}

// Hash returns the hex SHA-256 of raw.
func Hash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Store is the snapshot history.
type Store interface {
	// Save appends snap to the history.
	Save(ctx context.Context, snap Snapshot) error

	// Latest returns the most recently fetched snapshot, or [ErrNotFound]
	// when the store is empty.
	Latest(ctx context.Context) (Snapshot, error)

	// Get returns the snapshot with the given id, or [ErrNotFound].
	Get(ctx context.Context, id uuid.UUID) (Snapshot, error)

	// List returns up to limit snapshots, newest first, without their
	// documents. A limit <= 0 returns every snapshot.
	List(ctx context.Context, limit int) ([]Snapshot, error)

	// Prune deletes all but the keep newest snapshots and reports how many
	// were removed. A keep <= 0 is a no-op.
	Prune(ctx context.Context, keep int) (int, error)

	// Close releases the resources held by the store.
	Close() error
}
