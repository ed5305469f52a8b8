// Package postgres provides a PostgreSQL-backed [store.Store].
//
// Documents are stored zstd-compressed in a BYTEA column. The schema is
// embedded and applied by [Migrate] on [New].
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/worldstate/internal/store"
)

var _ store.Store = (*Store)(nil)

//go:embed schema.sql
var schema string

// Store is a snapshot history in PostgreSQL. All methods are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database at dsn, verifies the connection, and runs
// [Migrate].
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate creates the snapshots table and its index if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Save implements [store.Store].
func (s *Store) Save(ctx context.Context, snap store.Snapshot) error {
	const q = `
		INSERT INTO snapshots (id, fetched_at, hash, document)
		VALUES ($1::uuid, $2, $3, $4)`

	_, err := s.pool.Exec(ctx, q, snap.ID.String(), snap.FetchedAt, snap.Hash, store.Compress(snap.Document))
	if err != nil {
		return fmt.Errorf("postgres store: save: %w", err)
	}
	return nil
}

// Latest implements [store.Store].
func (s *Store) Latest(ctx context.Context) (store.Snapshot, error) {
	const q = `
		SELECT id::text, fetched_at, hash, document
		FROM   snapshots
		ORDER  BY fetched_at DESC
		LIMIT  1`

	snap, err := scanFull(s.pool.QueryRow(ctx, q))
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("postgres store: latest: %w", err)
	}
	return snap, nil
}

// Get implements [store.Store].
func (s *Store) Get(ctx context.Context, id uuid.UUID) (store.Snapshot, error) {
	const q = `
		SELECT id::text, fetched_at, hash, document
		FROM   snapshots
		WHERE  id = $1::uuid`

	snap, err := scanFull(s.pool.QueryRow(ctx, q, id.String()))
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("postgres store: get %s: %w", id, err)
	}
	return snap, nil
}

// List implements [store.Store].
func (s *Store) List(ctx context.Context, limit int) ([]store.Snapshot, error) {
	q := `
		SELECT id::text, fetched_at, hash
		FROM   snapshots
		ORDER  BY fetched_at DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres store: list: %w", err)
	}
	snaps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Snapshot, error) {
		var (
			snap store.Snapshot
			id   string
		)
		if err := row.Scan(&id, &snap.FetchedAt, &snap.Hash); err != nil {
			return store.Snapshot{}, err
		}
		return withID(snap, id)
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: list: %w", err)
	}
	if snaps == nil {
		snaps = []store.Snapshot{}
	}
	return snaps, nil
}

// Prune implements [store.Store].
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	const q = `
		DELETE FROM snapshots
		WHERE id NOT IN (
		    SELECT id FROM snapshots ORDER BY fetched_at DESC LIMIT $1
		)`

	tag, err := s.pool.Exec(ctx, q, keep)
	if err != nil {
		return 0, fmt.Errorf("postgres store: prune: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements [store.Store].
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanFull(row pgx.Row) (store.Snapshot, error) {
	var (
		snap store.Snapshot
		id   string
		blob []byte
	)
	if err := row.Scan(&id, &snap.FetchedAt, &snap.Hash, &blob); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Snapshot{}, store.ErrNotFound
		}
		return store.Snapshot{}, err
	}
	doc, err := store.Decompress(blob)
	if err != nil {
		return store.Snapshot{}, err
	}
	snap.Document = doc
	return withID(snap, id)
}

func withID(snap store.Snapshot, id string) (store.Snapshot, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("parse id: %w", err)
	}
	snap.ID = parsed
	snap.FetchedAt = snap.FetchedAt.In(time.UTC)
	return snap, nil
}
