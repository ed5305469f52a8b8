// Package sqlite provides a [store.Store] on an embedded SQLite database
// (modernc.org/sqlite, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/MrWong99/worldstate/internal/store"
)

var _ store.Store = (*Store)(nil)

const ddl = `
CREATE TABLE IF NOT EXISTS snapshots (
    id          TEXT     PRIMARY KEY,
    fetched_at  INTEGER  NOT NULL,
    hash        TEXT     NOT NULL,
    document    BLOB     NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_fetched_at ON snapshots (fetched_at);
`

// Store is a snapshot history in a SQLite file. fetched_at is kept as Unix
// nanoseconds so ordering is exact.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn and applies the schema.
// dsn is a file path or a "file:" URI understood by modernc.org/sqlite.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("sqlite store: empty dsn")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: ping: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite store: pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save implements [store.Store].
func (s *Store) Save(ctx context.Context, snap store.Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, fetched_at, hash, document) VALUES (?, ?, ?, ?)`,
		snap.ID.String(), snap.FetchedAt.UnixNano(), snap.Hash, store.Compress(snap.Document),
	)
	if err != nil {
		return fmt.Errorf("sqlite store: save: %w", err)
	}
	return nil
}

// Latest implements [store.Store].
func (s *Store) Latest(ctx context.Context) (store.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, fetched_at, hash, document FROM snapshots ORDER BY fetched_at DESC LIMIT 1`)
	snap, err := scanFull(row)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("sqlite store: latest: %w", err)
	}
	return snap, nil
}

// Get implements [store.Store].
func (s *Store) Get(ctx context.Context, id uuid.UUID) (store.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, fetched_at, hash, document FROM snapshots WHERE id = ?`, id.String())
	snap, err := scanFull(row)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("sqlite store: get %s: %w", id, err)
	}
	return snap, nil
}

// List implements [store.Store].
func (s *Store) List(ctx context.Context, limit int) ([]store.Snapshot, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fetched_at, hash FROM snapshots ORDER BY fetched_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: list: %w", err)
	}
	defer rows.Close()

	snaps := []store.Snapshot{}
	for rows.Next() {
		var (
			id     string
			nanos  int64
			snap   store.Snapshot
			parsed uuid.UUID
		)
		if err := rows.Scan(&id, &nanos, &snap.Hash); err != nil {
			return nil, fmt.Errorf("sqlite store: list: %w", err)
		}
		if parsed, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("sqlite store: list: parse id: %w", err)
		}
		snap.ID = parsed
		snap.FetchedAt = time.Unix(0, nanos).UTC()
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite store: list: %w", err)
	}
	return snaps, nil
}

// Prune implements [store.Store].
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE id NOT IN (SELECT id FROM snapshots ORDER BY fetched_at DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("sqlite store: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite store: prune: %w", err)
	}
	return int(n), nil
}

// Ping reports whether the database is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements [store.Store].
func (s *Store) Close() error {
	return s.db.Close()
}

func scanFull(row *sql.Row) (store.Snapshot, error) {
	var (
		id    string
		nanos int64
		blob  []byte
		snap  store.Snapshot
	)
	if err := row.Scan(&id, &nanos, &snap.Hash, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Snapshot{}, store.ErrNotFound
		}
		return store.Snapshot{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("parse id: %w", err)
	}
	doc, err := store.Decompress(blob)
	if err != nil {
		return store.Snapshot{}, err
	}
	snap.ID = parsed
	snap.FetchedAt = time.Unix(0, nanos).UTC()
	snap.Document = doc
	return snap, nil
}
