package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var _ Store = (*Memory)(nil)

// Memory is a [Store] that keeps every snapshot in process memory. The zero
// value is ready to use.
type Memory struct {
	mu    sync.RWMutex
	snaps []Snapshot // ordered by FetchedAt, oldest first
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{} }

// Save implements [Store].
func (m *Memory) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, _ := slices.BinarySearchFunc(m.snaps, snap, func(a, b Snapshot) int {
		return a.FetchedAt.Compare(b.FetchedAt)
	})
	// Insert after any snapshot with an equal timestamp.
	for i < len(m.snaps) && m.snaps[i].FetchedAt.Equal(snap.FetchedAt) {
		i++
	}
	m.snaps = slices.Insert(m.snaps, i, snap)
	return nil
}

// Latest implements [Store].
func (m *Memory) Latest(_ context.Context) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.snaps) == 0 {
		return Snapshot{}, ErrNotFound
	}
	return m.snaps[len(m.snaps)-1], nil
}

// Get implements [Store].
func (m *Memory) Get(_ context.Context, id uuid.UUID) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.snaps {
		if s.ID == id {
			return s, nil
		}
	}
	return Snapshot{}, ErrNotFound
}

// List implements [Store].
func (m *Memory) List(_ context.Context, limit int) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.snaps)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Snapshot, 0, n)
	for i := len(m.snaps) - 1; i >= 0 && len(out) < n; i-- {
		s := m.snaps[i]
		s.Document = nil
		out = append(out, s)
	}
	return out, nil
}

// Prune implements [Store].
func (m *Memory) Prune(_ context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := len(m.snaps) - keep
	if drop <= 0 {
		return 0, nil
	}
	m.snaps = slices.Clone(m.snaps[drop:])
	return drop, nil
}

// Close implements [Store]. It is a no-op.
func (m *Memory) Close() error { return nil }
