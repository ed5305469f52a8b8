// Package storetest holds a behavioural test suite shared by every
// [store.Store] driver.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/MrWong99/worldstate/internal/store"
)

// base is the fetch time of the first generated snapshot. Whole seconds
// survive every driver's timestamp precision.
var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Snapshots returns n snapshots fetched one minute apart, oldest first.
func Snapshots(t *testing.T, n int) []store.Snapshot {
	t.Helper()
	out := make([]store.Snapshot, n)
	for i := range out {
		raw := fmt.Appendf(nil, `{"Time":%d}`, i)
		doc := fmt.Appendf(nil, `{"fissures":[],"n":%d}`, i)
		snap, err := store.NewSnapshot(raw, doc, base.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("NewSnapshot: %v", err)
		}
		out[i] = snap
	}
	return out
}

// Run exercises the [store.Store] contract against stores produced by
// newStore. Each subtest receives a fresh, empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("EmptyLatest", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Latest(context.Background())
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Latest on empty store: got %v, want ErrNotFound", err)
		}
	})

	t.Run("GetUnknown", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), uuid.New())
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Get unknown id: got %v, want ErrNotFound", err)
		}
	})

	t.Run("SaveLatestGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		snaps := Snapshots(t, 3)
		// Save out of order; Latest must still follow FetchedAt.
		for _, i := range []int{1, 2, 0} {
			if err := s.Save(ctx, snaps[i]); err != nil {
				t.Fatalf("Save(%d): %v", i, err)
			}
		}

		latest, err := s.Latest(ctx)
		if err != nil {
			t.Fatalf("Latest: %v", err)
		}
		if diff := cmp.Diff(snaps[2], latest); diff != "" {
			t.Errorf("Latest mismatch (-want +got):\n%s", diff)
		}

		got, err := s.Get(ctx, snaps[0].ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if diff := cmp.Diff(snaps[0], got); diff != "" {
			t.Errorf("Get mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("List", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		snaps := Snapshots(t, 4)
		for _, snap := range snaps {
			if err := s.Save(ctx, snap); err != nil {
				t.Fatalf("Save: %v", err)
			}
		}

		tests := []struct {
			name  string
			limit int
			want  []int
		}{
			{name: "all", limit: 0, want: []int{3, 2, 1, 0}},
			{name: "limited", limit: 2, want: []int{3, 2}},
			{name: "over", limit: 10, want: []int{3, 2, 1, 0}},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				got, err := s.List(ctx, tc.limit)
				if err != nil {
					t.Fatalf("List: %v", err)
				}
				want := make([]store.Snapshot, len(tc.want))
				for i, idx := range tc.want {
					want[i] = snaps[idx]
					want[i].Document = nil
				}
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("List(%d) mismatch (-want +got):\n%s", tc.limit, diff)
				}
			})
		}
	})

	t.Run("Prune", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		snaps := Snapshots(t, 5)
		for _, snap := range snaps {
			if err := s.Save(ctx, snap); err != nil {
				t.Fatalf("Save: %v", err)
			}
		}

		if n, err := s.Prune(ctx, 0); err != nil || n != 0 {
			t.Fatalf("Prune(0) = %d, %v; want 0, nil", n, err)
		}
		n, err := s.Prune(ctx, 2)
		if err != nil {
			t.Fatalf("Prune: %v", err)
		}
		if n != 3 {
			t.Errorf("Prune removed %d, want 3", n)
		}
		list, err := s.List(ctx, 0)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 2 || list[0].ID != snaps[4].ID || list[1].ID != snaps[3].ID {
			t.Errorf("after prune: got %d snapshots, want the 2 newest", len(list))
		}
		if _, err := s.Get(ctx, snaps[0].ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("pruned snapshot still readable: %v", err)
		}
	})
}
