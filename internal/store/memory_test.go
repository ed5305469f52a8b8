package store_test

import (
	"testing"

	"github.com/MrWong99/worldstate/internal/store"
	"github.com/MrWong99/worldstate/internal/store/storetest"
)

func TestMemory(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(t *testing.T) store.Store {
		return store.NewMemory()
	})
}

func TestNewSnapshot(t *testing.T) {
	t.Parallel()
	a := storetest.Snapshots(t, 2)
	if a[0].ID == a[1].ID {
		t.Fatal("snapshot ids must be unique")
	}
	if a[0].Hash == a[1].Hash {
		t.Error("different raw documents produced the same hash")
	}
	if got, want := store.Hash([]byte(`{"Time":0}`)), a[0].Hash; got != want {
		t.Errorf("Hash = %s, want %s", got, want)
	}
	if a[0].FetchedAt.Location().String() != "UTC" {
		t.Errorf("FetchedAt not normalised to UTC: %v", a[0].FetchedAt.Location())
	}
}

func TestCompressRoundTrip(t *testing.T) {
	t.Parallel()
	doc := []byte(`{"fissures":[{"node":"E Prime"}],"alerts":[]}`)
	got, err := store.Decompress(store.Compress(doc))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(got) != string(doc) {
		t.Errorf("round trip = %s, want %s", got, doc)
	}
	if _, err := store.Decompress([]byte("not zstd")); err == nil {
		t.Error("Decompress of garbage succeeded")
	}
}
