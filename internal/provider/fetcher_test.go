package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrWong99/worldstate/internal/resilience"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()
	down := serve(t, http.StatusBadGateway, "")
	mirror := serve(t, http.StatusOK, `{"WorldSeed":"x"}`)

	f := NewFetcher(http.DefaultClient, testMetrics(t), down.URL, mirror.URL)
	doc, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if doc.Source != mirror.URL {
		t.Errorf("Source = %q, want mirror", doc.Source)
	}
	if string(doc.Body) != `{"WorldSeed":"x"}` {
		t.Errorf("Body = %s", doc.Body)
	}
	if doc.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestFetcher_AllFail(t *testing.T) {
	t.Parallel()
	down := serve(t, http.StatusServiceUnavailable, "")
	f := NewFetcher(http.DefaultClient, testMetrics(t), down.URL)
	_, err := f.Fetch(context.Background())
	if !errors.Is(err, resilience.ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestFetcher_SetMirrors(t *testing.T) {
	t.Parallel()
	f := NewFetcher(nil, testMetrics(t), "https://primary.example.com", "https://a.example.com")
	f.SetMirrors([]string{"https://b.example.com", "https://c.example.com"})
	want := []string{"https://primary.example.com", "https://b.example.com", "https://c.example.com"}
	if diff := cmp.Diff(want, f.Sources()); diff != "" {
		t.Errorf("Sources mismatch (-want +got):\n%s", diff)
	}
}
