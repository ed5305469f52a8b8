package provider

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/MrWong99/worldstate/internal/observe"
	"github.com/MrWong99/worldstate/internal/resilience"
)

// Document is one raw world-state document as fetched.
type Document struct {
	Body      []byte
	Source    string // URL the document came from
	FetchedAt time.Time
}

// Fetcher downloads the raw world-state document. The primary URL is tried
// first and the mirrors in order after it; each URL has its own circuit
// breaker.
type Fetcher struct {
	client  *http.Client
	metrics *observe.Metrics
	cbCfg   resilience.CircuitBreakerConfig

	mu      sync.Mutex // serialises SetMirrors
	sources *resilience.FallbackGroup[string]
}

// NewFetcher creates a Fetcher for primary with the given mirrors. A nil
// client or metrics falls back to the defaults used by [New].
func NewFetcher(client *http.Client, m *observe.Metrics, primary string, mirrors ...string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if m == nil {
		m = observe.DefaultMetrics()
	}
	f := &Fetcher{
		client:  client,
		metrics: m,
		cbCfg: resilience.CircuitBreakerConfig{
			MaxFailures:  3,
			ResetTimeout: 2 * time.Minute,
			OnStateChange: func(name string, _, to resilience.State) {
				m.RecordBreakerTransition(context.Background(), name, to.String())
			},
		},
	}
	f.sources = resilience.NewFallbackGroup(primary, primary, resilience.FallbackConfig{CircuitBreaker: f.cbCfg})
	f.SetMirrors(mirrors)
	return f
}

// SetMirrors replaces the fallback URLs. The primary is kept.
func (f *Fetcher) SetMirrors(mirrors []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources.Truncate(1)
	for _, m := range mirrors {
		f.sources.AddFallback(m, m)
	}
}

// Sources returns the URLs in the order they are tried.
func (f *Fetcher) Sources() []string { return f.sources.Names() }

// Fetch returns the first document any source serves successfully.
func (f *Fetcher) Fetch(ctx context.Context) (Document, error) {
	doc, err := resilience.ExecuteWithResult(ctx, f.sources, func(ctx context.Context, url string) (Document, error) {
		body, err := get(ctx, f.client, f.metrics, "worldstate", url)
		if err != nil {
			return Document{}, err
		}
		return Document{Body: body, Source: url, FetchedAt: time.Now().UTC()}, nil
	})
	if err != nil {
		return Document{}, fmt.Errorf("provider: fetch worldstate: %w", err)
	}
	return doc, nil
}
