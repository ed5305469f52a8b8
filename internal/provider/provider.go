// Package provider builds the resolution [worldstate.Context] from the
// public export manifests and the static data files, and fetches the raw
// world-state document from its upstream URLs.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/MrWong99/worldstate/internal/observe"
	"github.com/MrWong99/worldstate/pkg/worldstate"
)

var _ worldstate.ContextProvider = (*Provider)(nil)

// Options configures a [Provider].
type Options struct {
	// IndexURL serves the lzma-compressed export index.
	IndexURL string

	// ManifestBaseURL is the prefix every versioned manifest name is
	// appended to.
	ManifestBaseURL string

	// CacheDir holds the manifest cache.
	CacheDir string

	Dirs Dirs

	// MaxAge is how long a built Context is reused before the next call to
	// [Provider.Context] rebuilds it. Zero means one hour.
	MaxAge time.Duration

	// Client performs all HTTP requests. Default: a client with a 30s
	// timeout.
	Client *http.Client

	// Metrics receives fetch and cache metrics. Default: [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// Now overrides the clock. Default: [time.Now].
	Now func() time.Time
}

// Provider is the production [worldstate.ContextProvider]. It keeps the last
// Context in memory and coalesces concurrent rebuilds. It is safe for
// concurrent use.
type Provider struct {
	opts  Options
	cache *ManifestCache
	group singleflight.Group

	mu      sync.RWMutex
	current *worldstate.Context
	builtAt time.Time
}

// New validates opts and prepares the manifest cache. No network access
// happens until the first call to [Provider.Context].
func New(opts Options) (*Provider, error) {
	if opts.IndexURL == "" || opts.ManifestBaseURL == "" {
		return nil, fmt.Errorf("provider: index and manifest URLs are required")
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = time.Hour
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Metrics == nil {
		opts.Metrics = observe.DefaultMetrics()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cache, err := NewManifestCache(opts.CacheDir, opts.Metrics)
	if err != nil {
		return nil, err
	}
	return &Provider{opts: opts, cache: cache}, nil
}

// Context implements [worldstate.ContextProvider]. It returns the cached
// Context while it is younger than MaxAge and builds a new one otherwise.
func (p *Provider) Context(ctx context.Context) (*worldstate.Context, error) {
	p.mu.RLock()
	cur, builtAt := p.current, p.builtAt
	p.mu.RUnlock()
	if cur != nil && p.opts.Now().Sub(builtAt) < p.opts.MaxAge {
		return cur, nil
	}
	return p.Refresh(ctx)
}

// Refresh builds a new Context unconditionally. Concurrent callers share one
// build.
func (p *Provider) Refresh(ctx context.Context) (*worldstate.Context, error) {
	v, err, _ := p.group.Do("context", func() (_ any, err error) {
		ctx, span := observe.StartSpan(ctx, observe.SpanContextBuild)
		defer func() { observe.Finish(span, err) }()

		start := p.opts.Now()
		c, err := p.build(ctx)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.current, p.builtAt = c, p.opts.Now()
		p.mu.Unlock()
		observe.Logger(ctx).Info("provider: context built",
			"nodes", len(c.CustomMaps.Nodes),
			"relics", len(c.CustomMaps.Relics),
			"language_items", len(c.Data.LanguageItems),
			"duration", p.opts.Now().Sub(start),
		)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*worldstate.Context), nil
}

// BuiltAt reports when the current Context was built, or the zero time.
func (p *Provider) BuiltAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.builtAt
}

func (p *Provider) build(ctx context.Context) (*worldstate.Context, error) {
	idx, err := FetchExportIndex(ctx, p.opts.Client, p.opts.Metrics, p.opts.IndexURL)
	if err != nil {
		return nil, err
	}

	var (
		exports worldstate.Exports
		crew    []worldstate.RegionEntry
		data    worldstate.WorldstateData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		exports.Regions, err = loadManifest(gctx, p, idx[worldstate.ManifestRegions], worldstate.ParseRegions)
		return err
	})
	g.Go(func() (err error) {
		exports.RelicArcane, err = loadManifest(gctx, p, idx[worldstate.ManifestRelicArcane], worldstate.ParseRelicArcane)
		return err
	})
	g.Go(func() (err error) {
		exports.Customs, err = loadManifest(gctx, p, idx[worldstate.ManifestCustoms], worldstate.ParseCustoms)
		return err
	})
	g.Go(func() (err error) {
		crew, err = LoadCrewBattleNodes(p.opts.Dirs.Assets)
		return err
	})
	g.Go(func() (err error) {
		data, err = LoadStatic(p.opts.Dirs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	exports.Regions = append(exports.Regions, crew...)
	return worldstate.NewContext(exports, data), nil
}

// loadManifest reads one versioned manifest through the cache and parses it.
func loadManifest[T any](ctx context.Context, p *Provider, file string, parse func([]byte) (T, error)) (T, error) {
	var zero T
	url := strings.TrimSuffix(p.opts.ManifestBaseURL, "/") + "/" + file
	data, err := p.cache.Load(ctx, file, func(ctx context.Context) ([]byte, error) {
		return get(ctx, p.opts.Client, p.opts.Metrics, "manifest", url)
	})
	if err != nil {
		return zero, fmt.Errorf("provider: manifest %s: %w", worldstate.ManifestPrefix(file), err)
	}
	v, err := parse(data)
	if err != nil {
		return zero, fmt.Errorf("provider: manifest %s: %w", worldstate.ManifestPrefix(file), err)
	}
	return v, nil
}
