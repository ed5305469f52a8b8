// Package poller periodically fetches the raw world-state document, resolves
// it, stores changed documents as snapshots, and broadcasts every new
// snapshot to subscribers.
//
// Consecutive documents are compared by the SHA-256 of their raw bytes; an
// unchanged document is neither resolved nor stored again. Each broadcast
// [Event] carries the alerts and fissures whose IDs were not present in the
// previous snapshot.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/worldstate/internal/observe"
	"github.com/MrWong99/worldstate/internal/provider"
	"github.com/MrWong99/worldstate/internal/store"
	"github.com/MrWong99/worldstate/pkg/worldstate"
)

// DefaultInterval is the poll interval used when [Config.Interval] is zero.
const DefaultInterval = 60 * time.Second

// subscriberBuffer is the channel capacity of every subscription. Events are
// dropped for subscribers whose buffer is full.
const subscriberBuffer = 8

// Source yields raw world-state documents. [provider.Fetcher] implements it.
type Source interface {
	Fetch(ctx context.Context) (provider.Document, error)
}

// Config holds the poller's dependencies.
type Config struct {
	Source   Source
	Provider worldstate.ContextProvider
	Store    store.Store

	// Driver labels the snapshots-stored metric.
	Driver string

	// Interval between polls. Default: [DefaultInterval].
	Interval time.Duration

	// Retain is the number of snapshots kept after every save. Zero keeps
	// every snapshot.
	Retain int

	// Metrics receives parse and store metrics. Default: [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// Event is broadcast once per stored snapshot.
type Event struct {
	Snapshot    store.Snapshot
	State       *worldstate.WorldState
	NewAlerts   []worldstate.Alert
	NewFissures []worldstate.Fissure
}

// Poller runs the fetch loop. All methods are safe for concurrent use.
type Poller struct {
	cfg Config

	// pollMu serialises Poll.
	pollMu sync.Mutex

	mu           sync.RWMutex
	interval     time.Duration
	lastHash     string
	latest       *worldstate.WorldState
	latestSnap   store.Snapshot
	lastUpdate   time.Time
	seenAlerts   map[string]struct{}
	seenFissures map[string]struct{}

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int

	reset chan struct{}
}

// New creates a Poller. Source, Provider and Store are required.
func New(cfg Config) (*Poller, error) {
	if cfg.Source == nil || cfg.Provider == nil || cfg.Store == nil {
		return nil, errors.New("poller: source, provider and store are required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	return &Poller{
		cfg:      cfg,
		interval: cfg.Interval,
		subs:     make(map[int]chan Event),
		reset:    make(chan struct{}, 1),
	}, nil
}

// Restore seeds the poller from the newest stored snapshot so that a restart
// neither re-stores an unchanged document nor re-announces alerts and
// fissures that were already seen. An empty store is not an error.
func (p *Poller) Restore(ctx context.Context) error {
	snap, err := p.cfg.Store.Latest(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("poller: restore: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastHash = snap.Hash
	p.latestSnap = snap
	p.seenAlerts = idSet(gjson.GetBytes(snap.Document, "alerts.#.id"))
	p.seenFissures = idSet(gjson.GetBytes(snap.Document, "fissures.#.id"))
	slog.Info("poller: restored from snapshot", "id", snap.ID, "fetched_at", snap.FetchedAt)
	return nil
}

func idSet(r gjson.Result) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, v := range r.Array() {
		ids[v.String()] = struct{}{}
	}
	return ids
}

// ─────────────────────────────────────────────────────────────────────────────
// Polling
// ─────────────────────────────────────────────────────────────────────────────

// Poll performs one fetch. It reports whether a new snapshot was stored; the
// returned Event is only meaningful when it was.
func (p *Poller) Poll(ctx context.Context) (ev Event, stored bool, err error) {
	ctx, span := observe.StartSpan(ctx, observe.SpanPoll)
	defer func() {
		span.SetAttributes(observe.AttrStored.Bool(stored))
		if stored {
			span.SetAttributes(observe.AttrSnapshotID.String(ev.Snapshot.ID.String()))
		}
		observe.Finish(span, err)
	}()

	p.pollMu.Lock()
	defer p.pollMu.Unlock()
	return p.poll(ctx)
}

func (p *Poller) poll(ctx context.Context) (Event, bool, error) {
	doc, err := p.cfg.Source.Fetch(ctx)
	if err != nil {
		return Event{}, false, err
	}
	trace.SpanFromContext(ctx).SetAttributes(observe.AttrSource.String(doc.Source))
	hash := store.Hash(doc.Body)

	p.mu.RLock()
	unchanged := hash == p.lastHash
	haveState := p.latest != nil
	p.mu.RUnlock()

	if unchanged && haveState {
		p.touch(doc.FetchedAt)
		observe.Logger(ctx).Debug("poller: document unchanged", "source", doc.Source)
		return Event{}, false, nil
	}

	start := time.Now()
	state, err := worldstate.FromProvider(ctx, doc.Body, p.cfg.Provider)
	p.cfg.Metrics.ParseDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		p.cfg.Metrics.RecordFetchError(ctx, doc.Source, errorKind(err))
		return Event{}, false, fmt.Errorf("poller: resolve: %w", err)
	}

	if unchanged {
		// Restored hash, first resolve since start: keep the stored snapshot.
		p.mu.Lock()
		p.latest = state
		p.lastUpdate = doc.FetchedAt
		p.mu.Unlock()
		return Event{}, false, nil
	}

	encoded, err := json.Marshal(state)
	if err != nil {
		return Event{}, false, fmt.Errorf("poller: encode: %w", err)
	}
	snap, err := store.NewSnapshot(doc.Body, encoded, doc.FetchedAt)
	if err != nil {
		return Event{}, false, fmt.Errorf("poller: snapshot: %w", err)
	}
	if err := p.cfg.Store.Save(ctx, snap); err != nil {
		return Event{}, false, fmt.Errorf("poller: save: %w", err)
	}
	p.cfg.Metrics.SnapshotsStored.Add(ctx, 1, observe.Attr("driver", p.cfg.Driver))
	if p.cfg.Retain > 0 {
		n, err := p.cfg.Store.Prune(ctx, p.cfg.Retain)
		if err != nil {
			slog.Warn("poller: prune failed", "err", err)
		} else if n > 0 {
			slog.Debug("poller: pruned snapshots", "removed", n)
		}
	}

	ev := Event{Snapshot: snap, State: state}
	p.mu.Lock()
	first := p.seenAlerts == nil
	ev.NewAlerts, p.seenAlerts = diffByID(state.Alerts, p.seenAlerts, func(a worldstate.Alert) string { return a.ID })
	ev.NewFissures, p.seenFissures = diffByID(state.Fissures, p.seenFissures, func(f worldstate.Fissure) string { return f.ID })
	if first {
		// Everything is new on the very first snapshot; announce nothing.
		ev.NewAlerts, ev.NewFissures = nil, nil
	}
	p.lastHash = hash
	p.latest = state
	p.latestSnap = snap
	p.lastUpdate = doc.FetchedAt
	p.mu.Unlock()

	observe.Logger(ctx).Info("poller: snapshot stored",
		"id", snap.ID,
		"source", doc.Source,
		"fissures", len(state.Fissures),
		"new_alerts", len(ev.NewAlerts),
		"new_fissures", len(ev.NewFissures),
	)
	p.broadcast(ev)
	return ev, true, nil
}

func (p *Poller) touch(at time.Time) {
	p.mu.Lock()
	p.lastUpdate = at
	p.mu.Unlock()
}

// errorKind classifies a resolve failure for the fetch-errors metric.
func errorKind(err error) string {
	var (
		pe *worldstate.ParseError
		pv *worldstate.ProviderError
	)
	switch {
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &pv):
		return "provider"
	case errors.Is(err, worldstate.ErrMissingVariant):
		return "missing_variant"
	}
	return "other"
}

// diffByID returns the items whose ID is not in seen, plus the ID set of
// items. Items that disappeared are forgotten.
func diffByID[T any](items []T, seen map[string]struct{}, id func(T) string) ([]T, map[string]struct{}) {
	var fresh []T
	next := make(map[string]struct{}, len(items))
	for _, it := range items {
		k := id(it)
		next[k] = struct{}{}
		if _, ok := seen[k]; !ok {
			fresh = append(fresh, it)
		}
	}
	return fresh, next
}

// Run polls immediately and then every interval until ctx is cancelled.
// Poll errors are logged and do not stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if _, _, err := p.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("poller: poll failed", "err", err)
		}

		timer := time.NewTimer(p.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-p.reset:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Interval returns the current poll interval.
func (p *Poller) Interval() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.interval
}

// SetInterval changes the poll interval. A running loop polls immediately
// and then continues on the new interval.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.interval = d
	p.mu.Unlock()
	select {
	case p.reset <- struct{}{}:
	default:
	}
	slog.Info("poller: interval changed", "interval", d)
}

// ─────────────────────────────────────────────────────────────────────────────
// Accessors
// ─────────────────────────────────────────────────────────────────────────────

// Latest returns the most recently resolved state and the snapshot it was
// stored as. ok is false until the first successful poll.
func (p *Poller) Latest() (state *worldstate.WorldState, snap store.Snapshot, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.latestSnap, p.latest != nil
}

// LastUpdate reports when the upstream document was last fetched
// successfully, changed or not.
func (p *Poller) LastUpdate() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastUpdate
}

// ─────────────────────────────────────────────────────────────────────────────
// Subscriptions
// ─────────────────────────────────────────────────────────────────────────────

// Subscribe registers a new listener. The returned cancel function removes
// the subscription and closes the channel; it may be called more than once.
func (p *Poller) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	p.subMu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = ch
	p.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.subMu.Lock()
			delete(p.subs, id)
			p.subMu.Unlock()
			close(ch)
		})
	}
}

// Subscribers reports the number of active subscriptions.
func (p *Poller) Subscribers() int {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	return len(p.subs)
}

func (p *Poller) broadcast(ev Event) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for id, ch := range p.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("poller: subscriber too slow, event dropped", "subscriber", id)
		}
	}
}
