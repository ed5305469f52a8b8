// Package api serves the resolved world state over HTTP.
//
// Routes:
//
//	GET /v1/worldstate                  latest resolved document
//	GET /v1/worldstate/{section}        one section, optionally ?filter=<expr>
//	GET /v1/snapshots                   stored snapshot history (?limit=N)
//	GET /v1/snapshots/{id}              one stored snapshot with its document
//	GET /v1/duviri                      Duviri mood cycle (?at=RFC3339)
//	GET /v1/live                        websocket feed of new snapshots
//
// The health endpoints and /metrics are mounted on the same mux when their
// handlers are configured.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/worldstate/internal/health"
	"github.com/MrWong99/worldstate/internal/observe"
	"github.com/MrWong99/worldstate/internal/poller"
	"github.com/MrWong99/worldstate/internal/store"
	"github.com/MrWong99/worldstate/pkg/worldstate"
)

const (
	defaultListLimit = 20
	maxListLimit     = 500
)

// State exposes the latest resolved document and its change feed.
// [poller.Poller] implements it.
type State interface {
	Latest() (*worldstate.WorldState, store.Snapshot, bool)
	Subscribe() (<-chan poller.Event, func())
}

// Config holds the server's dependencies. State and Store are required.
type Config struct {
	State   State
	Store   store.Store
	Metrics *observe.Metrics

	// Health, when set, serves /healthz and /readyz.
	Health *health.Handler

	// MetricsHandler, when set, serves /metrics.
	MetricsHandler http.Handler

	// Now overrides the clock. Default: [time.Now].
	Now func() time.Time
}

// Server is the HTTP API.
type Server struct {
	cfg     Config
	handler http.Handler
}

// New builds the route table.
func New(cfg Config) *Server {
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Server{cfg: cfg}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/worldstate", s.handleWorldstate)
	mux.HandleFunc("GET /v1/worldstate/{section}", s.handleSection)
	mux.HandleFunc("GET /v1/snapshots", s.handleSnapshots)
	mux.HandleFunc("GET /v1/snapshots/{id}", s.handleSnapshot)
	mux.HandleFunc("GET /v1/duviri", s.handleDuviri)
	mux.HandleFunc("GET /v1/live", s.handleLive)
	if cfg.Health != nil {
		cfg.Health.Register(mux)
	}
	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}
	s.handler = observe.Middleware(cfg.Metrics)(mux)
	return s
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ── handlers ──────────────────────────────────────────────────────────────────

// latest writes a 503 and returns false when no document has been resolved
// yet.
func (s *Server) latest(w http.ResponseWriter) (*worldstate.WorldState, store.Snapshot, bool) {
	state, snap, ok := s.cfg.State.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no world state available yet")
		return nil, store.Snapshot{}, false
	}
	if snap.ID != uuid.Nil {
		w.Header().Set("X-Snapshot-ID", snap.ID.String())
		w.Header().Set("Last-Modified", snap.FetchedAt.UTC().Format(http.TimeFormat))
	}
	return state, snap, true
}

func (s *Server) handleWorldstate(w http.ResponseWriter, _ *http.Request) {
	state, _, ok := s.latest(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("section")
	state, _, ok := s.latest(w)
	if !ok {
		return
	}
	section, ok := state.Section(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown section "+strconv.Quote(name))
		return
	}

	expression := r.URL.Query().Get("filter")
	if expression == "" {
		writeJSON(w, http.StatusOK, section)
		return
	}
	f, err := CompileFilter(expression)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := f.Apply(section, s.cfg.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}
	list, err := s.cfg.Store.List(r.Context(), limit)
	if err != nil {
		slog.Error("api: list snapshots", "err", err)
		writeError(w, http.StatusInternalServerError, "list snapshots failed")
		return
	}
	if list == nil {
		list = []store.Snapshot{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot id")
		return
	}
	snap, err := s.cfg.Store.Get(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "snapshot not found")
		return
	case err != nil:
		slog.Error("api: get snapshot", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "get snapshot failed")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDuviri(w http.ResponseWriter, r *http.Request) {
	at := s.cfg.Now()
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "at must be an RFC 3339 timestamp")
			return
		}
		at = t
	}
	writeJSON(w, http.StatusOK, worldstate.DuviriAt(at))
}

// ── helpers ───────────────────────────────────────────────────────────────────

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("api: encode response", "err", err)
	}
}
