// Package health serves the liveness and readiness probes of the
// world-state service.
//
// /healthz answers 200 while the process can serve HTTP. /readyz runs every
// registered [Checker] concurrently and answers 503 when a required check
// fails. Optional checks, such as the context provider, only degrade the
// reported status:
//
//	{"status":"degraded","checks":{"snapshot":{"status":"ok","duration":"4µs"},
//	 "context":{"status":"fail","optional":true,"error":"health: never updated"}}}
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// checkTimeout bounds a single check.
const checkTimeout = 5 * time.Second

// Overall and per-check status values.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusFail     = "fail"
)

// Checker is a named probe. Check returns nil when the dependency is
// healthy. A failing Optional checker degrades the report without failing
// readiness.
type Checker struct {
	Name     string
	Check    func(ctx context.Context) error
	Optional bool
}

// Report is the JSON body of both endpoints.
type Report struct {
	Status string                 `json:"status"`
	Checks map[string]CheckReport `json:"checks,omitempty"`
}

// CheckReport is the outcome of one checker.
type CheckReport struct {
	Status   string `json:"status"`
	Optional bool   `json:"optional,omitempty"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// Handler serves the probes. It is safe for concurrent use.
type Handler struct {
	mu       sync.RWMutex
	checkers []Checker
}

// New returns a Handler running checkers on every readiness request.
func New(checkers ...Checker) *Handler {
	return &Handler{checkers: append([]Checker(nil), checkers...)}
}

// Add registers more checkers.
func (h *Handler) Add(checkers ...Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, checkers...)
}

// Healthz always answers 200.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Report{Status: StatusOK})
}

// Readyz answers 200 unless a required checker fails.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	rep := h.Run(r.Context())
	status := http.StatusOK
	if rep.Status == StatusFail {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, rep)
}

// Run evaluates every checker concurrently, each under its own timeout
// derived from ctx.
func (h *Handler) Run(ctx context.Context) Report {
	h.mu.RLock()
	checkers := append([]Checker(nil), h.checkers...)
	h.mu.RUnlock()

	rep := Report{Status: StatusOK, Checks: make(map[string]CheckReport, len(checkers))}
	var mu sync.Mutex
	var g errgroup.Group
	for _, c := range checkers {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			start := time.Now()
			err := c.Check(cctx)

			cr := CheckReport{Status: StatusOK, Optional: c.Optional, Duration: time.Since(start).String()}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				cr.Status, cr.Error = StatusFail, err.Error()
				switch {
				case !c.Optional:
					rep.Status = StatusFail
				case rep.Status == StatusOK:
					rep.Status = StatusDegraded
				}
			}
			rep.Checks[c.Name] = cr
			return nil
		})
	}
	_ = g.Wait()
	return rep
}

// Register adds the probe routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
