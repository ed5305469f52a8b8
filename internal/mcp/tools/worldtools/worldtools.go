// Package worldtools provides the MCP tools that answer questions about the
// current world state.
//
// Five tools are exported via [NewTools]:
//   - query_worldstate: reads any value of the resolved document by gjson path.
//   - list_fissures: lists active void fissures, optionally filtered.
//   - find_node: fuzzy star chart node search (Jaro-Winkler).
//   - resolve_path: resolves an internal path with a named strategy.
//   - duviri_cycle: reports the Duviri mood at a point in time.
//
// All handlers are safe for concurrent use.
package worldtools

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
	"github.com/tidwall/gjson"

	"github.com/MrWong99/worldstate/internal/mcp/tools"
	"github.com/MrWong99/worldstate/internal/store"
	"github.com/MrWong99/worldstate/pkg/worldstate"
)

// errNoState is returned by state-backed tools before the first poll.
var errNoState = errors.New("worldtools: no world state available yet")

// State exposes the latest resolved document.
type State interface {
	Latest() (*worldstate.WorldState, store.Snapshot, bool)
}

// Deps holds the tools' data sources.
type Deps struct {
	State    State
	Provider worldstate.ContextProvider

	// Now overrides the clock for duviri_cycle. Default: [time.Now].
	Now func() time.Time
}

// ─────────────────────────────────────────────────────────────────────────────
// query_worldstate
// ─────────────────────────────────────────────────────────────────────────────

type queryArgs struct {
	// Path is a gjson path into the resolved document, e.g.
	// "sorties.0.variants.#.missionType".
	Path string `json:"path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// list_fissures
// ─────────────────────────────────────────────────────────────────────────────

type listFissuresArgs struct {
	// Tier restricts results to one relic tier (case-insensitive).
	Tier string `json:"tier,omitempty"`

	// SteelPath, when set, keeps only steel path (true) or normal (false)
	// fissures.
	SteelPath *bool `json:"steel_path,omitempty"`
}

type fissureResult struct {
	ID          string    `json:"id"`
	Node        string    `json:"node"`
	Planet      string    `json:"planet,omitempty"`
	MissionType string    `json:"missionType,omitempty"`
	Tier        string    `json:"tier"`
	IsSteelPath bool      `json:"isSteelPath"`
	Expiry      time.Time `json:"expiry"`
}

// ─────────────────────────────────────────────────────────────────────────────
// find_node
// ─────────────────────────────────────────────────────────────────────────────

type findNodeArgs struct {
	Query string `json:"query"`

	// Limit caps the number of matches. Defaults to defaultNodeLimit.
	Limit int `json:"limit,omitempty"`
}

const (
	defaultNodeLimit = 5
	maxNodeLimit     = 25
)

type nodeMatch struct {
	ID    string           `json:"id"`
	Score float64          `json:"score"`
	Node  *worldstate.Node `json:"node"`
}

// ─────────────────────────────────────────────────────────────────────────────
// resolve_path
// ─────────────────────────────────────────────────────────────────────────────

type resolvePathArgs struct {
	Strategy string `json:"strategy"`
	Path     string `json:"path"`
}

type resolvePathResult struct {
	Strategy string `json:"strategy"`
	Path     string `json:"path"`
	Value    any    `json:"value"`
}

// ─────────────────────────────────────────────────────────────────────────────
// duviri_cycle
// ─────────────────────────────────────────────────────────────────────────────

type duviriArgs struct {
	// At is an RFC 3339 timestamp. Empty means now.
	At string `json:"at,omitempty"`
}

type duviriResult struct {
	worldstate.DuviriCycle
	Next worldstate.DuviriMood `json:"next"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Handler constructors
// ─────────────────────────────────────────────────────────────────────────────

func decodeArgs(args string, v any) error {
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	if err := json.Unmarshal([]byte(args), v); err != nil {
		return fmt.Errorf("worldtools: failed to parse arguments: %w", err)
	}
	return nil
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("worldtools: failed to encode result: %w", err)
	}
	return string(b), nil
}

func (d Deps) latest() (*worldstate.WorldState, error) {
	ws, _, ok := d.State.Latest()
	if !ok {
		return nil, errNoState
	}
	return ws, nil
}

func (d Deps) queryHandler(_ context.Context, args string) (string, error) {
	var a queryArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	ws, err := d.latest()
	if err != nil {
		return "", err
	}
	doc, err := json.Marshal(ws)
	if err != nil {
		return "", fmt.Errorf("worldtools: encode state: %w", err)
	}
	if a.Path == "" {
		return string(doc), nil
	}
	res := gjson.GetBytes(doc, a.Path)
	if !res.Exists() {
		return "", fmt.Errorf("worldtools: no value at path %q", a.Path)
	}
	return res.Raw, nil
}

func (d Deps) listFissuresHandler(_ context.Context, args string) (string, error) {
	var a listFissuresArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	ws, err := d.latest()
	if err != nil {
		return "", err
	}

	out := make([]fissureResult, 0, len(ws.Fissures))
	for _, f := range ws.Fissures {
		if a.Tier != "" && !strings.EqualFold(string(f.Tier), a.Tier) {
			continue
		}
		if a.SteelPath != nil && f.IsSteelPath != *a.SteelPath {
			continue
		}
		r := fissureResult{
			ID:          f.ID,
			Tier:        string(f.Tier),
			IsSteelPath: f.IsSteelPath,
			Expiry:      f.Expiry,
		}
		if f.Node != nil {
			r.Node, r.Planet, r.MissionType = f.Node.Name, f.Node.Planet, f.Node.MissionType.String()
		}
		out = append(out, r)
	}
	return encode(out)
}

func (d Deps) findNodeHandler(ctx context.Context, args string) (string, error) {
	var a findNodeArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	query := strings.ToLower(strings.TrimSpace(a.Query))
	if query == "" {
		return "", fmt.Errorf("worldtools: query must not be empty")
	}
	limit := a.Limit
	if limit <= 0 {
		limit = defaultNodeLimit
	}
	limit = min(limit, maxNodeLimit)

	wctx, err := d.Provider.Context(ctx)
	if err != nil {
		return "", fmt.Errorf("worldtools: %w", err)
	}
	matches := make([]nodeMatch, 0, len(wctx.CustomMaps.Nodes))
	for id, n := range wctx.CustomMaps.Nodes {
		score := max(
			matchr.JaroWinkler(query, strings.ToLower(n.Name), false),
			matchr.JaroWinkler(query, strings.ToLower(id), false),
		)
		matches = append(matches, nodeMatch{ID: id, Score: score, Node: n})
	}
	slices.SortFunc(matches, func(x, y nodeMatch) int {
		if c := cmp.Compare(y.Score, x.Score); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return encode(matches)
}

func (d Deps) resolvePathHandler(ctx context.Context, args string) (string, error) {
	var a resolvePathArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	if a.Strategy == "" || a.Path == "" {
		return "", fmt.Errorf("worldtools: strategy and path are required")
	}
	wctx, err := d.Provider.Context(ctx)
	if err != nil {
		return "", fmt.Errorf("worldtools: %w", err)
	}
	v, err := worldstate.ResolveWith(a.Strategy, a.Path, wctx)
	if err != nil {
		return "", fmt.Errorf("%w; available strategies: %s", err, strings.Join(worldstate.StrategyNames(), ", "))
	}
	return encode(resolvePathResult{Strategy: a.Strategy, Path: a.Path, Value: v})
}

func (d Deps) duviriHandler(_ context.Context, args string) (string, error) {
	var a duviriArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	at := time.Now()
	if d.Now != nil {
		at = d.Now()
	}
	if a.At != "" {
		t, err := time.Parse(time.RFC3339, a.At)
		if err != nil {
			return "", fmt.Errorf("worldtools: at must be RFC 3339: %w", err)
		}
		at = t
	}
	c := worldstate.DuviriAt(at)
	return encode(duviriResult{DuviriCycle: c, Next: c.State.Next()})
}

// ─────────────────────────────────────────────────────────────────────────────
// NewTools
// ─────────────────────────────────────────────────────────────────────────────

// NewTools returns the world-state tools backed by d. State and Provider
// must be non-nil.
func NewTools(d Deps) []tools.Tool {
	return []tools.Tool{
		{
			Definition: tools.Definition{
				Name:        "query_worldstate",
				Description: "Read a value from the current resolved world state by gjson path, " +
					"for example 'sorties.0.boss' or 'fissures.#(isSteelPath==true)#.node.name'. " +
					"An empty path returns the whole document.",
				Parameters: tools.Object(map[string]any{
					"path": tools.Prop("string", "gjson path into the resolved document."),
				}),
			},
			Handler: d.queryHandler,
		},
		{
			Definition: tools.Definition{
				Name:        "list_fissures",
				Description: "List the active void fissures with node, mission type, relic tier and expiry.",
				Parameters: tools.Object(map[string]any{
					"tier":       tools.Prop("string", "Relic tier to keep: Lith, Meso, Neo, Axi, Requiem or Omnia."),
					"steel_path": tools.Prop("boolean", "Keep only steel path (true) or normal (false) fissures."),
				}),
			},
			Handler: d.listFissuresHandler,
		},
		{
			Definition: tools.Definition{
				Name:        "find_node",
				Description: "Fuzzy search the star chart for nodes by name or node id, best match first.",
				Parameters: tools.Object(map[string]any{
					"query": tools.Prop("string", "Node name or id, e.g. 'hydron' or 'SolNode27'."),
					"limit": tools.Prop("integer", "Maximum number of matches (default 5, max 25)."),
				}, "query"),
			},
			Handler: d.findNodeHandler,
		},
		{
			Definition: tools.Definition{
				Name:        "resolve_path",
				Description: "Resolve an internal game path to its display value with a named strategy.",
				Parameters: tools.Object(map[string]any{
					"strategy": map[string]any{
						"type":        "string",
						"description": "Resolution strategy.",
						"enum":        worldstate.StrategyNames(),
					},
					"path": tools.Prop("string", "Internal path, e.g. '/Lotus/StoreItems/Types/Items/MiscItems/OrokinCell'."),
				}, "strategy", "path"),
			},
			Handler: d.resolvePathHandler,
		},
		{
			Definition: tools.Definition{
				Name:        "duviri_cycle",
				Description: "Report the Duviri spiral mood at a point in time, with its start, end and the next mood.",
				Parameters: tools.Object(map[string]any{
					"at": tools.Prop("string", "RFC 3339 timestamp; defaults to now."),
				}),
			},
			Handler: d.duviriHandler,
		},
	}
}
