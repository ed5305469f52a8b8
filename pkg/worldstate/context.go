package worldstate

import (
	"context"
	"regexp"
	"strings"
)

// Context aggregates every lookup table needed to resolve a snapshot.
//
// A Context is immutable after construction: no strategy writes to it, and
// it is safe to share one Context across goroutines.
type Context struct {
	Exports    Exports
	CustomMaps CustomMaps
	Data       WorldstateData
}

// NewContext derives the [CustomMaps] indices from exports and bundles them
// with data into a ready-to-use Context.
func NewContext(exports Exports, data WorldstateData) *Context {
	return &Context{
		Exports:    exports,
		CustomMaps: NewCustomMaps(exports),
		Data:       data,
	}
}

// ContextProvider produces a fully populated [Context]. Implementations may
// perform network and disk I/O and should honour ctx cancellation.
type ContextProvider interface {
	Context(ctx context.Context) (*Context, error)
}

// CustomMaps holds O(1) indices derived from [Exports].
type CustomMaps struct {
	// Nodes maps a node id such as "SolNode27" to its resolved node.
	Nodes map[string]*Node

	// Relics maps a relic unique name (with any /StoreItems segment
	// removed) to the relic entry.
	Relics map[string]*Relic

	// Customs maps a customs unique name under /Lotus/Upgrades/ to its
	// curated entry.
	Customs map[string]*CustomEntry
}

// NewCustomMaps builds the indices for exports.
func NewCustomMaps(exports Exports) CustomMaps {
	m := CustomMaps{
		Nodes:   make(map[string]*Node, len(exports.Regions)),
		Relics:  make(map[string]*Relic),
		Customs: make(map[string]*CustomEntry, len(exports.Customs)),
	}
	for _, r := range exports.Regions {
		n := r.Node()
		m.Nodes[r.UniqueName] = &n
	}
	for _, ra := range exports.RelicArcane {
		if ra.Relic == nil {
			continue
		}
		m.Relics[strings.ReplaceAll(ra.Relic.UniqueName, "/StoreItems", "")] = ra.Relic
	}
	for i := range exports.Customs {
		c := &exports.Customs[i]
		m.Customs[c.UniqueName] = c
	}
	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// Static world-state data
// ─────────────────────────────────────────────────────────────────────────────

// WorldstateData holds the translation and reward tables loaded from the
// static data files.
type WorldstateData struct {
	// LanguageItems maps an asset path to its localized value.
	LanguageItems map[string]LanguageItem

	Sortie SortieData

	Bounties BountyTables

	// Hubs maps relay node ids to relay names without the planet suffix.
	Hubs map[string]string

	// ArchonHuntRewards is the archon hunt reward pool.
	ArchonHuntRewards []DropItem

	// ArchonShards maps an archon crystal store item path to its name.
	ArchonShards map[string]string
}

// LanguageItem is one entry of the language table.
type LanguageItem struct {
	Value       string  `json:"value"`
	Description *string `json:"desc,omitempty"`
}

// DisplayInfo is a resolved title with an optional description.
type DisplayInfo struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// SortieData is the sortie translation table.
type SortieData struct {
	ModifierTypes        map[string]string `json:"modifierTypes"`
	ModifierDescriptions map[string]string `json:"modifierDescriptions"`
	Bosses               map[string]Boss   `json:"bosses"`
	Modifiers            []string          `json:"modifiers"`
}

// Boss is a sortie or archon hunt boss.
type Boss struct {
	Name    string            `json:"name"`
	Faction SortieBossFaction `json:"faction"`
}

// DropItem is one row of a drop table.
type DropItem struct {
	ItemName string  `json:"itemName"`
	Rarity   string  `json:"rarity"`
	Chance   float64 `json:"chance"`
}

// Bounty is one level band of a bounty reward table. Rewards is keyed by
// rotation letter (A, B, C).
type Bounty struct {
	ID          string                `json:"_id"`
	BountyLevel string                `json:"bountyLevel"`
	Rewards     map[string][]DropItem `json:"rewards"`
}

// BountyTables holds the per-location bounty reward tables and the sortie
// reward pool from the drop data.
type BountyTables struct {
	Cetus         []Bounty   `json:"cetusBountyRewards"`
	Solaris       []Bounty   `json:"solarisBountyRewards"`
	Deimos        []Bounty   `json:"deimosRewards"`
	Zariman       []Bounty   `json:"zarimanRewards"`
	EntratiLab    []Bounty   `json:"entratiLabRewards"`
	Hex           []Bounty   `json:"hexRewards"`
	SortieRewards []DropItem `json:"sortieRewards"`
}

// SolNodeEntry is one value of the solNodes table.
type SolNodeEntry struct {
	Value string `json:"value"`
}

var hubSuffix = regexp.MustCompile(`(.*) \(.*\)`)

// BuildHubs derives the relay name table from the solNodes table: only keys
// containing "HUB" are kept and a trailing parenthetical is stripped from
// the value, so "Larunda Relay (Mercury)" becomes "Larunda Relay".
func BuildHubs(solNodes map[string]SolNodeEntry) map[string]string {
	hubs := make(map[string]string)
	for key, entry := range solNodes {
		if !strings.Contains(key, "HUB") {
			continue
		}
		name := entry.Value
		if m := hubSuffix.FindStringSubmatch(name); m != nil {
			name = m[1]
		}
		hubs[key] = name
	}
	return hubs
}

// lookupLanguage returns the entry for path, retrying with the lowercased
// path. A nil ctx never matches.
func (c *Context) lookupLanguage(path string) (LanguageItem, bool) {
	if c == nil {
		return LanguageItem{}, false
	}
	if item, ok := c.Data.LanguageItems[path]; ok {
		return item, true
	}
	item, ok := c.Data.LanguageItems[strings.ToLower(path)]
	return item, ok
}
