package worldstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Exports is the raw catalog data loaded from the public export manifests.
type Exports struct {
	Regions     []RegionEntry
	RelicArcane []RelicArcane
	Customs     []CustomEntry
}

// ─────────────────────────────────────────────────────────────────────────────
// Export index
// ─────────────────────────────────────────────────────────────────────────────

// Manifest file keys listed in the public export index.
const (
	ManifestCustoms       = "ExportCustoms_en.json"
	ManifestDrones        = "ExportDrones_en.json"
	ManifestFlavour       = "ExportFlavour_en.json"
	ManifestFusionBundles = "ExportFusionBundles_en.json"
	ManifestGear          = "ExportGear_en.json"
	ManifestKeys          = "ExportKeys_en.json"
	ManifestRecipes       = "ExportRecipes_en.json"
	ManifestRegions       = "ExportRegions_en.json"
	ManifestRelicArcane   = "ExportRelicArcane_en.json"
	ManifestResources     = "ExportResources_en.json"
	ManifestSentinels     = "ExportSentinels_en.json"
	ManifestSortieRewards = "ExportSortieRewards_en.json"
	ManifestUpgrades      = "ExportUpgrades_en.json"
	ManifestWarframes     = "ExportWarframes_en.json"
	ManifestWeapons       = "ExportWeapons_en.json"
	ManifestManifest      = "ExportManifest.json"
)

// RequiredManifests lists every key the export index must contain.
var RequiredManifests = []string{
	ManifestCustoms, ManifestDrones, ManifestFlavour, ManifestFusionBundles,
	ManifestGear, ManifestKeys, ManifestRecipes, ManifestRegions,
	ManifestRelicArcane, ManifestResources, ManifestSentinels,
	ManifestSortieRewards, ManifestUpgrades, ManifestWarframes,
	ManifestWeapons, ManifestManifest,
}

// ManifestIndex maps a manifest key such as "ExportRegions_en.json" to its
// full versioned file name ("ExportRegions_en.json!00_abc...").
type ManifestIndex map[string]string

// ErrMissingManifest is returned by [ParseExportIndex] when a required key
// is absent.
var ErrMissingManifest = errors.New("worldstate: missing manifest key")

// ParseExportIndex parses the decompressed export index. Each line has the
// form "key!hash"; lines without '!' are ignored. Every key in
// [RequiredManifests] must be present.
func ParseExportIndex(text string) (ManifestIndex, error) {
	idx := make(ManifestIndex)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		key, _, ok := strings.Cut(line, "!")
		if !ok {
			continue
		}
		idx[key] = line
	}
	var missing []error
	for _, key := range RequiredManifests {
		if _, ok := idx[key]; !ok {
			missing = append(missing, fmt.Errorf("%w: %s", ErrMissingManifest, key))
		}
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}
	return idx, nil
}

// ManifestPrefix returns the part of a versioned manifest file name before
// '!'. Cached files sharing a prefix are versions of the same manifest.
func ManifestPrefix(file string) string {
	key, _, _ := strings.Cut(file, "!")
	return key
}

// ─────────────────────────────────────────────────────────────────────────────
// Regions
// ─────────────────────────────────────────────────────────────────────────────

// nodeTypeDarkSector marks a dark sector node in ExportRegions.
const nodeTypeDarkSector = 4

// RegionEntry is one entry of ExportRegions.
type RegionEntry struct {
	UniqueName    string      `json:"uniqueName"`
	Name          string      `json:"name"`
	SystemIndex   int         `json:"systemIndex"`
	SystemName    string      `json:"systemName"`
	NodeType      int         `json:"nodeType"`
	MasteryReq    int         `json:"masteryReq"`
	MissionIndex  MissionType `json:"missionIndex"`
	FactionIndex  Faction     `json:"factionIndex"`
	MinEnemyLevel int         `json:"minEnemyLevel"`
	MaxEnemyLevel int         `json:"maxEnemyLevel"`
}

// Node converts the manifest entry into its resolved form.
func (r RegionEntry) Node() Node {
	return Node{
		SystemIndex:   r.SystemIndex,
		Name:          r.Name,
		Planet:        r.SystemName,
		MasteryReq:    r.MasteryReq,
		MissionType:   r.MissionIndex,
		Faction:       r.FactionIndex,
		MinEnemyLevel: r.MinEnemyLevel,
		MaxEnemyLevel: r.MaxEnemyLevel,
		IsDarkSector:  r.NodeType == nodeTypeDarkSector,
	}
}

// Node is a resolved star chart node.
type Node struct {
	SystemIndex   int         `json:"systemIndex"`
	Name          string      `json:"name"`
	Planet        string      `json:"planet"`
	MasteryReq    int         `json:"masteryReq"`
	MissionType   MissionType `json:"missionType"`
	Faction       Faction     `json:"faction"`
	MinEnemyLevel int         `json:"minEnemyLevel"`
	MaxEnemyLevel int         `json:"maxEnemyLevel"`
	IsDarkSector  bool        `json:"isDarkSector"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Relics and arcanes
// ─────────────────────────────────────────────────────────────────────────────

// RelicArcane is one entry of ExportRelicArcane. Exactly one of Relic and
// Arcane is set.
type RelicArcane struct {
	Relic  *Relic
	Arcane *Arcane
}

// UnmarshalJSON tries the relic shape first and falls back to the arcane
// shape. An entry is a relic when it carries a relicRewards array.
func (ra *RelicArcane) UnmarshalJSON(data []byte) error {
	var probe struct {
		RelicRewards json.RawMessage `json:"relicRewards"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if len(probe.RelicRewards) > 0 && string(probe.RelicRewards) != "null" {
		var raw manifestRelic
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("relic: %w", err)
		}
		relic := raw.resolve()
		*ra = RelicArcane{Relic: &relic}
		return nil
	}
	var arcane Arcane
	if err := json.Unmarshal(data, &arcane); err != nil {
		return fmt.Errorf("arcane: %w", err)
	}
	*ra = RelicArcane{Arcane: &arcane}
	return nil
}

type manifestRelic struct {
	UniqueName   string `json:"uniqueName"`
	Name         string `json:"name"`
	CodexSecret  bool   `json:"codexSecret"`
	Description  string `json:"description"`
	RelicRewards []struct {
		RewardName PrimePartPath `json:"rewardName"`
		Rarity     RelicRarity   `json:"rarity"`
		Tier       int           `json:"tier"`
		ItemCount  int           `json:"itemCount"`
	} `json:"relicRewards"`
}

func (m manifestRelic) resolve() Relic {
	rewards := make([]RelicReward, len(m.RelicRewards))
	for i, r := range m.RelicRewards {
		rewards[i] = RelicReward{
			RewardName: r.RewardName.Resolve(nil),
			Rarity:     r.Rarity,
			Tier:       r.Tier,
			ItemCount:  r.ItemCount,
		}
	}
	return Relic{
		UniqueName:  m.UniqueName,
		Name:        m.Name,
		CodexSecret: m.CodexSecret,
		Description: m.Description,
		Rewards:     rewards,
	}
}

// Relic is a void relic with its reward names already resolved.
type Relic struct {
	UniqueName  string        `json:"uniqueName"`
	Name        string        `json:"name"`
	CodexSecret bool          `json:"codexSecret"`
	Description string        `json:"description"`
	Rewards     []RelicReward `json:"relicRewards"`
}

// RelicReward is one possible relic drop.
type RelicReward struct {
	RewardName string      `json:"rewardName"`
	Rarity     RelicRarity `json:"rarity"`
	Tier       int         `json:"tier"`
	ItemCount  int         `json:"itemCount"`
}

// RelicRarity is COMMON, UNCOMMON or RARE.
type RelicRarity string

const (
	RarityCommon   RelicRarity = "COMMON"
	RarityUncommon RelicRarity = "UNCOMMON"
	RarityRare     RelicRarity = "RARE"
)

// UnmarshalJSON rejects unknown rarities.
func (r *RelicRarity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch RelicRarity(s) {
	case RarityCommon, RarityUncommon, RarityRare:
		*r = RelicRarity(s)
		return nil
	}
	return fmt.Errorf("unknown relic rarity %q", s)
}

// Arcane is an arcane enhancement entry.
type Arcane struct {
	UniqueName       string `json:"uniqueName"`
	Name             string `json:"name"`
	CodexSecret      bool   `json:"codexSecret"`
	ExcludeFromCodex bool   `json:"excludeFromCodex"`
	Rarity           string `json:"rarity"`
	LevelStats       []struct {
		Stats []string `json:"stats"`
	} `json:"levelStats"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Customs
// ─────────────────────────────────────────────────────────────────────────────

// CustomEntry is one curated entry of ExportCustoms.
type CustomEntry struct {
	UniqueName       string  `json:"uniqueName"`
	Name             string  `json:"name"`
	CodexSecret      bool    `json:"codexSecret"`
	Description      *string `json:"description"`
	ExcludeFromCodex bool    `json:"excludeFromCodex"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Manifest file envelopes
// ─────────────────────────────────────────────────────────────────────────────

// ParseRegions decodes an ExportRegions manifest file.
func ParseRegions(data []byte) ([]RegionEntry, error) {
	var f struct {
		ExportRegions []RegionEntry `json:"ExportRegions"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, parseErr("ExportRegions", err)
	}
	return f.ExportRegions, nil
}

// ParseRelicArcane decodes an ExportRelicArcane manifest file.
func ParseRelicArcane(data []byte) ([]RelicArcane, error) {
	var f struct {
		ExportRelicArcane []RelicArcane `json:"ExportRelicArcane"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, parseErr("ExportRelicArcane", err)
	}
	return f.ExportRelicArcane, nil
}

// ParseCustoms decodes an ExportCustoms manifest file.
func ParseCustoms(data []byte) ([]CustomEntry, error) {
	var f struct {
		ExportCustoms []CustomEntry `json:"ExportCustoms"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, parseErr("ExportCustoms", err)
	}
	return f.ExportCustoms, nil
}
