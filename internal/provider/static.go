package provider

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/worldstate/pkg/worldstate"
)

// Dirs locates the static data files.
type Dirs struct {
	// Data holds languages.json, solNodes.json and sortieData.json.
	Data string
	// Drops holds data.json.
	Drops string
	// Assets holds languageItemsExt.json, archonHuntRewards.json,
	// archonShardsStoreItem.json and crewBattleNodes.json.
	Assets string
}

// readJSON decodes dir/name into v.
func readJSON(dir, name string, v any) error {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// LoadStatic reads every static data file concurrently and assembles the
// world-state data tables. Extended language items override the base table.
func LoadStatic(d Dirs) (worldstate.WorldstateData, error) {
	var (
		languages    map[string]worldstate.LanguageItem
		languagesExt map[string]worldstate.LanguageItem
		solNodes     map[string]worldstate.SolNodeEntry
		data         worldstate.WorldstateData
	)

	var g errgroup.Group
	g.Go(func() error { return readJSON(d.Data, "languages.json", &languages) })
	g.Go(func() error { return readJSON(d.Assets, "languageItemsExt.json", &languagesExt) })
	g.Go(func() error { return readJSON(d.Data, "solNodes.json", &solNodes) })
	g.Go(func() error { return readJSON(d.Data, "sortieData.json", &data.Sortie) })
	g.Go(func() error { return readJSON(d.Drops, "data.json", &data.Bounties) })
	g.Go(func() error { return readJSON(d.Assets, "archonHuntRewards.json", &data.ArchonHuntRewards) })
	g.Go(func() error { return readJSON(d.Assets, "archonShardsStoreItem.json", &data.ArchonShards) })
	if err := g.Wait(); err != nil {
		return worldstate.WorldstateData{}, fmt.Errorf("provider: load static data: %w", err)
	}

	if languages == nil {
		languages = make(map[string]worldstate.LanguageItem, len(languagesExt))
	}
	maps.Copy(languages, languagesExt)
	data.LanguageItems = languages
	data.Hubs = worldstate.BuildHubs(solNodes)
	return data, nil
}

// LoadCrewBattleNodes reads the curated regions appended to ExportRegions.
func LoadCrewBattleNodes(assetsDir string) ([]worldstate.RegionEntry, error) {
	var nodes []worldstate.RegionEntry
	if err := readJSON(assetsDir, "crewBattleNodes.json", &nodes); err != nil {
		return nil, fmt.Errorf("provider: load crew battle nodes: %w", err)
	}
	return nodes, nil
}
