package worldstate

import (
	"fmt"
	"slices"
	"strings"
)

// Strategy types. Each is zero-sized; its resolve method is a pure
// function of the raw value and the read-only Context, and always has a
// fallback.
type (
	// LanguageItems: language table, then the lowercased path, then the
	// title-cased last segment.
	LanguageItems struct{}

	// LanguageItemWithDesc: like LanguageItems but also yields the
	// description when the table has one.
	LanguageItemWithDesc struct{}

	// LastSegment: title-cased last segment, no lookup.
	LastSegment struct{}

	// TitleCase: the whole raw string title-cased, no lookup.
	TitleCase struct{}

	// PrimePart: prime weapon and part name demangling.
	PrimePart struct{}

	// VaultTraderItem: Prime Resurgence item names.
	VaultTraderItem struct{}

	// CalendarReward: 1999 calendar rewards.
	CalendarReward struct{}

	// SortieModifier: sortie modifier display names.
	SortieModifier struct{}

	// SortieBoss: sortie boss table lookup, nil when unknown.
	SortieBoss struct{}

	// Hubs: relay display names, falling back to the raw id.
	Hubs struct{}

	// NodeLookup: star chart node lookup, nil when unknown.
	NodeLookup struct{}
)

func (LanguageItems) resolve(raw string, ctx *Context) string {
	if item, ok := ctx.lookupLanguage(raw); ok {
		return item.Value
	}
	return titleCaseLastSegment(raw)
}

func (LanguageItemWithDesc) resolve(raw string, ctx *Context) DisplayInfo {
	if item, ok := ctx.lookupLanguage(raw); ok {
		return DisplayInfo{Title: item.Value, Description: item.Description}
	}
	return DisplayInfo{Title: titleCaseLastSegment(raw)}
}

func (LastSegment) resolve(raw string, _ *Context) string {
	return titleCaseLastSegment(raw)
}

func (TitleCase) resolve(raw string, _ *Context) string {
	return titleCase(raw)
}

func (PrimePart) resolve(raw string, _ *Context) string {
	return primePart(raw)
}

func (VaultTraderItem) resolve(raw string, ctx *Context) string {
	switch {
	case strings.Contains(raw, "Weapons"):
		return primePart(raw)
	case strings.Contains(raw, "Powersuits"):
		return LanguageItems{}.resolve(raw, ctx)
	case strings.Contains(raw, "Upgrades/Skins"):
		return skinName(raw, ctx)
	case strings.Contains(raw, "Projections"):
		return relicName(raw, ctx)
	case strings.Contains(raw, "MegaPrimeVault"):
		return primeVaultPack(raw)
	default:
		return titleCaseLastSegment(raw)
	}
}

func (CalendarReward) resolve(raw string, ctx *Context) string {
	switch {
	case strings.Contains(raw, "ArchonCrystal"):
		if ctx != nil {
			if name, ok := ctx.Data.ArchonShards[raw]; ok {
				return name
			}
		}
		return titleCaseLastSegment(raw)
	case strings.Contains(raw, "ArcaneUnlocker"):
		if rest, ok := strings.CutPrefix(lastSegment(raw), "Weapon"); ok {
			return titleCase(strings.ReplaceAll(rest, "Unlocker", "Adapter"))
		}
		return titleCaseLastSegment(raw)
	default:
		return LanguageItems{}.resolve(raw, ctx)
	}
}

func (SortieModifier) resolve(raw string, ctx *Context) string {
	if ctx != nil {
		if name, ok := ctx.Data.Sortie.ModifierTypes[raw]; ok {
			return name
		}
	}
	return titleCase(raw)
}

func (SortieBoss) resolve(raw string, ctx *Context) *Boss {
	if ctx == nil {
		return nil
	}
	boss, ok := ctx.Data.Sortie.Bosses[raw]
	if !ok {
		return nil
	}
	return &boss
}

func (Hubs) resolve(raw string, ctx *Context) string {
	if ctx != nil {
		if name, ok := ctx.Data.Hubs[raw]; ok {
			return name
		}
	}
	return raw
}

func (NodeLookup) resolve(raw string, ctx *Context) *Node {
	if ctx == nil {
		return nil
	}
	return ctx.CustomMaps.Nodes[raw]
}

// strategies maps the public strategy names onto their resolvers.
var strategies = map[string]func(raw string, ctx *Context) any{
	"languageItems":        func(r string, c *Context) any { return LanguageItems{}.resolve(r, c) },
	"languageItemWithDesc": func(r string, c *Context) any { return LanguageItemWithDesc{}.resolve(r, c) },
	"lastSegment":          func(r string, c *Context) any { return LastSegment{}.resolve(r, c) },
	"titleCase":            func(r string, c *Context) any { return TitleCase{}.resolve(r, c) },
	"primePart":            func(r string, c *Context) any { return PrimePart{}.resolve(r, c) },
	"vaultTraderItem":      func(r string, c *Context) any { return VaultTraderItem{}.resolve(r, c) },
	"calendarReward":       func(r string, c *Context) any { return CalendarReward{}.resolve(r, c) },
	"sortieModifier":       func(r string, c *Context) any { return SortieModifier{}.resolve(r, c) },
	"sortieBoss":           func(r string, c *Context) any { return SortieBoss{}.resolve(r, c) },
	"hubs":                 func(r string, c *Context) any { return Hubs{}.resolve(r, c) },
	"nodeLookup":           func(r string, c *Context) any { return NodeLookup{}.resolve(r, c) },
}

// StrategyNames lists the names accepted by [ResolveWith], sorted.
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ResolveWith resolves raw with the strategy registered under name. It is
// the dynamic counterpart of [Path.Resolve] for tools that receive the
// strategy as input.
func ResolveWith(name, raw string, ctx *Context) (any, error) {
	f, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("worldstate: unknown strategy %q", name)
	}
	return f(raw, ctx), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Name demangling
// ─────────────────────────────────────────────────────────────────────────────

// weaponArchetypes are dropped from prime part names. "Dual Daggers" can
// never match a single camel-case token.
var weaponArchetypes = []string{
	"Dagger",
	"Weapon",
	"Sniper",
	"Bow",
	"Launcher",
	"Sword",
	"Dual Daggers",
	"Claws",
	"Nikana",
}

// primePart demangles the last segment of a prime weapon path:
//
//	"PrimeKnell"        -> "Knell Prime"
//	"PrimeDualKeres"    -> "Dual Keres Prime"
//	"SomaPrimeSniper"   -> "Soma Prime"
func primePart(raw string) string {
	parts := splitCamelCase(lastSegment(raw))
	if len(parts) >= 2 && parts[0] == "Prime" {
		parts = append(parts[1:], parts[0])
	}
	if i := slices.IndexFunc(parts, func(p string) bool {
		return slices.Contains(weaponArchetypes, p)
	}); i >= 0 {
		parts = slices.Delete(parts, i, i+1)
	}
	return strings.Join(parts, " ")
}

// skinName resolves a skin through the customs index, then the language
// table, then the title-cased last segment.
func skinName(raw string, ctx *Context) string {
	if ctx != nil {
		upgrade := strings.ReplaceAll(raw, "/Lotus/StoreItems/", "/Lotus/Upgrades/")
		if entry, ok := ctx.CustomMaps.Customs[upgrade]; ok {
			return entry.Name
		}
		if item, ok := ctx.Data.LanguageItems[raw]; ok {
			return item.Value
		}
	}
	return titleCaseLastSegment(raw)
}

// relicName resolves a relic store item. Unknown relics yield "".
func relicName(raw string, ctx *Context) string {
	if ctx == nil {
		return ""
	}
	if relic, ok := ctx.CustomMaps.Relics[strings.ReplaceAll(raw, "/StoreItems", "")]; ok {
		return relic.Name
	}
	return ""
}

// primeVaultPack names a Prime Vault pack:
//
//	"MPVNovaSinglePack"        -> "Nova Single Pack"
//	"MPVNovaVaubanDualPack"    -> "Nova & Vauban Dual Pack"
func primeVaultPack(raw string) string {
	seg := strings.TrimPrefix(lastSegment(raw), "MPV")
	parts := splitCamelCase(seg)
	if strings.HasSuffix(seg, "DualPack") {
		parts = slices.Insert(parts, 1, "&")
	}
	return strings.Join(parts, " ")
}
