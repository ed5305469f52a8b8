package worldstate

import (
	"encoding/json"
	"fmt"
	"regexp"
)

var (
	ghoulRewardTable    = regexp.MustCompile(`GhoulBountyTable([ABC])Rewards`)
	standardRewardTable = regexp.MustCompile(`(?:Tier([A-Z])|Narmer)Table([ABC])Rewards`)
)

// RotationContext carries the sibling fields a bounty job contributes to
// resolving its reward table.
type RotationContext struct {
	Syndicate SyndicateType
	MinLevel  int
	MaxLevel  int
	IsVault   bool
}

// RewardPath is a bounty reward table path such as
// "/Lotus/Types/Game/MissionDecks/EidolonJobMissionRewards/TierCTableBRewards".
// It marshals as the plain string.
type RewardPath struct {
	raw string
}

func (p RewardPath) Raw() string { return p.raw }

// MarshalJSON implements [json.Marshaler].
func (p RewardPath) MarshalJSON() ([]byte, error) { return json.Marshal(p.raw) }

// UnmarshalJSON implements [json.Unmarshaler].
func (p *RewardPath) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("reward path: %w", err)
	}
	p.raw = s
	return nil
}

// Resolve selects the reward rotation for the path. The rotation letter
// comes from "GhoulBountyTable<R>Rewards" (tried first) or
// "Tier<X>Table<R>Rewards"; the row is the one labelled
// "Level <min> - <max> <location>" in the syndicate's table. Any failed
// step yields (nil, false).
func (p RewardPath) Resolve(ctx *Context, rc RotationContext) ([]DropItem, bool) {
	if ctx == nil {
		return nil, false
	}
	seg := lastSegment(p.raw)

	var rotation string
	ghoul := false
	if m := ghoulRewardTable.FindStringSubmatch(seg); m != nil {
		rotation, ghoul = m[1], true
	} else if m := standardRewardTable.FindStringSubmatch(seg); m != nil {
		rotation = m[2]
		// Isolation vault tables rotate on the tier letter instead.
		if rc.IsVault && rc.Syndicate.Kind == SyndicateEntrati && m[1] != "" {
			rotation = m[1]
		}
	} else {
		return nil, false
	}

	table, location, ok := bountyTable(ctx, rc, ghoul)
	if !ok {
		return nil, false
	}
	label := fmt.Sprintf("Level %d - %d %s", rc.MinLevel, rc.MaxLevel, location)
	for _, row := range table {
		if row.BountyLevel != label {
			continue
		}
		items, ok := row.Rewards[rotation]
		return items, ok
	}
	return nil, false
}

// bountyTable picks the reward table and the location phrase used in its
// row labels.
func bountyTable(ctx *Context, rc RotationContext, ghoul bool) ([]Bounty, string, bool) {
	b := &ctx.Data.Bounties
	switch rc.Syndicate.Kind {
	case SyndicateOstrons:
		if ghoul {
			return b.Cetus, "Ghoul Bounty", true
		}
		return b.Cetus, "Cetus Bounty", true
	case SyndicateSolaris:
		return b.Solaris, "Orb Vallis Bounty", true
	case SyndicateEntrati:
		if rc.IsVault {
			return b.Deimos, "Isolation Vault", true
		}
		return b.Deimos, "Cambion Drift Bounty", true
	case SyndicateZariman:
		return b.Zariman, "Zariman Bounty", true
	case SyndicateCavia:
		return b.EntratiLab, "Albrecht's Laboratories Bounty", true
	case SyndicateHex:
		return b.Hex, "Hollvania Bounty", true
	}
	return nil, "", false
}
