package worldstate

import (
	"encoding/json"
	"time"
)

// RawSortie is a daily sortie.
type RawSortie struct {
	ID         ObjectID           `json:"_id"`
	Activation Date               `json:"Activation"`
	Expiry     Date               `json:"Expiry"`
	Reward     LastSegmentPath    `json:"Reward"`
	Seed       int64              `json:"Seed"`
	Boss       BossKey            `json:"Boss"`
	ExtraDrops []json.RawMessage  `json:"ExtraDrops"`
	Variants   []RawSortieVariant `json:"Variants"`
	Twitter    bool               `json:"Twitter"`
}

func (s *RawSortie) UnmarshalJSON(data []byte) error {
	type plain RawSortie
	return decodeObject(data, (*plain)(s), "sortie", "_id", "Activation", "Expiry", "Reward", "Seed", "Boss", "Variants")
}

// RawSortieVariant is one of the three sortie missions.
type RawSortieVariant struct {
	MissionType  MissionType `json:"missionType"`
	ModifierType ModifierKey `json:"modifierType"`
	Node         SolNode     `json:"node"`
	Tileset      string      `json:"tileset"`
}

func (v *RawSortieVariant) UnmarshalJSON(data []byte) error {
	type plain RawSortieVariant
	return decodeObject(data, (*plain)(v), "sortie variant", "missionType", "modifierType", "node")
}

// Sortie is a resolved sortie.
type Sortie struct {
	ID         string             `json:"id"`
	Activation time.Time          `json:"activation"`
	Expiry     time.Time          `json:"expiry"`
	Reward     string             `json:"reward"`
	Seed       int64              `json:"seed"`
	Boss       *string            `json:"boss"`
	Faction    *SortieBossFaction `json:"faction"`
	RewardPool []DropItem         `json:"rewardPool"`
	ExtraDrops []json.RawMessage  `json:"extraDrops"`
	Variants   []SortieVariant    `json:"variants"`
	Twitter    bool               `json:"twitter"`
}

// SortieVariant is a resolved sortie mission.
type SortieVariant struct {
	MissionType         MissionType `json:"missionType"`
	Modifier            string      `json:"modifier"`
	ModifierDescription *string     `json:"modifierDescription"`
	Node                *Node       `json:"node"`
	Tileset             string      `json:"tileset"`
}

func (s RawSortie) Resolve(ctx *Context) Sortie {
	out := Sortie{
		ID:         string(s.ID),
		Activation: s.Activation.Time,
		Expiry:     s.Expiry.Time,
		Reward:     s.Reward.Resolve(ctx),
		Seed:       s.Seed,
		RewardPool: []DropItem{},
		ExtraDrops: orEmpty(s.ExtraDrops),
		Variants:   resolveAll(s.Variants, ctx, RawSortieVariant.Resolve),
		Twitter:    s.Twitter,
	}
	if boss := s.Boss.Resolve(ctx); boss != nil {
		out.Boss, out.Faction = &boss.Name, &boss.Faction
	}
	if ctx != nil {
		out.RewardPool = orEmpty(ctx.Data.Bounties.SortieRewards)
	}
	return out
}

func (v RawSortieVariant) Resolve(ctx *Context) SortieVariant {
	out := SortieVariant{
		MissionType: v.MissionType,
		Modifier:    v.ModifierType.Resolve(ctx),
		Node:        v.Node.Resolve(ctx),
		Tileset:     v.Tileset,
	}
	if ctx != nil {
		if desc, ok := ctx.Data.Sortie.ModifierDescriptions[v.ModifierType.Raw()]; ok {
			out.ModifierDescription = &desc
		}
	}
	return out
}

// RawArchonHunt is an archon hunt, sent as LiteSorties.
type RawArchonHunt struct {
	ID         ObjectID               `json:"_id"`
	Activation Date                   `json:"Activation"`
	Expiry     Date                   `json:"Expiry"`
	Reward     LastSegmentPath        `json:"Reward"`
	Seed       int64                  `json:"Seed"`
	Boss       BossKey                `json:"Boss"`
	Missions   []RawArchonHuntMission `json:"Missions"`
}

func (a *RawArchonHunt) UnmarshalJSON(data []byte) error {
	type plain RawArchonHunt
	return decodeObject(data, (*plain)(a), "archon hunt", "_id", "Activation", "Expiry", "Reward", "Seed", "Boss", "Missions")
}

// RawArchonHuntMission is one archon hunt mission.
type RawArchonHuntMission struct {
	MissionType MissionType `json:"missionType"`
	Node        SolNode     `json:"node"`
}

// ArchonHunt is a resolved archon hunt.
type ArchonHunt struct {
	ID         string              `json:"id"`
	Activation time.Time           `json:"activation"`
	Expiry     time.Time           `json:"expiry"`
	Reward     string              `json:"reward"`
	Seed       int64               `json:"seed"`
	Boss       *string             `json:"boss"`
	RewardPool []DropItem          `json:"rewardPool"`
	Missions   []ArchonHuntMission `json:"missions"`
}

// ArchonHuntMission is a resolved archon hunt mission.
type ArchonHuntMission struct {
	MissionType MissionType `json:"missionType"`
	Node        *Node       `json:"node"`
}

func (a RawArchonHunt) Resolve(ctx *Context) ArchonHunt {
	out := ArchonHunt{
		ID:         string(a.ID),
		Activation: a.Activation.Time,
		Expiry:     a.Expiry.Time,
		Reward:     a.Reward.Resolve(ctx),
		Seed:       a.Seed,
		RewardPool: []DropItem{},
		Missions:   resolveAll(a.Missions, ctx, RawArchonHuntMission.Resolve),
	}
	if boss := a.Boss.Resolve(ctx); boss != nil {
		out.Boss = &boss.Name
	}
	if ctx != nil {
		out.RewardPool = orEmpty(ctx.Data.ArchonHuntRewards)
	}
	return out
}

func (m RawArchonHuntMission) Resolve(ctx *Context) ArchonHuntMission {
	return ArchonHuntMission{MissionType: m.MissionType, Node: m.Node.Resolve(ctx)}
}
