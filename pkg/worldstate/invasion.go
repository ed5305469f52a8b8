package worldstate

import (
	"encoding/json"
	"fmt"
	"time"
)

// RawInvasion is a faction invasion.
type RawInvasion struct {
	ID              ObjectID          `json:"_id"`
	Faction         Faction           `json:"Faction"`
	DefenderFaction Faction           `json:"DefenderFaction"`
	Node            SolNode           `json:"Node"`
	Count           int               `json:"Count"`
	Goal            int               `json:"Goal"`
	LocTag          LanguageItemPath  `json:"LocTag"`
	Completed       bool              `json:"Completed"`
	ChainID         ObjectID          `json:"ChainID"`
	AttackerReward  RawInvasionReward `json:"AttackerReward"`
	DefenderReward  RawInvasionReward `json:"DefenderReward"`
	Activation      Date              `json:"Activation"`
}

func (v *RawInvasion) UnmarshalJSON(data []byte) error {
	type plain RawInvasion
	return decodeObject(data, (*plain)(v), "invasion",
		"_id", "Faction", "DefenderFaction", "Node", "Count", "Goal", "LocTag",
		"Completed", "ChainID", "AttackerReward", "DefenderReward", "Activation")
}

// RawInvasionReward is an invasion reward. The attacker side of an
// Infested invasion is sent as an empty array instead of an object.
type RawInvasionReward struct {
	CountedItems []RawCountedItem
}

// UnmarshalJSON tries the array form first, which always means no
// reward, and then the {"countedItems": [...]} form.
func (r *RawInvasionReward) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err == nil {
		*r = RawInvasionReward{}
		return nil
	}
	var obj struct {
		CountedItems []RawCountedItem `json:"countedItems"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invasion reward: %w", err)
	}
	r.CountedItems = obj.CountedItems
	return nil
}

// Invasion is a resolved invasion.
type Invasion struct {
	ID               string        `json:"id"`
	AttackingFaction Faction       `json:"attackingFaction"`
	DefendingFaction Faction       `json:"defendingFaction"`
	Node             *Node         `json:"node"`
	Count            int           `json:"count"`
	Goal             int           `json:"goal"`
	LocTag           string        `json:"locTag"`
	Completed        bool          `json:"completed"`
	ChainID          string        `json:"chainId"`
	AttackerReward   []CountedItem `json:"attackerReward"`
	DefenderReward   []CountedItem `json:"defenderReward"`
	Activation       time.Time     `json:"activation"`
}

func (v RawInvasion) Resolve(ctx *Context) Invasion {
	return Invasion{
		ID:               string(v.ID),
		AttackingFaction: v.Faction,
		DefendingFaction: v.DefenderFaction,
		Node:             v.Node.Resolve(ctx),
		Count:            v.Count,
		Goal:             v.Goal,
		LocTag:           v.LocTag.Resolve(ctx),
		Completed:        v.Completed,
		ChainID:          string(v.ChainID),
		AttackerReward:   resolveAll(v.AttackerReward.CountedItems, ctx, RawCountedItem.Resolve),
		DefenderReward:   resolveAll(v.DefenderReward.CountedItems, ctx, RawCountedItem.Resolve),
		Activation:       v.Activation.Time,
	}
}
