package worldstate

import "time"

// RawFissure is a void fissure as it appears in ActiveMissions.
type RawFissure struct {
	ID         ObjectID    `json:"_id"`
	Seed       int64       `json:"Seed"`
	Node       SolNode     `json:"Node"`
	Activation Date        `json:"Activation"`
	Expiry     Date        `json:"Expiry"`
	Modifier   FissureTier `json:"Modifier"`
	Hard       bool        `json:"Hard"`
}

func (f *RawFissure) UnmarshalJSON(data []byte) error {
	type plain RawFissure
	return decodeObject(data, (*plain)(f), "fissure", "_id", "Node", "Activation", "Expiry", "Modifier")
}

// Fissure is a resolved void fissure.
type Fissure struct {
	ID          string      `json:"id"`
	Node        *Node       `json:"node"`
	Seed        int64       `json:"seed"`
	Activation  time.Time   `json:"activation"`
	Expiry      time.Time   `json:"expiry"`
	Tier        FissureTier `json:"tier"`
	IsSteelPath bool        `json:"isSteelPath"`
}

func (f RawFissure) Resolve(ctx *Context) Fissure {
	return Fissure{
		ID:          string(f.ID),
		Node:        f.Node.Resolve(ctx),
		Seed:        f.Seed,
		Activation:  f.Activation.Time,
		Expiry:      f.Expiry.Time,
		Tier:        f.Modifier,
		IsSteelPath: f.Hard,
	}
}

// RawVoidStorm is a Railjack void storm.
type RawVoidStorm struct {
	ID                ObjectID    `json:"_id"`
	Node              SolNode     `json:"Node"`
	Activation        Date        `json:"Activation"`
	Expiry            Date        `json:"Expiry"`
	ActiveMissionTier FissureTier `json:"ActiveMissionTier"`
}

func (v *RawVoidStorm) UnmarshalJSON(data []byte) error {
	type plain RawVoidStorm
	return decodeObject(data, (*plain)(v), "void storm", "_id", "Node", "Activation", "Expiry", "ActiveMissionTier")
}

// VoidStorm is a resolved void storm.
type VoidStorm struct {
	ID         string      `json:"id"`
	Node       *Node       `json:"node"`
	Activation time.Time   `json:"activation"`
	Expiry     time.Time   `json:"expiry"`
	Tier       FissureTier `json:"tier"`
}

func (v RawVoidStorm) Resolve(ctx *Context) VoidStorm {
	return VoidStorm{
		ID:         string(v.ID),
		Node:       v.Node.Resolve(ctx),
		Activation: v.Activation.Time,
		Expiry:     v.Expiry.Time,
		Tier:       v.ActiveMissionTier,
	}
}
