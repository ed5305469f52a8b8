package worldstate

import (
	"encoding/json"
	"fmt"
	"time"
)

// ArchimedeaType is the Conquests Type tag.
type ArchimedeaType string

const (
	ArchimedeaDeep     ArchimedeaType = "CT_LAB"
	ArchimedeaTemporal ArchimedeaType = "CT_HEX"
)

// UnmarshalJSON rejects unknown types.
func (t *ArchimedeaType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch ArchimedeaType(s) {
	case ArchimedeaDeep, ArchimedeaTemporal:
		*t = ArchimedeaType(s)
		return nil
	}
	return fmt.Errorf("archimedea type: unknown %q", s)
}

// DifficultyType is the difficulty of an archimedea mission variant.
type DifficultyType string

const (
	DifficultyNormal DifficultyType = "CD_NORMAL"
	DifficultyHard   DifficultyType = "CD_HARD"
)

// UnmarshalJSON rejects unknown difficulties.
func (t *DifficultyType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch DifficultyType(s) {
	case DifficultyNormal, DifficultyHard:
		*t = DifficultyType(s)
		return nil
	}
	return fmt.Errorf("archimedea difficulty: unknown %q", s)
}

// RawArchimedea is one Conquests entry.
type RawArchimedea struct {
	Activation Date                       `json:"Activation"`
	Expiry     Date                       `json:"Expiry"`
	Type       ArchimedeaType             `json:"Type"`
	Missions   []RawArchimedeaMission     `json:"Missions"`
	Variables  []LanguageItemWithDescPath `json:"Variables"`
	RandomSeed int64                      `json:"RandomSeed"`
}

func (a *RawArchimedea) UnmarshalJSON(data []byte) error {
	type plain RawArchimedea
	return decodeObject(data, (*plain)(a), "archimedea", "Activation", "Expiry", "Type", "Missions", "Variables", "RandomSeed")
}

// RawArchimedeaMission is one archimedea mission with its difficulty
// variants.
type RawArchimedeaMission struct {
	Faction      Faction                   `json:"faction"`
	MissionType  MissionType               `json:"missionType"`
	Difficulties []RawArchimedeaDifficulty `json:"difficulties"`
}

// RawArchimedeaDifficulty is the deviation and risks of one difficulty.
type RawArchimedeaDifficulty struct {
	Type      DifficultyType             `json:"type"`
	Deviation LanguageItemWithDescPath   `json:"deviation"`
	Risks     []LanguageItemWithDescPath `json:"risks"`
}

// Archimedeas holds one resolved run per archimedea kind and difficulty.
type Archimedeas struct {
	Deep          *Archimedea `json:"deep"`
	EliteDeep     *Archimedea `json:"eliteDeep"`
	Temporal      *Archimedea `json:"temporal"`
	EliteTemporal *Archimedea `json:"eliteTemporal"`
}

// Archimedea is an archimedea run restricted to one difficulty.
type Archimedea struct {
	Activation time.Time           `json:"activation"`
	Expiry     time.Time           `json:"expiry"`
	Missions   []ArchimedeaMission `json:"missions"`
	Variables  []DisplayInfo       `json:"variables"`
	RandomSeed int64               `json:"randomSeed"`
}

// ArchimedeaMission is a resolved archimedea mission.
type ArchimedeaMission struct {
	Faction      Faction                `json:"faction"`
	MissionType  MissionType            `json:"missionType"`
	Difficulties []ArchimedeaDifficulty `json:"difficulties"`
}

// ArchimedeaDifficulty is a resolved deviation with its risks.
type ArchimedeaDifficulty struct {
	Deviation DisplayInfo   `json:"deviation"`
	Risks     []DisplayInfo `json:"risks"`
}

// resolveArchimedeas splits every entry into its normal and hard runs.
// A later entry of the same type replaces an earlier one.
func resolveArchimedeas(entries []RawArchimedea, ctx *Context) Archimedeas {
	var out Archimedeas
	for _, a := range entries {
		normal := a.forDifficulty(ctx, DifficultyNormal)
		hard := a.forDifficulty(ctx, DifficultyHard)
		switch a.Type {
		case ArchimedeaDeep:
			out.Deep, out.EliteDeep = &normal, &hard
		case ArchimedeaTemporal:
			out.Temporal, out.EliteTemporal = &normal, &hard
		}
	}
	return out
}

func (a RawArchimedea) forDifficulty(ctx *Context, d DifficultyType) Archimedea {
	return Archimedea{
		Activation: a.Activation.Time,
		Expiry:     a.Expiry.Time,
		Missions: resolveAll(a.Missions, ctx, func(m RawArchimedeaMission, ctx *Context) ArchimedeaMission {
			var diffs []ArchimedeaDifficulty
			for _, raw := range m.Difficulties {
				if raw.Type != d {
					continue
				}
				diffs = append(diffs, ArchimedeaDifficulty{
					Deviation: raw.Deviation.Resolve(ctx),
					Risks:     resolveAll(raw.Risks, ctx, LanguageItemWithDescPath.Resolve),
				})
			}
			return ArchimedeaMission{
				Faction:      m.Faction,
				MissionType:  m.MissionType,
				Difficulties: orEmpty(diffs),
			}
		}),
		Variables:  resolveAll(a.Variables, ctx, LanguageItemWithDescPath.Resolve),
		RandomSeed: a.RandomSeed,
	}
}
