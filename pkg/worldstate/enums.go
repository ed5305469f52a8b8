package worldstate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The code tables in this file are closed. Each decoder is a switch with
// one case per known code and no default arm; an unknown code is a parse
// error, so new upstream codes show up as failures instead of silently
// mapping to a wrong value.

// ─────────────────────────────────────────────────────────────────────────────
// Faction
// ─────────────────────────────────────────────────────────────────────────────

// Faction is an enemy faction. The numeric value is the manifest
// factionIndex.
type Faction uint8

const (
	FactionGrineer  Faction = 0
	FactionCorpus   Faction = 1
	FactionInfested Faction = 2
	FactionOrokin   Faction = 3
	FactionSentient Faction = 5
	FactionMurmur   Faction = 7
	FactionScaldra  Faction = 8
	FactionTechrot  Faction = 9
	FactionDuviri   Faction = 10
)

func (f Faction) String() string {
	if n, ok := f.name(); ok {
		return n
	}
	return "Faction(" + strconv.Itoa(int(f)) + ")"
}

func (f Faction) name() (string, bool) {
	switch f {
	case FactionGrineer:
		return "Grineer", true
	case FactionCorpus:
		return "Corpus", true
	case FactionInfested:
		return "Infested", true
	case FactionOrokin:
		return "Orokin", true
	case FactionSentient:
		return "Sentient", true
	case FactionMurmur:
		return "Murmur", true
	case FactionScaldra:
		return "Scaldra", true
	case FactionTechrot:
		return "Techrot", true
	case FactionDuviri:
		return "Duviri", true
	}
	return "", false
}

// MarshalJSON writes the faction name.
func (f Faction) MarshalJSON() ([]byte, error) { return json.Marshal(f.String()) }

// UnmarshalJSON accepts a manifest factionIndex number or a wire FC_* code.
func (f *Faction) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		var idx uint8
		if err := json.Unmarshal(data, &idx); err != nil {
			return fmt.Errorf("faction: %s is neither a code nor an index", data)
		}
		return f.setIndex(idx)
	}
	v, err := factionFromCode(code)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func (f *Faction) setIndex(idx uint8) error {
	if _, ok := Faction(idx).name(); !ok {
		return fmt.Errorf("faction: unknown index %d", idx)
	}
	*f = Faction(idx)
	return nil
}

func factionFromCode(code string) (Faction, error) {
	switch code {
	case "FC_CORPUS":
		return FactionCorpus, nil
	case "FC_CORRUPTED":
		return FactionOrokin, nil
	case "FC_GRINEER":
		return FactionGrineer, nil
	case "FC_INFESTATION":
		return FactionInfested, nil
	case "FC_MITW":
		return FactionMurmur, nil
	case "FC_SCALDRA":
		return FactionScaldra, nil
	case "FC_SENTIENT":
		return FactionSentient, nil
	case "FC_TECHROT":
		return FactionTechrot, nil
	case "FC_OROKIN":
		return FactionOrokin, nil
	}
	return 0, fmt.Errorf("faction: unknown code %q", code)
}

// SortieBossFaction is the faction tag used in the sortie boss table.
type SortieBossFaction string

const (
	BossFactionCorpus   SortieBossFaction = "Corpus"
	BossFactionGrineer  SortieBossFaction = "Grineer"
	BossFactionInfested SortieBossFaction = "Infested"
	BossFactionOrokin   SortieBossFaction = "Orokin"
	BossFactionNarmer   SortieBossFaction = "Narmer"
)

// UnmarshalJSON maps the table spelling (Infestation, Corrupted) onto the
// display names.
func (b *SortieBossFaction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Corpus":
		*b = BossFactionCorpus
	case "Grineer":
		*b = BossFactionGrineer
	case "Infestation", "Infested":
		*b = BossFactionInfested
	case "Corrupted", "Orokin":
		*b = BossFactionOrokin
	case "Narmer":
		*b = BossFactionNarmer
	default:
		return fmt.Errorf("sortie boss faction: unknown %q", s)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Mission type
// ─────────────────────────────────────────────────────────────────────────────

// MissionType is a mission type. The numeric value is the manifest
// missionIndex; [MissionUnknown] covers wire codes without a manifest entry.
type MissionType uint8

const (
	MissionAssassination   MissionType = 0
	MissionExterminate     MissionType = 1
	MissionSurvival        MissionType = 2
	MissionRescue          MissionType = 3
	MissionSabotage        MissionType = 4
	MissionCapture         MissionType = 5
	MissionSpy             MissionType = 7
	MissionDefense         MissionType = 8
	MissionMobileDefense   MissionType = 9
	MissionInterception    MissionType = 13
	MissionHijack          MissionType = 14
	MissionHiveSabotage    MissionType = 15
	MissionExcavation      MissionType = 17
	MissionInfestedSalvage MissionType = 21
	MissionRathuum         MissionType = 22
	MissionPursuit         MissionType = 24
	MissionRush            MissionType = 25
	MissionAssault         MissionType = 26
	MissionDefection       MissionType = 27
	MissionLandscape       MissionType = 28
	MissionCircuit         MissionType = 31
	MissionDisruption      MissionType = 32
	MissionVoidFlood       MissionType = 33
	MissionVoidCascade     MissionType = 34
	MissionVoidArmageddon  MissionType = 35
	MissionVoidArmageddon2 MissionType = 36
	MissionAlchemy         MissionType = 38
	MissionLegacyteHarvest MissionType = 40
	MissionShrineDefense   MissionType = 41
	MissionFaceoff         MissionType = 42
	MissionDescendia       MissionType = 43
	MissionRecall          MissionType = 44
	MissionUnknown         MissionType = 255
)

func (m MissionType) String() string {
	if n, ok := m.name(); ok {
		return n
	}
	return "MissionType(" + strconv.Itoa(int(m)) + ")"
}

func (m MissionType) name() (string, bool) {
	switch m {
	case MissionAssassination:
		return "Assassination", true
	case MissionExterminate:
		return "Exterminate", true
	case MissionSurvival:
		return "Survival", true
	case MissionRescue:
		return "Rescue", true
	case MissionSabotage:
		return "Sabotage", true
	case MissionCapture:
		return "Capture", true
	case MissionSpy:
		return "Spy", true
	case MissionDefense:
		return "Defense", true
	case MissionMobileDefense:
		return "Mobile Defense", true
	case MissionInterception:
		return "Interception", true
	case MissionHijack:
		return "Hijack", true
	case MissionHiveSabotage:
		return "Hive Sabotage", true
	case MissionExcavation:
		return "Excavation", true
	case MissionInfestedSalvage:
		return "Infested Salvage", true
	case MissionRathuum:
		return "Rathuum", true
	case MissionPursuit:
		return "Pursuit", true
	case MissionRush:
		return "Rush", true
	case MissionAssault:
		return "Assault", true
	case MissionDefection:
		return "Defection", true
	case MissionLandscape:
		return "Landscape", true
	case MissionCircuit:
		return "Circuit", true
	case MissionDisruption:
		return "Disruption", true
	case MissionVoidFlood:
		return "Void Flood", true
	case MissionVoidCascade:
		return "Void Cascade", true
	case MissionVoidArmageddon:
		return "Void Armaggedon", true
	case MissionVoidArmageddon2:
		return "Void Armaggedon 2", true
	case MissionAlchemy:
		return "Alchemy", true
	case MissionLegacyteHarvest:
		return "Legacyte Harvest", true
	case MissionShrineDefense:
		return "Shrine Defense", true
	case MissionFaceoff:
		return "Faceoff", true
	case MissionDescendia:
		return "Descendia", true
	case MissionRecall:
		return "Recall", true
	case MissionUnknown:
		return "Unknown", true
	}
	return "", false
}

// MarshalJSON writes the display name.
func (m MissionType) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

// UnmarshalJSON accepts a manifest missionIndex number or a wire MT_* code.
func (m *MissionType) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		var idx uint8
		if err := json.Unmarshal(data, &idx); err != nil {
			return fmt.Errorf("mission type: %s is neither a code nor an index", data)
		}
		if _, ok := MissionType(idx).name(); !ok {
			return fmt.Errorf("mission type: unknown index %d", idx)
		}
		*m = MissionType(idx)
		return nil
	}
	v, err := missionTypeFromCode(code)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func missionTypeFromCode(code string) (MissionType, error) {
	switch code {
	case "MT_ARENA":
		return MissionRathuum, nil
	case "MT_ARMAGEDDON":
		return MissionVoidArmageddon, nil
	case "MT_ARTIFACT":
		return MissionDisruption, nil
	case "MT_ASSAULT":
		return MissionAssault, nil
	case "MT_ASSASSINATION":
		return MissionAssassination, nil
	case "MT_CAPTURE":
		return MissionCapture, nil
	case "MT_CORRUPTION":
		return MissionVoidFlood, nil
	case "MT_DEFAULT":
		return MissionUnknown, nil
	case "MT_DEFENSE":
		return MissionDefense, nil
	case "MT_ENDLESS_CAPTURE":
		return MissionLegacyteHarvest, nil
	case "MT_ENDLESS_EXTERMINATION":
		return MissionUnknown, nil
	case "MT_EVACUATION":
		return MissionDefection, nil
	case "MT_EXCAVATE":
		return MissionExcavation, nil
	case "MT_EXTERMINATION":
		return MissionExterminate, nil
	case "MT_HIVE":
		return MissionHiveSabotage, nil
	case "MT_INTEL":
		return MissionSpy, nil
	case "MT_LANDSCAPE":
		return MissionLandscape, nil
	case "MT_MOBILE_DEFENSE":
		return MissionMobileDefense, nil
	case "MT_PURIFY":
		return MissionInfestedSalvage, nil
	case "MT_PVP":
		return MissionUnknown, nil
	case "MT_RACE":
		return MissionRush, nil
	case "MT_RESCUE":
		return MissionRescue, nil
	case "MT_RETRIEVAL":
		return MissionHijack, nil
	case "MT_SABOTAGE":
		return MissionSabotage, nil
	case "MT_SURVIVAL":
		return MissionSurvival, nil
	case "MT_TERRITORY":
		return MissionInterception, nil
	case "MT_VOID_CASCADE":
		return MissionVoidCascade, nil
	}
	return 0, fmt.Errorf("mission type: unknown code %q", code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Fissure tier
// ─────────────────────────────────────────────────────────────────────────────

// FissureTier is the relic era of a void fissure or void storm.
type FissureTier string

const (
	TierLith    FissureTier = "Lith"
	TierMeso    FissureTier = "Meso"
	TierNeo     FissureTier = "Neo"
	TierAxi     FissureTier = "Axi"
	TierRequiem FissureTier = "Requiem"
	TierOmnia   FissureTier = "Omnia"
)

// UnmarshalJSON decodes a VoidT1..VoidT6 code.
func (t *FissureTier) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	switch code {
	case "VoidT1":
		*t = TierLith
	case "VoidT2":
		*t = TierMeso
	case "VoidT3":
		*t = TierNeo
	case "VoidT4":
		*t = TierAxi
	case "VoidT5":
		*t = TierRequiem
	case "VoidT6":
		*t = TierOmnia
	default:
		return fmt.Errorf("fissure tier: unknown code %q", code)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Language
// ─────────────────────────────────────────────────────────────────────────────

// Language is a message language, encoded on the wire as a two-letter code.
type Language string

const (
	LangEnglish            Language = "English"
	LangFrench             Language = "French"
	LangItalian            Language = "Italian"
	LangGerman             Language = "German"
	LangSpanish            Language = "Spanish"
	LangPortuguese         Language = "Portuguese"
	LangRussian            Language = "Russian"
	LangPolish             Language = "Polish"
	LangUkrainian          Language = "Ukrainian"
	LangTurkish            Language = "Turkish"
	LangJapanese           Language = "Japanese"
	LangChineseSimplified  Language = "ChineseSimplified"
	LangKorean             Language = "Korean"
	LangChineseTraditional Language = "ChineseTraditional"
	LangThai               Language = "Thai"
)

// UnmarshalJSON decodes a language code such as "en".
func (l *Language) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	switch code {
	case "en":
		*l = LangEnglish
	case "fr":
		*l = LangFrench
	case "it":
		*l = LangItalian
	case "de":
		*l = LangGerman
	case "es":
		*l = LangSpanish
	case "pt":
		*l = LangPortuguese
	case "ru":
		*l = LangRussian
	case "pl":
		*l = LangPolish
	case "uk":
		*l = LangUkrainian
	case "tr":
		*l = LangTurkish
	case "ja":
		*l = LangJapanese
	case "zh":
		*l = LangChineseSimplified
	case "ko":
		*l = LangKorean
	case "tc":
		*l = LangChineseTraditional
	case "th":
		*l = LangThai
	default:
		return fmt.Errorf("language: unknown code %q", code)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Syndicate
// ─────────────────────────────────────────────────────────────────────────────

// SyndicateType identifies a syndicate. Nightwave seasons carry their
// season number in [SyndicateType.Season].
type SyndicateType struct {
	Kind   SyndicateKind
	Season int // only for SyndicateNightwave
}

// SyndicateKind is the closed set of syndicates.
type SyndicateKind uint8

const (
	SyndicateArbiters SyndicateKind = iota
	SyndicateNecraloid
	SyndicateEvent
	SyndicateCephalonSuda
	SyndicateKahl
	SyndicateNewLoka
	SyndicateNightcapJournal
	SyndicateQuills
	SyndicateRadioLegion
	SyndicateRadioLegion2
	SyndicateRadioLegion3
	SyndicatePerrin
	SyndicateVox
	SyndicateRedVeil
	SyndicateVentKids
	SyndicateSteelMeridian
	SyndicateCavia
	SyndicateHex
	SyndicateEntrati
	SyndicateOstrons
	SyndicateSolaris
	SyndicateZariman
	SyndicateNightwave
)

const nightwavePrefix, nightwaveSuffix = "RadioLegionIntermission", "Syndicate"

// ParseSyndicateType decodes a wire syndicate tag such as "CetusSyndicate"
// or "RadioLegionIntermission12Syndicate".
func ParseSyndicateType(tag string) (SyndicateType, error) {
	switch tag {
	case "ArbitersSyndicate":
		return SyndicateType{Kind: SyndicateArbiters}, nil
	case "NecraloidSyndicate":
		return SyndicateType{Kind: SyndicateNecraloid}, nil
	case "EventSyndicate":
		return SyndicateType{Kind: SyndicateEvent}, nil
	case "CephalonSudaSyndicate":
		return SyndicateType{Kind: SyndicateCephalonSuda}, nil
	case "KahlSyndicate":
		return SyndicateType{Kind: SyndicateKahl}, nil
	case "NewLokaSyndicate":
		return SyndicateType{Kind: SyndicateNewLoka}, nil
	case "NightcapJournalSyndicate":
		return SyndicateType{Kind: SyndicateNightcapJournal}, nil
	case "QuillsSyndicate":
		return SyndicateType{Kind: SyndicateQuills}, nil
	case "RadioLegionSyndicate":
		return SyndicateType{Kind: SyndicateRadioLegion}, nil
	case "RadioLegion2Syndicate":
		return SyndicateType{Kind: SyndicateRadioLegion2}, nil
	case "RadioLegion3Syndicate":
		return SyndicateType{Kind: SyndicateRadioLegion3}, nil
	case "PerrinSyndicate":
		return SyndicateType{Kind: SyndicatePerrin}, nil
	case "VoxSyndicate":
		return SyndicateType{Kind: SyndicateVox}, nil
	case "RedVeilSyndicate":
		return SyndicateType{Kind: SyndicateRedVeil}, nil
	case "VentKidsSyndicate":
		return SyndicateType{Kind: SyndicateVentKids}, nil
	case "SteelMeridianSyndicate":
		return SyndicateType{Kind: SyndicateSteelMeridian}, nil
	case "EntratiLabSyndicate":
		return SyndicateType{Kind: SyndicateCavia}, nil
	case "HexSyndicate":
		return SyndicateType{Kind: SyndicateHex}, nil
	case "EntratiSyndicate":
		return SyndicateType{Kind: SyndicateEntrati}, nil
	case "CetusSyndicate":
		return SyndicateType{Kind: SyndicateOstrons}, nil
	case "SolarisSyndicate":
		return SyndicateType{Kind: SyndicateSolaris}, nil
	case "ZarimanSyndicate":
		return SyndicateType{Kind: SyndicateZariman}, nil
	}
	if num, ok := strings.CutPrefix(tag, nightwavePrefix); ok {
		if num, ok = strings.CutSuffix(num, nightwaveSuffix); ok {
			season, err := strconv.Atoi(num)
			if err == nil && season >= 0 {
				return SyndicateType{Kind: SyndicateNightwave, Season: season}, nil
			}
		}
	}
	return SyndicateType{}, fmt.Errorf("syndicate: unknown tag %q", tag)
}

func (s SyndicateType) String() string {
	switch s.Kind {
	case SyndicateArbiters:
		return "Arbiters"
	case SyndicateNecraloid:
		return "Necraloid"
	case SyndicateEvent:
		return "Event"
	case SyndicateCephalonSuda:
		return "Cephalon Suda"
	case SyndicateKahl:
		return "Kahl"
	case SyndicateNewLoka:
		return "NewLoka"
	case SyndicateNightcapJournal:
		return "Nightcap Journal"
	case SyndicateQuills:
		return "Quills"
	case SyndicateRadioLegion:
		return "Radio Legion"
	case SyndicateRadioLegion2:
		return "Radio Legion 2"
	case SyndicateRadioLegion3:
		return "Radio Legion 3"
	case SyndicatePerrin:
		return "Perrin"
	case SyndicateVox:
		return "Vox"
	case SyndicateRedVeil:
		return "Red Veil"
	case SyndicateVentKids:
		return "Vent Kids"
	case SyndicateSteelMeridian:
		return "Steel Meridian"
	case SyndicateCavia:
		return "Cavia"
	case SyndicateHex:
		return "Hex"
	case SyndicateEntrati:
		return "Entrati"
	case SyndicateOstrons:
		return "Ostrons"
	case SyndicateSolaris:
		return "Solaris United"
	case SyndicateZariman:
		return "Zariman"
	case SyndicateNightwave:
		return "Nightwave Season " + strconv.Itoa(s.Season)
	}
	return "Syndicate(" + strconv.Itoa(int(s.Kind)) + ")"
}

// MarshalJSON writes the display name.
func (s SyndicateType) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// UnmarshalJSON decodes a wire tag via [ParseSyndicateType].
func (s *SyndicateType) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	v, err := ParseSyndicateType(tag)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
