package worldstate

import "time"

// RawCountedItem is an item with a stack count.
type RawCountedItem struct {
	ItemType  LanguageItemPath `json:"ItemType"`
	ItemCount int              `json:"ItemCount"`
}

func (c *RawCountedItem) UnmarshalJSON(data []byte) error {
	type plain RawCountedItem
	return decodeObject(data, (*plain)(c), "counted item", "ItemType", "ItemCount")
}

// CountedItem is a resolved item with a stack count.
type CountedItem struct {
	ItemType  string `json:"itemType"`
	ItemCount int    `json:"itemCount"`
}

func (c RawCountedItem) Resolve(ctx *Context) CountedItem {
	return CountedItem{ItemType: c.ItemType.Resolve(ctx), ItemCount: c.ItemCount}
}

// RawAlert is an alert mission.
type RawAlert struct {
	ID          ObjectID        `json:"_id"`
	Activation  Date            `json:"Activation"`
	Expiry      Date            `json:"Expiry"`
	MissionInfo RawAlertMission `json:"MissionInfo"`
	Tag         string          `json:"Tag"`
	Icon        *string         `json:"Icon"`
}

func (a *RawAlert) UnmarshalJSON(data []byte) error {
	type plain RawAlert
	return decodeObject(data, (*plain)(a), "alert", "_id", "Activation", "Expiry", "MissionInfo", "Tag")
}

// RawAlertMission is the camelCase mission block of an alert.
type RawAlertMission struct {
	MissionType          MissionType       `json:"missionType"`
	Faction              Faction           `json:"faction"`
	Location             SolNode           `json:"location"`
	LevelOverride        *LastSegmentPath  `json:"levelOverride"`
	EnemySpec            *LastSegmentPath  `json:"enemySpec"`
	ExtraEnemySpec       *LastSegmentPath  `json:"extraEnemySpec"`
	MinEnemyLevel        int               `json:"minEnemyLevel"`
	MaxEnemyLevel        int               `json:"maxEnemyLevel"`
	Difficulty           float64           `json:"difficulty"`
	Seed                 int64             `json:"seed"`
	MissionReward        RawMissionReward  `json:"missionReward"`
	DescText             LanguageItemPath  `json:"descText"`
	QuestReq             *LanguageItemPath `json:"questReq"`
	LeadersAlwaysAllowed *bool             `json:"leadersAlwaysAllowed"`
}

func (m *RawAlertMission) UnmarshalJSON(data []byte) error {
	type plain RawAlertMission
	return decodeObject(data, (*plain)(m), "alert mission",
		"missionType", "faction", "location", "minEnemyLevel", "maxEnemyLevel", "descText")
}

// RawMissionReward is the reward block of an alert.
type RawMissionReward struct {
	Credits      *int               `json:"credits"`
	Items        []LanguageItemPath `json:"items"`
	CountedItems []RawCountedItem   `json:"countedItems"`
}

// Alert is a resolved alert.
type Alert struct {
	ID          string       `json:"id"`
	Activation  time.Time    `json:"activation"`
	Expiry      time.Time    `json:"expiry"`
	MissionInfo AlertMission `json:"missionInfo"`
	Tag         string       `json:"tag"`
	Icon        *string      `json:"icon"`
}

// AlertMission is the resolved mission block of an alert.
type AlertMission struct {
	MissionType          MissionType   `json:"missionType"`
	Faction              Faction       `json:"faction"`
	Node                 *Node         `json:"node"`
	LevelOverride        *string       `json:"levelOverride"`
	EnemySpec            *string       `json:"enemySpec"`
	ExtraEnemySpec       *string       `json:"extraEnemySpec"`
	MinEnemyLevel        int           `json:"minEnemyLevel"`
	MaxEnemyLevel        int           `json:"maxEnemyLevel"`
	Difficulty           float64       `json:"difficulty"`
	Seed                 int64         `json:"seed"`
	MissionReward        MissionReward `json:"missionReward"`
	DescText             string        `json:"descText"`
	QuestReq             *string       `json:"questReq"`
	LeadersAlwaysAllowed *bool         `json:"leadersAlwaysAllowed"`
}

// MissionReward is the resolved reward block of an alert.
type MissionReward struct {
	Credits      *int          `json:"credits"`
	Items        []string      `json:"items"`
	CountedItems []CountedItem `json:"countedItems"`
}

func (a RawAlert) Resolve(ctx *Context) Alert {
	return Alert{
		ID:          string(a.ID),
		Activation:  a.Activation.Time,
		Expiry:      a.Expiry.Time,
		MissionInfo: a.MissionInfo.Resolve(ctx),
		Tag:         a.Tag,
		Icon:        a.Icon,
	}
}

func (m RawAlertMission) Resolve(ctx *Context) AlertMission {
	return AlertMission{
		MissionType:          m.MissionType,
		Faction:              m.Faction,
		Node:                 m.Location.Resolve(ctx),
		LevelOverride:        resolveOpt(m.LevelOverride, ctx, LastSegmentPath.Resolve),
		EnemySpec:            resolveOpt(m.EnemySpec, ctx, LastSegmentPath.Resolve),
		ExtraEnemySpec:       resolveOpt(m.ExtraEnemySpec, ctx, LastSegmentPath.Resolve),
		MinEnemyLevel:        m.MinEnemyLevel,
		MaxEnemyLevel:        m.MaxEnemyLevel,
		Difficulty:           m.Difficulty,
		Seed:                 m.Seed,
		MissionReward:        m.MissionReward.Resolve(ctx),
		DescText:             m.DescText.Resolve(ctx),
		QuestReq:             resolveOpt(m.QuestReq, ctx, LanguageItemPath.Resolve),
		LeadersAlwaysAllowed: m.LeadersAlwaysAllowed,
	}
}

func (r RawMissionReward) Resolve(ctx *Context) MissionReward {
	return MissionReward{
		Credits:      r.Credits,
		Items:        resolveAll(r.Items, ctx, LanguageItemPath.Resolve),
		CountedItems: resolveAll(r.CountedItems, ctx, RawCountedItem.Resolve),
	}
}
