package worldstate

import "time"

// RawGoal is a community goal or event objective.
type RawGoal struct {
	ID          ObjectID          `json:"_id"`
	Activation  Date              `json:"Activation"`
	Expiry      Date              `json:"Expiry"`
	GracePeriod *Date             `json:"GracePeriod"`
	Count       int               `json:"Count"`
	Goal        int               `json:"Goal"`
	Success     *int              `json:"Success"`
	Personal    bool              `json:"Personal"`
	Desc        LanguageItemPath  `json:"Desc"`
	ToolTip     *LanguageItemPath `json:"ToolTip"`
	Icon        *string           `json:"Icon"`
	Tag         string            `json:"Tag"`
	Node        *SolNode          `json:"Node"`
}

func (g *RawGoal) UnmarshalJSON(data []byte) error {
	type plain RawGoal
	return decodeObject(data, (*plain)(g), "goal", "_id", "Activation", "Expiry", "Desc", "Tag")
}

// Goal is a resolved goal.
type Goal struct {
	ID          string     `json:"id"`
	Activation  time.Time  `json:"activation"`
	Expiry      time.Time  `json:"expiry"`
	GracePeriod *time.Time `json:"gracePeriod"`
	Count       int        `json:"count"`
	Goal        int        `json:"goal"`
	Success     *int       `json:"success"`
	Personal    bool       `json:"personal"`
	Desc        string     `json:"desc"`
	ToolTip     *string    `json:"toolTip"`
	Icon        *string    `json:"icon"`
	Tag         string     `json:"tag"`
	Node        *Node      `json:"node"`
}

func (g RawGoal) Resolve(ctx *Context) Goal {
	out := Goal{
		ID:          string(g.ID),
		Activation:  g.Activation.Time,
		Expiry:      g.Expiry.Time,
		GracePeriod: optTime(g.GracePeriod),
		Count:       g.Count,
		Goal:        g.Goal,
		Success:     g.Success,
		Personal:    g.Personal,
		Desc:        g.Desc.Resolve(ctx),
		ToolTip:     resolveOpt(g.ToolTip, ctx, LanguageItemPath.Resolve),
		Icon:        g.Icon,
		Tag:         g.Tag,
	}
	if g.Node != nil {
		out.Node = g.Node.Resolve(ctx)
	}
	return out
}
