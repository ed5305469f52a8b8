package worldstate

import (
	"encoding/json"
	"time"
)

// RawSyndicateMission is one entry of SyndicateMissions. Depending on the
// syndicate it carries bounty Jobs, a list of Nodes, or neither.
type RawSyndicateMission struct {
	ID         ObjectID      `json:"_id"`
	Activation Date          `json:"Activation"`
	Expiry     Date          `json:"Expiry"`
	Seed       int64         `json:"Seed"`
	Tag        SyndicateType `json:"Tag"`
	Nodes      []SolNode     `json:"Nodes"`
	Jobs       []RawJob      `json:"Jobs"`
}

func (s *RawSyndicateMission) UnmarshalJSON(data []byte) error {
	type plain RawSyndicateMission
	return decodeObject(data, (*plain)(s), "syndicate mission", "_id", "Activation", "Expiry", "Seed", "Tag")
}

// RawJob is a bounty.
type RawJob struct {
	JobType       *LanguageItemPath `json:"jobType"`
	Rewards       RewardPath        `json:"rewards"`
	MasteryReq    int               `json:"masteryReq"`
	MinEnemyLevel int               `json:"minEnemyLevel"`
	MaxEnemyLevel int               `json:"maxEnemyLevel"`
	XPAmounts     []int             `json:"xpAmounts"`
	Endless       bool              `json:"endless"`
	LocationTag   *string           `json:"locationTag"`
	IsVault       bool              `json:"isVault"`
}

func (j *RawJob) UnmarshalJSON(data []byte) error {
	type plain RawJob
	return decodeObject(data, (*plain)(j), "job", "rewards", "masteryReq", "minEnemyLevel", "maxEnemyLevel", "xpAmounts")
}

// SyndicateMission is a resolved syndicate entry.
type SyndicateMission struct {
	ID            string            `json:"id"`
	Activation    time.Time         `json:"activation"`
	Expiry        time.Time         `json:"expiry"`
	Seed          int64             `json:"seed"`
	SyndicateType SyndicateType     `json:"syndicateType"`
	Details       *SyndicateDetails `json:"details"`
}

// SyndicateDetails is either a bounty list or a node list. It serializes
// as {"type":"bounties","data":[...]} or {"type":"nodes","data":[...]}.
type SyndicateDetails struct {
	Bounties []Job
	Nodes    []*Node
}

// MarshalJSON implements [json.Marshaler].
func (d SyndicateDetails) MarshalJSON() ([]byte, error) {
	type tagged struct {
		Type string `json:"type"`
		Data any    `json:"data"`
	}
	if d.Bounties != nil {
		return json.Marshal(tagged{Type: "bounties", Data: d.Bounties})
	}
	return json.Marshal(tagged{Type: "nodes", Data: orEmpty(d.Nodes)})
}

// Job is a resolved bounty. Rewards is empty when the reward table could
// not be matched.
type Job struct {
	JobType       *string    `json:"jobType"`
	Rewards       []DropItem `json:"rewards"`
	MasteryReq    int        `json:"masteryReq"`
	MinEnemyLevel int        `json:"minEnemyLevel"`
	MaxEnemyLevel int        `json:"maxEnemyLevel"`
	XPAmounts     []int      `json:"xpAmounts"`
	Endless       bool       `json:"endless"`
	LocationTag   *string    `json:"locationTag"`
	IsVault       bool       `json:"isVault"`
}

// Resolve picks the details variant in a fixed order: a non-empty Jobs
// list means bounties; otherwise an empty Nodes list means no details;
// otherwise the nodes.
func (s RawSyndicateMission) Resolve(ctx *Context) SyndicateMission {
	out := SyndicateMission{
		ID:            string(s.ID),
		Activation:    s.Activation.Time,
		Expiry:        s.Expiry.Time,
		Seed:          s.Seed,
		SyndicateType: s.Tag,
	}
	switch {
	case len(s.Jobs) > 0:
		jobs := resolveAll(s.Jobs, ctx, func(j RawJob, ctx *Context) Job {
			return j.Resolve(ctx, s.Tag)
		})
		out.Details = &SyndicateDetails{Bounties: jobs}
	case len(s.Nodes) == 0:
	default:
		out.Details = &SyndicateDetails{Nodes: resolveAll(s.Nodes, ctx, SolNode.Resolve)}
	}
	return out
}

// Resolve resolves a job of the given syndicate. The reward table lookup
// uses the job's level range and vault flag.
func (j RawJob) Resolve(ctx *Context, syndicate SyndicateType) Job {
	rewards, _ := j.Rewards.Resolve(ctx, RotationContext{
		Syndicate: syndicate,
		MinLevel:  j.MinEnemyLevel,
		MaxLevel:  j.MaxEnemyLevel,
		IsVault:   j.IsVault,
	})
	return Job{
		JobType:       resolveOpt(j.JobType, ctx, LanguageItemPath.Resolve),
		Rewards:       orEmpty(rewards),
		MasteryReq:    j.MasteryReq,
		MinEnemyLevel: j.MinEnemyLevel,
		MaxEnemyLevel: j.MaxEnemyLevel,
		XPAmounts:     orEmpty(j.XPAmounts),
		Endless:       j.Endless,
		LocationTag:   j.LocationTag,
		IsVault:       j.IsVault,
	}
}
