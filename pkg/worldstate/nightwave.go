package worldstate

import (
	"strings"
	"time"
)

// RawNightwave is the SeasonInfo block.
type RawNightwave struct {
	Activation       Date                    `json:"Activation"`
	Expiry           Date                    `json:"Expiry"`
	AffiliationTag   string                  `json:"AffiliationTag"`
	Season           int                     `json:"Season"`
	Phase            int                     `json:"Phase"`
	Params           string                  `json:"Params"`
	ActiveChallenges []RawNightwaveChallenge `json:"ActiveChallenges"`
}

func (n *RawNightwave) UnmarshalJSON(data []byte) error {
	type plain RawNightwave
	return decodeObject(data, (*plain)(n), "nightwave",
		"Activation", "Expiry", "AffiliationTag", "Season", "Phase", "Params", "ActiveChallenges")
}

// RawNightwaveChallenge is an active Nightwave act.
type RawNightwaveChallenge struct {
	ID         ObjectID                 `json:"_id"`
	Daily      bool                     `json:"Daily"`
	Activation Date                     `json:"Activation"`
	Expiry     Date                     `json:"Expiry"`
	Challenge  LanguageItemWithDescPath `json:"Challenge"`
}

func (c *RawNightwaveChallenge) UnmarshalJSON(data []byte) error {
	type plain RawNightwaveChallenge
	return decodeObject(data, (*plain)(c), "nightwave challenge", "_id", "Activation", "Expiry", "Challenge")
}

// ChallengeType is the Nightwave act tier.
type ChallengeType string

const (
	ChallengeDaily  ChallengeType = "Daily"
	ChallengeWeekly ChallengeType = "Weekly"
	ChallengeElite  ChallengeType = "Elite"
)

// StandingAwarded is the standing an act of this tier grants.
func (t ChallengeType) StandingAwarded() int {
	switch t {
	case ChallengeDaily:
		return 1000
	case ChallengeWeekly:
		return 4500
	case ChallengeElite:
		return 7000
	}
	return 0
}

// challengeTypeFromPath classifies a challenge by its path. "WeeklyHard/"
// is checked before "Weekly/".
func challengeTypeFromPath(path string) (ChallengeType, bool) {
	switch {
	case strings.Contains(path, "WeeklyHard/"):
		return ChallengeElite, true
	case strings.Contains(path, "Weekly/"):
		return ChallengeWeekly, true
	case strings.Contains(path, "Daily/"):
		return ChallengeDaily, true
	}
	return "", false
}

// Nightwave is the resolved Nightwave season.
type Nightwave struct {
	Activation       time.Time            `json:"activation"`
	Expiry           time.Time            `json:"expiry"`
	AffiliationTag   string               `json:"affiliationTag"`
	Season           int                  `json:"season"`
	Phase            int                  `json:"phase"`
	Params           string               `json:"params"`
	ActiveChallenges []NightwaveChallenge `json:"activeChallenges"`
}

// NightwaveChallenge is a resolved Nightwave act. ChallengeType and
// StandingAwarded are nil for paths that match no known tier.
type NightwaveChallenge struct {
	ID              string         `json:"id"`
	IsDaily         bool           `json:"isDaily"`
	Activation      time.Time      `json:"activation"`
	Expiry          time.Time      `json:"expiry"`
	ChallengeType   *ChallengeType `json:"challengeType"`
	StandingAwarded *int           `json:"standingAwarded"`
	Title           string         `json:"title"`
	Description     *string        `json:"description"`
}

func (n RawNightwave) Resolve(ctx *Context) Nightwave {
	return Nightwave{
		Activation:       n.Activation.Time,
		Expiry:           n.Expiry.Time,
		AffiliationTag:   n.AffiliationTag,
		Season:           n.Season,
		Phase:            n.Phase,
		Params:           n.Params,
		ActiveChallenges: resolveAll(n.ActiveChallenges, ctx, RawNightwaveChallenge.Resolve),
	}
}

func (c RawNightwaveChallenge) Resolve(ctx *Context) NightwaveChallenge {
	info := c.Challenge.Resolve(ctx)
	out := NightwaveChallenge{
		ID:          string(c.ID),
		IsDaily:     c.Daily,
		Activation:  c.Activation.Time,
		Expiry:      c.Expiry.Time,
		Title:       info.Title,
		Description: info.Description,
	}
	if t, ok := challengeTypeFromPath(c.Challenge.Raw()); ok {
		standing := t.StandingAwarded()
		out.ChallengeType, out.StandingAwarded = &t, &standing
	}
	return out
}
