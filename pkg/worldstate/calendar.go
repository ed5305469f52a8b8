package worldstate

import (
	"encoding/json"
	"fmt"
	"time"
)

// calendarYear is the in-game year of the 1999 calendar.
const calendarYear = 1999

// RawCalendar is one KnownCalendarSeasons entry.
type RawCalendar struct {
	Activation    Date             `json:"Activation"`
	Expiry        Date             `json:"Expiry"`
	Days          []RawCalendarDay `json:"Days"`
	Season        CalendarSeason   `json:"Season"`
	YearIteration int              `json:"YearIteration"`
	Version       int              `json:"Version"`
}

func (c *RawCalendar) UnmarshalJSON(data []byte) error {
	type plain RawCalendar
	return decodeObject(data, (*plain)(c), "calendar", "Activation", "Expiry", "Days", "Season", "YearIteration", "Version")
}

// CalendarSeason is a season of the 1999 calendar.
type CalendarSeason string

const (
	SeasonSummer CalendarSeason = "Summer"
	SeasonWinter CalendarSeason = "Winter"
	SeasonSpring CalendarSeason = "Spring"
	SeasonFall   CalendarSeason = "Fall"
)

// UnmarshalJSON decodes a CST_* code.
func (s *CalendarSeason) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	switch code {
	case "CST_SUMMER":
		*s = SeasonSummer
	case "CST_WINTER":
		*s = SeasonWinter
	case "CST_SPRING":
		*s = SeasonSpring
	case "CST_FALL":
		*s = SeasonFall
	default:
		return fmt.Errorf("calendar season: unknown code %q", code)
	}
	return nil
}

// RawCalendarDay is a day of the calendar with its events.
type RawCalendarDay struct {
	Day    int                `json:"day"`
	Events []RawCalendarEvent `json:"events"`
}

// calendarEventKind is the "type" tag of a calendar event.
type calendarEventKind uint8

const (
	eventChallenge calendarEventKind = iota + 1
	eventReward
	eventUpgrade
)

// RawCalendarEvent is an internally tagged calendar event.
type RawCalendarEvent struct {
	kind      calendarEventKind
	Challenge LanguageItemWithDescPath
	Reward    CalendarRewardPath
	Upgrade   LanguageItemWithDescPath
}

// UnmarshalJSON dispatches on the "type" tag.
func (e *RawCalendarEvent) UnmarshalJSON(data []byte) error {
	var w struct {
		Type      string                    `json:"type"`
		Challenge *LanguageItemWithDescPath `json:"challenge"`
		Reward    *CalendarRewardPath       `json:"reward"`
		Upgrade   *LanguageItemWithDescPath `json:"upgrade"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return parseErr("calendar event", err)
	}
	missing := func(field string) error {
		return &ParseError{Field: "calendar event." + field, Err: errMissingField}
	}
	switch w.Type {
	case "CET_CHALLENGE":
		if w.Challenge == nil {
			return missing("challenge")
		}
		*e = RawCalendarEvent{kind: eventChallenge, Challenge: *w.Challenge}
	case "CET_REWARD":
		if w.Reward == nil {
			return missing("reward")
		}
		*e = RawCalendarEvent{kind: eventReward, Reward: *w.Reward}
	case "CET_UPGRADE":
		if w.Upgrade == nil {
			return missing("upgrade")
		}
		*e = RawCalendarEvent{kind: eventUpgrade, Upgrade: *w.Upgrade}
	default:
		return &ParseError{Field: "calendar event.type", Err: fmt.Errorf("unknown tag %q", w.Type)}
	}
	return nil
}

// Calendar is the resolved 1999 calendar season.
type Calendar struct {
	Activation    time.Time      `json:"activation"`
	Expiry        time.Time      `json:"expiry"`
	Days          []CalendarDay  `json:"days"`
	Season        CalendarSeason `json:"season"`
	YearIteration int            `json:"yearIteration"`
	Version       int            `json:"version"`
}

// CalendarDay is a resolved calendar day. Day is nil when the day-of-year
// is not a valid date in 1999. The event's fields are written next to day:
// {"day":...,"challenge":{...}}, {"day":...,"rewards":[...]} or
// {"day":...,"upgrades":[...]}; a day without an event has only "day".
type CalendarDay struct {
	Day   *time.Time
	Event *CalendarEvent
}

// MarshalJSON implements [json.Marshaler].
func (d CalendarDay) MarshalJSON() ([]byte, error) {
	type flat struct {
		Day *time.Time `json:"day"`
		*CalendarEvent
	}
	return json.Marshal(flat{Day: d.Day, CalendarEvent: d.Event})
}

// CalendarEvent holds exactly one of a challenge, two rewards to choose
// from, or three upgrades to choose from.
type CalendarEvent struct {
	Challenge *DisplayInfo  `json:"challenge,omitempty"`
	Rewards   []string      `json:"rewards,omitempty"`
	Upgrades  []DisplayInfo `json:"upgrades,omitempty"`
}

func (c RawCalendar) Resolve(ctx *Context) Calendar {
	return Calendar{
		Activation:    c.Activation.Time,
		Expiry:        c.Expiry.Time,
		Days:          resolveAll(c.Days, ctx, RawCalendarDay.Resolve),
		Season:        c.Season,
		YearIteration: c.YearIteration,
		Version:       c.Version,
	}
}

// Resolve maps the day-of-year onto a date and collapses the events. The
// kind of the first event decides the shape: a challenge keeps only the
// first event; rewards need exactly two events and upgrades exactly three,
// all of the same kind. Anything else gives no event.
func (d RawCalendarDay) Resolve(ctx *Context) CalendarDay {
	return CalendarDay{Day: dayOfYear(d.Day), Event: d.event(ctx)}
}

func (d RawCalendarDay) event(ctx *Context) *CalendarEvent {
	if len(d.Events) == 0 {
		return nil
	}
	kind := d.Events[0].kind
	for _, e := range d.Events {
		if kind != eventChallenge && e.kind != kind {
			return nil
		}
	}
	switch kind {
	case eventChallenge:
		info := d.Events[0].Challenge.Resolve(ctx)
		return &CalendarEvent{Challenge: &info}
	case eventReward:
		if len(d.Events) != 2 {
			return nil
		}
		return &CalendarEvent{Rewards: resolveAll(d.Events, ctx, func(e RawCalendarEvent, ctx *Context) string {
			return e.Reward.Resolve(ctx)
		})}
	case eventUpgrade:
		if len(d.Events) != 3 {
			return nil
		}
		return &CalendarEvent{Upgrades: resolveAll(d.Events, ctx, func(e RawCalendarEvent, ctx *Context) DisplayInfo {
			return e.Upgrade.Resolve(ctx)
		})}
	}
	return nil
}

// dayOfYear returns midnight UTC of the given ordinal day in 1999, or nil
// when day is outside 1..365.
func dayOfYear(day int) *time.Time {
	start := time.Date(calendarYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	t := start.AddDate(0, 0, day-1)
	if day < 1 || t.Year() != calendarYear {
		return nil
	}
	return &t
}
