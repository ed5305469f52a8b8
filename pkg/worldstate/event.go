package worldstate

import "time"

// RawEvent is a news entry.
type RawEvent struct {
	ID                  ObjectID          `json:"_id"`
	Messages            []RawEventMessage `json:"Messages"`
	Prop                string            `json:"Prop"`
	Icon                *string           `json:"Icon"`
	Priority            bool              `json:"Priority"`
	MobileOnly          bool              `json:"MobileOnly"`
	Community           *bool             `json:"Community"`
	ImageURL            *string           `json:"ImageUrl"`
	Date                *Date             `json:"Date"`
	HideEndDateModifier *bool             `json:"HideEndDateModifier"`
	Links               []RawEventLink    `json:"Links"`
	EventEndDate        *Date             `json:"EventEndDate"`
}

func (e *RawEvent) UnmarshalJSON(data []byte) error {
	type plain RawEvent
	return decodeObject(data, (*plain)(e), "event", "_id", "Messages", "Prop")
}

// RawEventMessage is a localized event message.
type RawEventMessage struct {
	LanguageCode Language `json:"LanguageCode"`
	Message      string   `json:"Message"`
}

// RawEventLink is a localized event link.
type RawEventLink struct {
	LanguageCode Language `json:"LanguageCode"`
	Link         string   `json:"Link"`
}

// Event is a resolved news entry.
type Event struct {
	ID                  string         `json:"id"`
	Messages            []EventMessage `json:"messages"`
	Prop                string         `json:"prop"`
	Icon                *string        `json:"icon"`
	Priority            bool           `json:"priority"`
	MobileOnly          bool           `json:"mobileOnly"`
	Community           *bool          `json:"community"`
	ImageURL            *string        `json:"imageUrl"`
	Date                *time.Time     `json:"date"`
	HideEndDateModifier *bool          `json:"hideEndDateModifier"`
	Links               []EventLink    `json:"links"`
	EventEndDate        *time.Time     `json:"eventEndDate"`
}

// EventMessage is a message in one language.
type EventMessage struct {
	Language Language `json:"language"`
	Message  string   `json:"message"`
}

// EventLink is a link in one language.
type EventLink struct {
	Language Language `json:"language"`
	Link     string   `json:"link"`
}

func (e RawEvent) Resolve(ctx *Context) Event {
	return Event{
		ID:                  string(e.ID),
		Messages:            resolveAll(e.Messages, ctx, RawEventMessage.Resolve),
		Prop:                e.Prop,
		Icon:                e.Icon,
		Priority:            e.Priority,
		MobileOnly:          e.MobileOnly,
		Community:           e.Community,
		ImageURL:            e.ImageURL,
		Date:                optTime(e.Date),
		HideEndDateModifier: e.HideEndDateModifier,
		Links:               resolveAll(e.Links, ctx, RawEventLink.Resolve),
		EventEndDate:        optTime(e.EventEndDate),
	}
}

func (m RawEventMessage) Resolve(*Context) EventMessage {
	return EventMessage{Language: m.LanguageCode, Message: m.Message}
}

func (l RawEventLink) Resolve(*Context) EventLink {
	return EventLink{Language: l.LanguageCode, Link: l.Link}
}
