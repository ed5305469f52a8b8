package worldstate

import (
	"context"
	"encoding/json"
	"errors"
)

// RawWorldState is the structurally parsed wire document. Every key is
// required; an empty collection must be sent as [].
type RawWorldState struct {
	Events               []RawEvent            `json:"Events"`
	Fissures             []RawFissure          `json:"ActiveMissions"`
	Alerts               []RawAlert            `json:"Alerts"`
	Sorties              []RawSortie           `json:"Sorties"`
	Goals                []RawGoal             `json:"Goals"`
	ArchonHunts          []RawArchonHunt       `json:"LiteSorties"`
	SyndicateMissions    []RawSyndicateMission `json:"SyndicateMissions"`
	FlashSales           []RawFlashSale        `json:"FlashSales"`
	Invasions            []RawInvasion         `json:"Invasions"`
	VoidTraders          []RawVoidTrader       `json:"VoidTraders"`
	PrimeVaultTraders    []RawVaultTrader      `json:"PrimeVaultTraders"`
	VoidStorms           []RawVoidStorm        `json:"VoidStorms"`
	DailyDeals           []RawDailyDeal        `json:"DailyDeals"`
	EndlessXpChoices     []RawCircuitChoice    `json:"EndlessXpChoices"`
	SeasonInfo           RawNightwave          `json:"SeasonInfo"`
	KnownCalendarSeasons []RawCalendar         `json:"KnownCalendarSeasons"`
	Conquests            []RawArchimedea       `json:"Conquests"`
}

var topLevelKeys = []string{
	"Events", "ActiveMissions", "Alerts", "Sorties", "Goals", "LiteSorties",
	"SyndicateMissions", "FlashSales", "Invasions", "VoidTraders",
	"PrimeVaultTraders", "VoidStorms", "DailyDeals", "EndlessXpChoices",
	"SeasonInfo", "KnownCalendarSeasons", "Conquests",
}

// ParseRaw decodes the wire document. Every failure is a *ParseError.
func ParseRaw(data []byte) (*RawWorldState, error) {
	var raw RawWorldState
	if err := decodeObject(data, &raw, "worldstate", topLevelKeys...); err != nil {
		return nil, err
	}
	return &raw, nil
}

// WorldState is a fully resolved snapshot. It is never mutated after
// [RawWorldState.Resolve] returns it.
type WorldState struct {
	Events            []Event            `json:"events"`
	Fissures          []Fissure          `json:"fissures"`
	Alerts            []Alert            `json:"alerts"`
	Sorties           []Sortie           `json:"sorties"`
	Goals             []Goal             `json:"goals"`
	ArchonHunt        []ArchonHunt       `json:"archonHunt"`
	SyndicateMissions []SyndicateMission `json:"syndicateMissions"`
	FlashSales        []FlashSale        `json:"flashSales"`
	Invasions         []Invasion         `json:"invasions"`
	VoidTrader        *VoidTraderState   `json:"voidTrader"`
	VaultTrader       *VaultTrader       `json:"vaultTrader"`
	VoidStorms        []VoidStorm        `json:"voidStorms"`
	DailyDeals        []DailyDeal        `json:"dailyDeals"`
	Circuit           Circuit            `json:"circuit"`
	Nightwave         Nightwave          `json:"nightwave"`
	Calendar          *Calendar          `json:"calendar"`
	Archimedea        Archimedeas        `json:"archimedea"`
}

// Resolve maps every collection against ctx. The at-most-one collections
// (void trader, vault trader, calendar) keep only their first element.
//
// The only possible error is a *MissingVariantError for the circuit.
func (r *RawWorldState) Resolve(ctx *Context) (*WorldState, error) {
	circuit, err := resolveCircuit(r.EndlessXpChoices, ctx)
	if err != nil {
		return nil, err
	}
	return &WorldState{
		Events:            resolveAll(r.Events, ctx, RawEvent.Resolve),
		Fissures:          resolveAll(r.Fissures, ctx, RawFissure.Resolve),
		Alerts:            resolveAll(r.Alerts, ctx, RawAlert.Resolve),
		Sorties:           resolveAll(r.Sorties, ctx, RawSortie.Resolve),
		Goals:             resolveAll(r.Goals, ctx, RawGoal.Resolve),
		ArchonHunt:        resolveAll(r.ArchonHunts, ctx, RawArchonHunt.Resolve),
		SyndicateMissions: resolveAll(r.SyndicateMissions, ctx, RawSyndicateMission.Resolve),
		FlashSales:        resolveAll(r.FlashSales, ctx, RawFlashSale.Resolve),
		Invasions:         resolveAll(r.Invasions, ctx, RawInvasion.Resolve),
		VoidTrader:        first(r.VoidTraders, ctx, RawVoidTrader.Resolve),
		VaultTrader:       first(r.PrimeVaultTraders, ctx, RawVaultTrader.Resolve),
		VoidStorms:        resolveAll(r.VoidStorms, ctx, RawVoidStorm.Resolve),
		DailyDeals:        resolveAll(r.DailyDeals, ctx, RawDailyDeal.Resolve),
		Circuit:           circuit,
		Nightwave:         r.SeasonInfo.Resolve(ctx),
		Calendar:          first(r.KnownCalendarSeasons, ctx, RawCalendar.Resolve),
		Archimedea:        resolveArchimedeas(r.Conquests, ctx),
	}, nil
}

// Parse decodes data and resolves it against ctx.
func Parse(data []byte, ctx *Context) (*WorldState, error) {
	raw, err := ParseRaw(data)
	if err != nil {
		return nil, err
	}
	return raw.Resolve(ctx)
}

// FromProvider obtains a Context from p and resolves data against it.
// Provider failures are wrapped in a *ProviderError.
func FromProvider(ctx context.Context, data []byte, p ContextProvider) (*WorldState, error) {
	raw, err := ParseRaw(data)
	if err != nil {
		return nil, err
	}
	wctx, err := p.Context(ctx)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, &ProviderError{Op: "context", Err: err}
	}
	return raw.Resolve(wctx)
}

// Sections lists the JSON keys of a WorldState in document order.
var Sections = []string{
	"events", "fissures", "alerts", "sorties", "goals", "archonHunt",
	"syndicateMissions", "flashSales", "invasions", "voidTrader",
	"vaultTrader", "voidStorms", "dailyDeals", "circuit", "nightwave",
	"calendar", "archimedea",
}

// Section returns the value stored under the JSON key name.
func (w *WorldState) Section(name string) (any, bool) {
	switch name {
	case "events":
		return w.Events, true
	case "fissures":
		return w.Fissures, true
	case "alerts":
		return w.Alerts, true
	case "sorties":
		return w.Sorties, true
	case "goals":
		return w.Goals, true
	case "archonHunt":
		return w.ArchonHunt, true
	case "syndicateMissions":
		return w.SyndicateMissions, true
	case "flashSales":
		return w.FlashSales, true
	case "invasions":
		return w.Invasions, true
	case "voidTrader":
		return w.VoidTrader, true
	case "vaultTrader":
		return w.VaultTrader, true
	case "voidStorms":
		return w.VoidStorms, true
	case "dailyDeals":
		return w.DailyDeals, true
	case "circuit":
		return w.Circuit, true
	case "nightwave":
		return w.Nightwave, true
	case "calendar":
		return w.Calendar, true
	case "archimedea":
		return w.Archimedea, true
	}
	return nil, false
}

// MarshalIndent is a convenience for CLI output.
func (w *WorldState) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(w, "", "  ")
}
