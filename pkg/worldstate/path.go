package worldstate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Resolver is implemented by the zero-sized strategy types. The strategy
// type alone selects which algorithm runs for a [Path]; the method is
// unexported so the set of strategies is closed to this package.
type Resolver[T any] interface {
	resolve(raw string, ctx *Context) T
}

// Path is an opaque identifier from the wire document tagged at compile
// time with the strategy S that resolves it to a T.
//
// The tag never appears on the wire: a Path marshals and unmarshals as the
// plain JSON string it was read from.
type Path[S Resolver[T], T any] struct {
	raw string
}

// Resolve runs the strategy S against ctx. Strategies that need no lookup
// table accept a nil ctx.
func (p Path[S, T]) Resolve(ctx *Context) T {
	var s S
	return s.resolve(p.raw, ctx)
}

// Raw returns the identifier exactly as it appeared on the wire.
func (p Path[S, T]) Raw() string { return p.raw }

func (p Path[S, T]) String() string { return p.raw }

// LastSegment returns the part after the final '/'. A string without any
// '/' is its own last segment.
func (p Path[S, T]) LastSegment() string { return lastSegment(p.raw) }

// MarshalJSON implements [json.Marshaler].
func (p Path[S, T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.raw)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (p *Path[S, T]) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("path: %w", err)
	}
	p.raw = s
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tagged path aliases
// ─────────────────────────────────────────────────────────────────────────────

type (
	// LanguageItemPath resolves through the language table.
	LanguageItemPath = Path[LanguageItems, string]

	// LanguageItemWithDescPath resolves to a title plus optional description.
	LanguageItemWithDescPath = Path[LanguageItemWithDesc, DisplayInfo]

	// LastSegmentPath title-cases its final segment.
	LastSegmentPath = Path[LastSegment, string]

	// PrimePartPath demangles a prime weapon or part name.
	PrimePartPath = Path[PrimePart, string]

	// VaultTraderItemPath dispatches on the kind of vault trader item.
	VaultTraderItemPath = Path[VaultTraderItem, string]

	// CalendarRewardPath resolves a 1999 calendar reward.
	CalendarRewardPath = Path[CalendarReward, string]

	// TitleCaseString title-cases the whole string.
	TitleCaseString = Path[TitleCase, string]

	// ModifierKey is a sortie modifier code such as SORTIE_MODIFIER_HAZARD_FOG.
	ModifierKey = Path[SortieModifier, string]

	// BossKey is a sortie boss code such as SORTIE_BOSS_HYENA.
	BossKey = Path[SortieBoss, *Boss]

	// HubKey is a relay node id.
	HubKey = Path[Hubs, string]

	// SolNode is a star chart node id such as SolNode123.
	SolNode = Path[NodeLookup, *Node]
)

// lastSegment returns s after its final '/'.
func lastSegment(s string) string {
	return s[strings.LastIndexByte(s, '/')+1:]
}
