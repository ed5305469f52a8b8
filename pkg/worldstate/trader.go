package worldstate

import (
	"encoding/json"
	"errors"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Void trader (Baro Ki'Teer)
// ─────────────────────────────────────────────────────────────────────────────

// RawVoidTrader is either an arrived trader (with a Manifest) or a departed
// one announcing its next relay.
type RawVoidTrader struct {
	Arrived  *RawArrivedVoidTrader
	Departed *RawDepartedVoidTrader
}

// UnmarshalJSON tries the arrived shape first. A trader counts as arrived
// when the Manifest key is present.
func (v *RawVoidTrader) UnmarshalJSON(data []byte) error {
	var probe struct {
		Manifest json.RawMessage `json:"Manifest"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return parseErr("void trader", err)
	}
	if probe.Manifest != nil {
		var a RawArrivedVoidTrader
		if err := decodeObject(data, &a, "void trader", "_id", "Activation", "Expiry", "Node", "Character", "Manifest"); err != nil {
			return err
		}
		*v = RawVoidTrader{Arrived: &a}
		return nil
	}
	var d RawDepartedVoidTrader
	if err := decodeObject(data, &d, "void trader", "_id", "Activation", "Expiry", "Node", "Character"); err != nil {
		return err
	}
	*v = RawVoidTrader{Departed: &d}
	return nil
}

// RawArrivedVoidTrader is a trader currently at a relay.
type RawArrivedVoidTrader struct {
	ID         ObjectID          `json:"_id"`
	Activation Date              `json:"Activation"`
	Expiry     Date              `json:"Expiry"`
	Node       HubKey            `json:"Node"`
	Character  string            `json:"Character"`
	Manifest   []RawVoidShopItem `json:"Manifest"`
}

// RawDepartedVoidTrader is a trader between visits.
type RawDepartedVoidTrader struct {
	ID         ObjectID `json:"_id"`
	Activation Date     `json:"Activation"`
	Expiry     Date     `json:"Expiry"`
	Node       HubKey   `json:"Node"`
	Character  string   `json:"Character"`
}

// RawVoidShopItem is one item in the void trader's inventory.
type RawVoidShopItem struct {
	ItemType     LanguageItemPath `json:"ItemType"`
	PrimePrice   int              `json:"PrimePrice"`
	RegularPrice int              `json:"RegularPrice"`
	Limit        *int             `json:"Limit"`
}

func (s *RawVoidShopItem) UnmarshalJSON(data []byte) error {
	type plain RawVoidShopItem
	return decodeObject(data, (*plain)(s), "void shop item", "ItemType", "PrimePrice", "RegularPrice")
}

// VoidTraderState is the resolved void trader. Exactly one field is set;
// it serializes as that variant's object with no tag.
type VoidTraderState struct {
	Arrived  *ArrivedVoidTrader
	Departed *DepartedVoidTrader
}

// MarshalJSON implements [json.Marshaler].
func (s VoidTraderState) MarshalJSON() ([]byte, error) {
	if s.Arrived != nil {
		return json.Marshal(s.Arrived)
	}
	return json.Marshal(s.Departed)
}

// ArrivedVoidTrader is a trader at a relay.
type ArrivedVoidTrader struct {
	ID         string         `json:"id"`
	Activation time.Time      `json:"activation"`
	Expiry     time.Time      `json:"expiry"`
	Character  string         `json:"character"`
	Node       string         `json:"node"`
	Shop       []VoidShopItem `json:"shop"`
}

// DepartedVoidTrader is a trader between visits.
type DepartedVoidTrader struct {
	ID           string    `json:"id"`
	Activation   time.Time `json:"activation"`
	Expiry       time.Time `json:"expiry"`
	Character    string    `json:"character"`
	NextLocation string    `json:"nextLocation"`
}

// VoidShopItem is a resolved void trader item.
type VoidShopItem struct {
	ItemType     string `json:"itemType"`
	PrimePrice   int    `json:"primePrice"`
	RegularPrice int    `json:"regularPrice"`
	Limit        *int   `json:"limit"`
}

func (v RawVoidTrader) Resolve(ctx *Context) VoidTraderState {
	if a := v.Arrived; a != nil {
		return VoidTraderState{Arrived: &ArrivedVoidTrader{
			ID:         string(a.ID),
			Activation: a.Activation.Time,
			Expiry:     a.Expiry.Time,
			Character:  a.Character,
			Node:       a.Node.Resolve(ctx),
			Shop:       resolveAll(a.Manifest, ctx, RawVoidShopItem.Resolve),
		}}
	}
	d := v.Departed
	if d == nil {
		d = &RawDepartedVoidTrader{}
	}
	return VoidTraderState{Departed: &DepartedVoidTrader{
		ID:           string(d.ID),
		Activation:   d.Activation.Time,
		Expiry:       d.Expiry.Time,
		Character:    d.Character,
		NextLocation: d.Node.Resolve(ctx),
	}}
}

func (s RawVoidShopItem) Resolve(ctx *Context) VoidShopItem {
	return VoidShopItem{
		ItemType:     s.ItemType.Resolve(ctx),
		PrimePrice:   s.PrimePrice,
		RegularPrice: s.RegularPrice,
		Limit:        s.Limit,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Vault trader (Prime Resurgence)
// ─────────────────────────────────────────────────────────────────────────────

// RawVaultTrader is the Prime Resurgence event.
type RawVaultTrader struct {
	ID                ObjectID               `json:"_id"`
	Activation        Date                   `json:"Activation"`
	Expiry            Date                   `json:"Expiry"`
	InitialStartDate  Date                   `json:"InitialStartDate"`
	Node              HubKey                 `json:"Node"`
	Manifest          []RawVaultItem         `json:"Manifest"`
	EvergreenManifest []RawVaultItem         `json:"EvergreenManifest"`
	ScheduleInfo      []RawVaultScheduleInfo `json:"ScheduleInfo"`
}

func (v *RawVaultTrader) UnmarshalJSON(data []byte) error {
	type plain RawVaultTrader
	return decodeObject(data, (*plain)(v), "vault trader",
		"_id", "Activation", "Expiry", "InitialStartDate", "Node", "Manifest", "EvergreenManifest", "ScheduleInfo")
}

// RawVaultItem is a vault trader offer priced in either Regal Aya
// (PrimePrice) or Aya (RegularPrice).
type RawVaultItem struct {
	ItemType VaultTraderItemPath
	Price    Price
}

var errNoPrice = errors.New("neither PrimePrice nor RegularPrice is set")

// UnmarshalJSON reads the item path and whichever price key is present.
// PrimePrice wins when both are.
func (i *RawVaultItem) UnmarshalJSON(data []byte) error {
	var w struct {
		ItemType     VaultTraderItemPath `json:"ItemType"`
		PrimePrice   *int                `json:"PrimePrice"`
		RegularPrice *int                `json:"RegularPrice"`
	}
	if err := decodeObject(data, &w, "vault item", "ItemType"); err != nil {
		return err
	}
	switch {
	case w.PrimePrice != nil:
		i.Price = Price{Currency: CurrencyRegalAya, Amount: *w.PrimePrice}
	case w.RegularPrice != nil:
		i.Price = Price{Currency: CurrencyAya, Amount: *w.RegularPrice}
	default:
		return &ParseError{Field: "vault item", Err: errNoPrice}
	}
	i.ItemType = w.ItemType
	return nil
}

// RawVaultScheduleInfo is one rotation of the featured vault item.
type RawVaultScheduleInfo struct {
	Expiry             Date                `json:"Expiry"`
	PreviewHiddenUntil *Date               `json:"PreviewHiddenUntil"`
	FeaturedItem       VaultTraderItemPath `json:"FeaturedItem"`
}

func (s *RawVaultScheduleInfo) UnmarshalJSON(data []byte) error {
	type plain RawVaultScheduleInfo
	return decodeObject(data, (*plain)(s), "vault schedule", "Expiry", "FeaturedItem")
}

// Currency is a vault trader currency.
type Currency string

const (
	CurrencyRegalAya Currency = "Regal Aya"
	CurrencyAya      Currency = "Aya"
)

// Price is an amount in a vault trader currency.
type Price struct {
	Currency Currency `json:"currency"`
	Amount   int      `json:"amount"`
}

// VaultTrader is the resolved Prime Resurgence event.
type VaultTrader struct {
	ID               string              `json:"id"`
	Activation       time.Time           `json:"activation"`
	Expiry           time.Time           `json:"expiry"`
	InitialStartDate time.Time           `json:"initialStartDate"`
	Node             string              `json:"node"`
	Shop             []VaultItem         `json:"shop"`
	TwitchPrimeShop  []VaultItem         `json:"twitchPrimeShop"`
	ScheduleInfo     []VaultScheduleInfo `json:"scheduleInfo"`
}

// VaultItem is a resolved vault trader offer.
type VaultItem struct {
	ItemType string `json:"itemType"`
	Price    Price  `json:"price"`
}

// VaultScheduleInfo is a resolved featured item rotation.
type VaultScheduleInfo struct {
	Expiry             time.Time  `json:"expiry"`
	PreviewHiddenUntil *time.Time `json:"previewHiddenUntil"`
	FeaturedItem       string     `json:"featuredItem"`
}

func (v RawVaultTrader) Resolve(ctx *Context) VaultTrader {
	return VaultTrader{
		ID:               string(v.ID),
		Activation:       v.Activation.Time,
		Expiry:           v.Expiry.Time,
		InitialStartDate: v.InitialStartDate.Time,
		Node:             v.Node.Resolve(ctx),
		Shop:             resolveAll(v.Manifest, ctx, RawVaultItem.Resolve),
		TwitchPrimeShop:  resolveAll(v.EvergreenManifest, ctx, RawVaultItem.Resolve),
		ScheduleInfo:     resolveAll(v.ScheduleInfo, ctx, RawVaultScheduleInfo.Resolve),
	}
}

func (i RawVaultItem) Resolve(ctx *Context) VaultItem {
	return VaultItem{ItemType: i.ItemType.Resolve(ctx), Price: i.Price}
}

func (s RawVaultScheduleInfo) Resolve(ctx *Context) VaultScheduleInfo {
	return VaultScheduleInfo{
		Expiry:             s.Expiry.Time,
		PreviewHiddenUntil: optTime(s.PreviewHiddenUntil),
		FeaturedItem:       s.FeaturedItem.Resolve(ctx),
	}
}

