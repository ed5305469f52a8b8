package worldstate

import "time"

// RawFlashSale is a market sale entry.
type RawFlashSale struct {
	TypeName           LastSegmentPath `json:"TypeName"`
	ShownInMarket      bool            `json:"ShownInMarket"`
	HideFromMarket     bool            `json:"HideFromMarket"`
	StartDate          Date            `json:"StartDate"`
	EndDate            Date            `json:"EndDate"`
	RegularOverride    *int            `json:"RegularOverride"`
	PremiumOverride    *int            `json:"PremiumOverride"`
	Discount           *int            `json:"Discount"`
	DailySaleGenerated bool            `json:"DailySaleGenerated"`
	IsFeatured         bool            `json:"IsFeatured"`
	IsPopular          bool            `json:"IsPopular"`
}

func (f *RawFlashSale) UnmarshalJSON(data []byte) error {
	type plain RawFlashSale
	return decodeObject(data, (*plain)(f), "flash sale", "TypeName", "StartDate", "EndDate")
}

// FlashSale is a resolved market sale.
type FlashSale struct {
	Item                 string    `json:"item"`
	IsShownInMarket      bool      `json:"isShownInMarket"`
	IsHiddenFromMarket   bool      `json:"isHiddenFromMarket"`
	Activation           time.Time `json:"activation"`
	Expiry               time.Time `json:"expiry"`
	RegularOverride      *int      `json:"regularOverride"`
	PremiumOverride      *int      `json:"premiumOverride"`
	Discount             *int      `json:"discount"`
	IsDailySaleGenerated bool      `json:"isDailySaleGenerated"`
	IsFeatured           bool      `json:"isFeatured"`
	IsPopular            bool      `json:"isPopular"`
}

func (f RawFlashSale) Resolve(ctx *Context) FlashSale {
	return FlashSale{
		Item:                 f.TypeName.Resolve(ctx),
		IsShownInMarket:      f.ShownInMarket,
		IsHiddenFromMarket:   f.HideFromMarket,
		Activation:           f.StartDate.Time,
		Expiry:               f.EndDate.Time,
		RegularOverride:      f.RegularOverride,
		PremiumOverride:      f.PremiumOverride,
		Discount:             f.Discount,
		IsDailySaleGenerated: f.DailySaleGenerated,
		IsFeatured:           f.IsFeatured,
		IsPopular:            f.IsPopular,
	}
}

// RawDailyDeal is Darvo's daily deal.
type RawDailyDeal struct {
	StoreItem     LanguageItemPath `json:"StoreItem"`
	Activation    Date             `json:"Activation"`
	Expiry        Date             `json:"Expiry"`
	Discount      int              `json:"Discount"`
	OriginalPrice int              `json:"OriginalPrice"`
	SalePrice     int              `json:"SalePrice"`
	AmountTotal   int              `json:"AmountTotal"`
	AmountSold    int              `json:"AmountSold"`
}

func (d *RawDailyDeal) UnmarshalJSON(data []byte) error {
	type plain RawDailyDeal
	return decodeObject(data, (*plain)(d), "daily deal",
		"StoreItem", "Activation", "Expiry", "Discount", "OriginalPrice", "SalePrice", "AmountTotal", "AmountSold")
}

// DailyDeal is a resolved daily deal.
type DailyDeal struct {
	Item               string    `json:"item"`
	Activation         time.Time `json:"activation"`
	Expiry             time.Time `json:"expiry"`
	DiscountPercentage int       `json:"discountPercentage"`
	OriginalPrice      int       `json:"originalPrice"`
	SalePrice          int       `json:"salePrice"`
	Stock              int       `json:"stock"`
	AmountSold         int       `json:"amountSold"`
}

func (d RawDailyDeal) Resolve(ctx *Context) DailyDeal {
	return DailyDeal{
		Item:               d.StoreItem.Resolve(ctx),
		Activation:         d.Activation.Time,
		Expiry:             d.Expiry.Time,
		DiscountPercentage: d.Discount,
		OriginalPrice:      d.OriginalPrice,
		SalePrice:          d.SalePrice,
		Stock:              d.AmountTotal,
		AmountSold:         d.AmountSold,
	}
}
