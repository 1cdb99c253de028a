package model

import "time"

type PackSize struct {
	Name     string  `db:"name" json:"pack_size"`
	WeightKg float64 `db:"weight_kg" json:"weight_kg"`
	IsActive bool    `db:"is_active" json:"-"`
}

// BagCost is the per-pack packaging cost adjustment for an item+pack-size
// combination.
type BagCost struct {
	Item     string  `db:"item" json:"item"`
	PackSize string  `db:"pack_size" json:"pack_size"`
	BagCost  float64 `db:"bag_cost" json:"bag_cost"`
	IsActive bool    `db:"is_active" json:"-"`
}

// PriceListEntry is one time-versioned price row for an area+item. Prices
// are quoted per 50 kg; price_per_kg is derived on write.
type PriceListEntry struct {
	ID            string    `db:"id" json:"id"`
	PriceListArea string    `db:"price_list_area" json:"price_list_area"`
	Item          string    `db:"item" json:"item"`
	ItemName      string    `db:"item_name" json:"item_name"`
	BasePrice50Kg float64   `db:"base_price_50kg" json:"base_price_50kg"`
	PricePerKg    float64   `db:"price_per_kg" json:"price_per_kg"`
	EffectiveFrom time.Time `db:"effective_from" json:"effective_from"`
	IsActive      bool      `db:"is_active" json:"-"`
}

// PackRate is the resolved rate for a specific area+item+pack-size.
type PackRate struct {
	Rate          float64 `json:"rate"`
	BasePrice50Kg float64 `json:"base_price_50kg"`
	PricePerKg    float64 `json:"price_per_kg"`
	PackWeightKg  float64 `json:"pack_weight_kg"`
	PriceListRef  string  `json:"price_list_ref"`
}
