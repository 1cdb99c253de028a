package catalogue

import (
	"context"
	"time"

	"github.com/trustbit/mandi-service/internal/model"
)

type UseCase interface {
	// ListPackSizes returns the active pack catalogue ordered by weight.
	ListPackSizes(ctx context.Context) ([]model.PackSize, error)

	// PackWeightMap is ListPackSizes keyed by pack size name.
	PackWeightMap(ctx context.Context) (map[string]float64, error)

	// BagCostMap returns per-pack cost adjustments keyed "item:pack_size".
	BagCostMap(ctx context.Context) (map[string]float64, error)

	// LatestPrice returns the newest active price for area+item effective
	// at asOf, or nil when none exists.
	LatestPrice(ctx context.Context, area, item string, asOf time.Time) (*model.PriceListEntry, error)

	// RateForPackSize resolves the per-pack rate (price_per_kg * weight)
	// for area+item+pack size, or nil when price or pack size is missing.
	RateForPackSize(ctx context.Context, area, item, packSize string, asOf time.Time) (*model.PackRate, error)

	// PricesForArea returns the latest active price per item for an area.
	PricesForArea(ctx context.Context, area string) ([]model.PriceListEntry, error)
}
