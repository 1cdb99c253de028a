package catalogue

import (
	"context"
	"time"

	"github.com/trustbit/mandi-service/internal/model"
)

type Repository interface {
	ListPackSizes(ctx context.Context) ([]model.PackSize, error)
	ListBagCosts(ctx context.Context) ([]model.BagCost, error)
	LatestPrice(ctx context.Context, area, item string, asOf time.Time) (*model.PriceListEntry, error)
	PricesForArea(ctx context.Context, area string) ([]model.PriceListEntry, error)
}
