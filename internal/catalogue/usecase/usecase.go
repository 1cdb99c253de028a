package usecase

import (
	"context"
	"time"

	"github.com/trustbit/mandi-service/internal/catalogue"
	"github.com/trustbit/mandi-service/internal/model"
	"go.uber.org/zap"
)

const (
	packSizesCacheKey = "mandi:catalogue:pack_sizes"
	bagCostsCacheKey  = "mandi:catalogue:bag_costs"
	cacheTTL          = 10 * time.Minute
)

// Cache is the slice of the redis client the catalogue needs. A read
// failure falls back to the database; the catalogue never goes down with
// the cache.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type catalogueUseCase struct {
	repo   catalogue.Repository
	cache  Cache
	logger *zap.Logger
}

func NewCatalogueUseCase(repo catalogue.Repository, cache Cache, log *zap.Logger) catalogue.UseCase {
	return &catalogueUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

func (uc *catalogueUseCase) ListPackSizes(ctx context.Context) ([]model.PackSize, error) {
	if uc.cache != nil {
		var cached []model.PackSize
		hit, err := uc.cache.GetJSON(ctx, packSizesCacheKey, &cached)
		if err != nil {
			uc.logger.Warn("pack size cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	packs, err := uc.repo.ListPackSizes(ctx)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, packSizesCacheKey, packs, cacheTTL); err != nil {
			uc.logger.Warn("pack size cache write failed", zap.Error(err))
		}
	}
	return packs, nil
}

func (uc *catalogueUseCase) PackWeightMap(ctx context.Context) (map[string]float64, error) {
	packs, err := uc.ListPackSizes(ctx)
	if err != nil {
		return nil, err
	}

	weights := make(map[string]float64, len(packs))
	for _, p := range packs {
		weights[p.Name] = p.WeightKg
	}
	return weights, nil
}

func (uc *catalogueUseCase) BagCostMap(ctx context.Context) (map[string]float64, error) {
	if uc.cache != nil {
		var cached map[string]float64
		hit, err := uc.cache.GetJSON(ctx, bagCostsCacheKey, &cached)
		if err != nil {
			uc.logger.Warn("bag cost cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	costs, err := uc.repo.ListBagCosts(ctx)
	if err != nil {
		return nil, err
	}

	m := make(map[string]float64, len(costs))
	for _, c := range costs {
		m[c.Item+":"+c.PackSize] = c.BagCost
	}

	if uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, bagCostsCacheKey, m, cacheTTL); err != nil {
			uc.logger.Warn("bag cost cache write failed", zap.Error(err))
		}
	}
	return m, nil
}

func (uc *catalogueUseCase) LatestPrice(ctx context.Context, area, item string, asOf time.Time) (*model.PriceListEntry, error) {
	return uc.repo.LatestPrice(ctx, area, item, asOf)
}

func (uc *catalogueUseCase) RateForPackSize(ctx context.Context, area, item, packSize string, asOf time.Time) (*model.PackRate, error) {
	price, err := uc.LatestPrice(ctx, area, item, asOf)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, nil
	}

	weights, err := uc.PackWeightMap(ctx)
	if err != nil {
		return nil, err
	}
	weight, ok := weights[packSize]
	if !ok || weight <= 0 {
		return nil, nil
	}

	return &model.PackRate{
		Rate:          price.PricePerKg * weight,
		BasePrice50Kg: price.BasePrice50Kg,
		PricePerKg:    price.PricePerKg,
		PackWeightKg:  weight,
		PriceListRef:  price.ID,
	}, nil
}

func (uc *catalogueUseCase) PricesForArea(ctx context.Context, area string) ([]model.PriceListEntry, error) {
	return uc.repo.PricesForArea(ctx, area)
}
