package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/trustbit/mandi-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ListPackSizes(ctx context.Context) ([]model.PackSize, error) {
	packs := []model.PackSize{}
	err := r.DB.SelectContext(ctx, &packs, `
        SELECT name, weight_kg, is_active
        FROM pack_sizes
        WHERE is_active = true
        ORDER BY weight_kg ASC
    `)
	return packs, err
}

func (r *PGRepository) ListBagCosts(ctx context.Context) ([]model.BagCost, error) {
	costs := []model.BagCost{}
	err := r.DB.SelectContext(ctx, &costs, `
        SELECT item, pack_size, bag_cost, is_active
        FROM bag_costs
        WHERE is_active = true
    `)
	return costs, err
}

func (r *PGRepository) LatestPrice(ctx context.Context, area, item string, asOf time.Time) (*model.PriceListEntry, error) {
	var entry model.PriceListEntry
	err := r.DB.GetContext(ctx, &entry, `
        SELECT * FROM price_lists
        WHERE price_list_area = $1
          AND item = $2
          AND is_active = true
          AND effective_from <= $3
        ORDER BY effective_from DESC
        LIMIT 1
    `, area, item, asOf)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// PricesForArea returns one row per item: the newest active price that is
// already effective.
func (r *PGRepository) PricesForArea(ctx context.Context, area string) ([]model.PriceListEntry, error) {
	entries := []model.PriceListEntry{}
	err := r.DB.SelectContext(ctx, &entries, `
        SELECT DISTINCT ON (item) *
        FROM price_lists
        WHERE price_list_area = $1
          AND is_active = true
          AND effective_from <= now()
        ORDER BY item ASC, effective_from DESC
    `, area)
	return entries, err
}
