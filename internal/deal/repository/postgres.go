package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/trustbit/mandi-service/internal/deal/dto"
	"github.com/trustbit/mandi-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, deal *model.Deal) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	dealQuery := `
        INSERT INTO deals (
            id, customer, customer_name, price_list_area, deal_date, status,
            total_qty, total_amount, created_at, updated_at
        )
        VALUES (
            :id, :customer, :customer_name, :price_list_area, :deal_date, :status,
            :total_qty, :total_amount, :created_at, :updated_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, dealQuery, deal); err != nil {
		return fmt.Errorf("failed to insert deal: %w", err)
	}

	itemQuery := `
        INSERT INTO deal_items (
            id, deal_id, idx, item, item_name, pack_size, pack_weight_kg,
            qty, delivered_qty, pending_qty, rate, price_per_kg,
            base_price_50kg, amount, item_status, price_list_ref
        )
        VALUES (
            :id, :deal_id, :idx, :item, :item_name, :pack_size, :pack_weight_kg,
            :qty, :delivered_qty, :pending_qty, :rate, :price_per_kg,
            :base_price_50kg, :amount, :item_status, :price_list_ref
        )
    `
	for i := range deal.Items {
		if _, err := tx.NamedExecContext(ctx, itemQuery, &deal.Items[i]); err != nil {
			return fmt.Errorf("failed to insert deal item %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Deal, error) {
	var deal model.Deal
	err := r.DB.GetContext(ctx, &deal, `SELECT * FROM deals WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	err = r.DB.SelectContext(ctx, &deal.Items,
		`SELECT * FROM deal_items WHERE deal_id = $1 ORDER BY idx ASC`, id)
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.DealFilters) ([]model.Deal, int, error) {
	var deals []model.Deal
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Customer != "" {
		conditions = append(conditions, "customer = :customer")
		args["customer"] = f.Customer
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.Item != "" {
		conditions = append(conditions, "id IN (SELECT deal_id FROM deal_items WHERE item = :item)")
		args["item"] = f.Item
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM deals" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM deals" + whereClause + " ORDER BY deal_date DESC, created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &deals, args)
	return deals, count, err
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE deals SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PGRepository) SumDeliveredByItem(ctx context.Context, dealID string) (map[string]float64, error) {
	rows, err := r.DB.QueryxContext(ctx, `
        SELECT di.deal_item_id, COALESCE(SUM(di.deliver_qty), 0)
        FROM delivery_items di
        INNER JOIN deliveries d ON d.id = di.delivery_id
        WHERE di.deal_id = $1
          AND d.status = $2
        GROUP BY di.deal_item_id
    `, dealID, model.DeliveryStatusSubmitted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	delivered := map[string]float64{}
	for rows.Next() {
		var itemID string
		var qty float64
		if err := rows.Scan(&itemID, &qty); err != nil {
			return nil, err
		}
		delivered[itemID] = qty
	}
	return delivered, rows.Err()
}

func (r *PGRepository) SaveDeliveryProgress(ctx context.Context, deal *model.Deal) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	itemQuery := `
        UPDATE deal_items SET
            delivered_qty = :delivered_qty,
            pending_qty = :pending_qty,
            item_status = :item_status
        WHERE id = :id
    `
	for i := range deal.Items {
		if _, err := tx.NamedExecContext(ctx, itemQuery, &deal.Items[i]); err != nil {
			return fmt.Errorf("failed to update deal item progress: %w", err)
		}
	}

	headerQuery := `
        UPDATE deals SET
            status = :status,
            total_qty = :total_qty,
            total_amount = :total_amount,
            updated_at = now()
        WHERE id = :id
    `
	if _, err := tx.NamedExecContext(ctx, headerQuery, deal); err != nil {
		return fmt.Errorf("failed to update deal header: %w", err)
	}

	return tx.Commit()
}

func (r *PGRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.DB.SelectContext(ctx, &ids, `
        SELECT id FROM deals
        WHERE status NOT IN ($1, $2)
        ORDER BY deal_date ASC, created_at ASC
    `, model.DealStatusCancelled, model.DealStatusDelivered)
	return ids, err
}
