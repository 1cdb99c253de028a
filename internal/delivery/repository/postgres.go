package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/trustbit/mandi-service/internal/delivery/dto"
	"github.com/trustbit/mandi-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// GetPendingDealItems recomputes delivered quantities from submitted
// delivery items rather than trusting the denormalized columns on
// deal_items, so a delivery being edited can be excluded and the
// balances stay correct even when the nightly reconcile has not run.
func (r *PGRepository) GetPendingDealItems(ctx context.Context, f *dto.PendingFilters) ([]model.PendingDealItem, error) {
	conditions := []string{
		"d.customer = :customer",
		"d.status NOT IN ('Cancelled')",
	}
	args := map[string]interface{}{
		"customer":  f.Customer,
		"submitted": model.DeliveryStatusSubmitted,
	}

	// When a delivery is excluded its quantities no longer count, which
	// can reopen deals already marked Delivered. Widen the status filter
	// accordingly.
	if f.ExcludeDelivery != "" {
		args["exclude_delivery"] = f.ExcludeDelivery
	} else {
		conditions = append(conditions, "d.status != 'Delivered'")
		conditions = append(conditions, "di.item_status != 'Delivered'")
	}

	if f.Item != "" {
		conditions = append(conditions, "di.item = :item")
		args["item"] = f.Item
	}
	if f.PackSize != "" {
		conditions = append(conditions, "di.pack_size = :pack_size")
		args["pack_size"] = f.PackSize
	}

	excludeClause := ""
	if f.ExcludeDelivery != "" {
		excludeClause = " AND dlv.id != :exclude_delivery"
	}

	query := `
        SELECT
            d.id                AS deal_id,
            di.id               AS deal_item_id,
            d.deal_date         AS deal_date,
            d.created_at        AS deal_created_at,
            di.idx              AS idx,
            d.customer          AS customer,
            d.customer_name     AS customer_name,
            d.price_list_area   AS price_list_area,
            di.item             AS item,
            di.item_name        AS item_name,
            di.pack_size        AS pack_size,
            di.pack_weight_kg   AS pack_weight_kg,
            di.qty              AS qty,
            di.rate             AS rate,
            di.price_per_kg     AS price_per_kg,
            di.base_price_50kg  AS base_price_50kg,
            di.item_status      AS item_status,
            COALESCE(sub.delivered_qty, 0)                          AS already_delivered,
            di.qty - COALESCE(sub.delivered_qty, 0)                 AS pending_qty,
            di.qty * di.pack_weight_kg                              AS booked_kg,
            COALESCE(sub.delivered_qty, 0) * di.pack_weight_kg      AS delivered_kg,
            (di.qty - COALESCE(sub.delivered_qty, 0)) * di.pack_weight_kg AS pending_kg
        FROM deal_items di
        INNER JOIN deals d ON d.id = di.deal_id
        LEFT JOIN (
            SELECT dli.deal_item_id, SUM(dli.deliver_qty) AS delivered_qty
            FROM delivery_items dli
            INNER JOIN deliveries dlv ON dlv.id = dli.delivery_id
            WHERE dlv.status = :submitted` + excludeClause + `
            GROUP BY dli.deal_item_id
        ) sub ON sub.deal_item_id = di.id
        WHERE ` + strings.Join(conditions, " AND ") + `
          AND (di.qty - COALESCE(sub.delivered_qty, 0)) * di.pack_weight_kg > 0.1
        ORDER BY d.deal_date ASC, d.created_at ASC, di.idx ASC
    `

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer nstmt.Close()

	items := []model.PendingDealItem{}
	if err := nstmt.SelectContext(ctx, &items, args); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PGRepository) Create(ctx context.Context, d *model.Delivery) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	headerQuery := `
        INSERT INTO deliveries (
            id, customer, customer_name, delivery_date, status,
            total_delivery_qty, total_delivery_kg, total_amount,
            created_at, updated_at
        )
        VALUES (
            :id, :customer, :customer_name, :delivery_date, :status,
            :total_delivery_qty, :total_delivery_kg, :total_amount,
            :created_at, :updated_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, headerQuery, d); err != nil {
		return fmt.Errorf("failed to insert delivery: %w", err)
	}

	if err := insertItems(ctx, tx, d.Items); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepository) Update(ctx context.Context, d *model.Delivery) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	headerQuery := `
        UPDATE deliveries SET
            customer = :customer,
            customer_name = :customer_name,
            delivery_date = :delivery_date,
            total_delivery_qty = :total_delivery_qty,
            total_delivery_kg = :total_delivery_kg,
            total_amount = :total_amount,
            updated_at = now()
        WHERE id = :id
    `
	res, err := tx.NamedExecContext(ctx, headerQuery, d)
	if err != nil {
		return fmt.Errorf("failed to update delivery: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM delivery_items WHERE delivery_id = $1`, d.ID); err != nil {
		return fmt.Errorf("failed to clear delivery items: %w", err)
	}

	if err := insertItems(ctx, tx, d.Items); err != nil {
		return err
	}
	return tx.Commit()
}

func insertItems(ctx context.Context, tx *sqlx.Tx, items []model.DeliveryItem) error {
	query := `
        INSERT INTO delivery_items (
            id, delivery_id, idx, deal_id, deal_item_id, item, item_name,
            pack_size, pack_weight_kg, deal_qty, already_delivered,
            pending_qty, deliver_qty, rate, amount, is_extra
        )
        VALUES (
            :id, :delivery_id, :idx, :deal_id, :deal_item_id, :item, :item_name,
            :pack_size, :pack_weight_kg, :deal_qty, :already_delivered,
            :pending_qty, :deliver_qty, :rate, :amount, :is_extra
        )
    `
	for i := range items {
		if _, err := tx.NamedExecContext(ctx, query, &items[i]); err != nil {
			return fmt.Errorf("failed to insert delivery item %d: %w", i, err)
		}
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Delivery, error) {
	var d model.Delivery
	err := r.DB.GetContext(ctx, &d, `SELECT * FROM deliveries WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	err = r.DB.SelectContext(ctx, &d.Items,
		`SELECT * FROM delivery_items WHERE delivery_id = $1 ORDER BY idx ASC`, id)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.DeliveryFilters) ([]model.Delivery, int, error) {
	var deliveries []model.Delivery
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

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM deliveries" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM deliveries" + whereClause + " ORDER BY delivery_date DESC, created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &deliveries, args)
	return deliveries, count, err
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE deliveries SET status = $1, updated_at = now() WHERE id = $2`, status, id)
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
