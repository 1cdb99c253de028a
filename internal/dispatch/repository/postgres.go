package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/trustbit/mandi-service/internal/dispatch/dto"
	"github.com/trustbit/mandi-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ListUndispatched(ctx context.Context) ([]model.DispatchableDelivery, error) {
	deliveries := []model.DispatchableDelivery{}
	err := r.DB.SelectContext(ctx, &deliveries, `
        SELECT
            d.id                 AS delivery_id,
            d.customer           AS customer,
            d.customer_name      AS customer_name,
            d.delivery_date      AS delivery_date,
            d.total_delivery_qty AS total_packs,
            d.total_delivery_kg  AS total_kg,
            d.total_amount       AS total_amount
        FROM deliveries d
        WHERE d.status = $1
          AND NOT EXISTS (
              SELECT 1
              FROM dispatch_items di
              INNER JOIN dispatches dp ON dp.id = di.dispatch_id
              WHERE di.delivery_id = d.id
                AND dp.status IN ($2, $3)
          )
        ORDER BY d.delivery_date ASC, d.created_at ASC
    `, model.DeliveryStatusSubmitted, model.DispatchStatusLoading, model.DispatchStatusDispatched)
	return deliveries, err
}

func (r *PGRepository) ActiveDispatchIDsByDelivery(ctx context.Context, deliveryIDs []string) (map[string]string, error) {
	if len(deliveryIDs) == 0 {
		return map[string]string{}, nil
	}

	query, args, err := sqlx.In(`
        SELECT di.delivery_id, di.dispatch_id
        FROM dispatch_items di
        INNER JOIN dispatches dp ON dp.id = di.dispatch_id
        WHERE dp.status IN (?, ?)
          AND di.delivery_id IN (?)
    `, model.DispatchStatusLoading, model.DispatchStatusDispatched, deliveryIDs)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryxContext(ctx, r.DB.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string]string{}
	for rows.Next() {
		var deliveryID, dispatchID string
		if err := rows.Scan(&deliveryID, &dispatchID); err != nil {
			return nil, err
		}
		result[deliveryID] = dispatchID
	}
	return result, rows.Err()
}

func (r *PGRepository) Create(ctx context.Context, d *model.Dispatch) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	headerQuery := `
        INSERT INTO dispatches (
            id, vehicle, vehicle_capacity_kg, dispatch_date, status,
            total_loaded_kg, total_packs, total_amount, total_customers,
            remaining_capacity_kg, capacity_utilization, created_at, updated_at
        )
        VALUES (
            :id, :vehicle, :vehicle_capacity_kg, :dispatch_date, :status,
            :total_loaded_kg, :total_packs, :total_amount, :total_customers,
            :remaining_capacity_kg, :capacity_utilization, :created_at, :updated_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, headerQuery, d); err != nil {
		return fmt.Errorf("failed to insert dispatch: %w", err)
	}

	itemQuery := `
        INSERT INTO dispatch_items (
            id, dispatch_id, delivery_id, customer, customer_name,
            delivery_date, total_packs, total_kg, total_amount
        )
        VALUES (
            :id, :dispatch_id, :delivery_id, :customer, :customer_name,
            :delivery_date, :total_packs, :total_kg, :total_amount
        )
    `
	for i := range d.Deliveries {
		if _, err := tx.NamedExecContext(ctx, itemQuery, &d.Deliveries[i]); err != nil {
			return fmt.Errorf("failed to insert dispatch item %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Dispatch, error) {
	var d model.Dispatch
	err := r.DB.GetContext(ctx, &d, `SELECT * FROM dispatches WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	err = r.DB.SelectContext(ctx, &d.Deliveries,
		`SELECT * FROM dispatch_items WHERE dispatch_id = $1 ORDER BY delivery_date ASC`, id)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.DispatchFilters) ([]model.Dispatch, int, error) {
	var dispatches []model.Dispatch
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Vehicle != "" {
		conditions = append(conditions, "vehicle = :vehicle")
		args["vehicle"] = f.Vehicle
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM dispatches" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM dispatches" + whereClause + " ORDER BY dispatch_date DESC, created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &dispatches, args)
	return dispatches, count, err
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE dispatches SET status = $1, updated_at = now() WHERE id = $2`, status, id)
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
