package model

import "time"

// Dispatch statuses follow the vehicle lifecycle.
const (
	DispatchStatusLoading    = "Loading"
	DispatchStatusDispatched = "Dispatched"
	DispatchStatusCancelled  = "Cancelled"
)

type Dispatch struct {
	ID                  string    `db:"id" json:"id"`
	Vehicle             string    `db:"vehicle" json:"vehicle"`
	VehicleCapacityKg   float64   `db:"vehicle_capacity_kg" json:"vehicle_capacity_kg"`
	DispatchDate        time.Time `db:"dispatch_date" json:"dispatch_date"`
	Status              string    `db:"status" json:"status"`
	TotalLoadedKg       float64   `db:"total_loaded_kg" json:"total_loaded_kg"`
	TotalPacks          float64   `db:"total_packs" json:"total_packs"`
	TotalAmount         float64   `db:"total_amount" json:"total_amount"`
	TotalCustomers      int       `db:"total_customers" json:"total_customers"`
	RemainingCapacityKg float64   `db:"remaining_capacity_kg" json:"remaining_capacity_kg"`
	CapacityUtilization float64   `db:"capacity_utilization" json:"capacity_utilization"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`

	Deliveries []DispatchItem `db:"-" json:"deliveries"`
}

type DispatchItem struct {
	ID           string    `db:"id" json:"id"`
	DispatchID   string    `db:"dispatch_id" json:"dispatch_id"`
	DeliveryID   string    `db:"delivery_id" json:"delivery_id"`
	Customer     string    `db:"customer" json:"customer"`
	CustomerName string    `db:"customer_name" json:"customer_name"`
	DeliveryDate time.Time `db:"delivery_date" json:"delivery_date"`
	TotalPacks   float64   `db:"total_packs" json:"total_packs"`
	TotalKg      float64   `db:"total_kg" json:"total_kg"`
	TotalAmount  float64   `db:"total_amount" json:"total_amount"`
}

// DispatchableDelivery is the read model for the undispatched-deliveries
// listing.
type DispatchableDelivery struct {
	DeliveryID   string    `db:"delivery_id" json:"delivery_id"`
	Customer     string    `db:"customer" json:"customer"`
	CustomerName string    `db:"customer_name" json:"customer_name"`
	DeliveryDate time.Time `db:"delivery_date" json:"delivery_date"`
	TotalPacks   float64   `db:"total_packs" json:"total_packs"`
	TotalKg      float64   `db:"total_kg" json:"total_kg"`
	TotalAmount  float64   `db:"total_amount" json:"total_amount"`
}
