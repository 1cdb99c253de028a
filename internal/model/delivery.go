package model

import "time"

// Delivery statuses. Only submitted deliveries consume pending deal
// balances; the transition path is Draft -> Submitted -> Cancelled.
const (
	DeliveryStatusDraft     = "Draft"
	DeliveryStatusSubmitted = "Submitted"
	DeliveryStatusCancelled = "Cancelled"
)

type Delivery struct {
	ID               string    `db:"id" json:"id"`
	Customer         string    `db:"customer" json:"customer"`
	CustomerName     string    `db:"customer_name" json:"customer_name"`
	DeliveryDate     time.Time `db:"delivery_date" json:"delivery_date"`
	Status           string    `db:"status" json:"status"`
	TotalDeliveryQty float64   `db:"total_delivery_qty" json:"total_delivery_qty"`
	TotalDeliveryKg  float64   `db:"total_delivery_kg" json:"total_delivery_kg"`
	TotalAmount      float64   `db:"total_amount" json:"total_amount"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`

	Items []DeliveryItem `db:"-" json:"items"`
}

// DeliveryItem is a persisted allocation record: the consumption of some
// quantity from one deal item toward this delivery. Extra rows carry no
// source reference and are not counted against any deal.
type DeliveryItem struct {
	ID               string  `db:"id" json:"id"`
	DeliveryID       string  `db:"delivery_id" json:"delivery_id"`
	Idx              int     `db:"idx" json:"idx"`
	DealID           *string `db:"deal_id" json:"deal_id"`
	DealItemID       *string `db:"deal_item_id" json:"deal_item_id"`
	Item             string  `db:"item" json:"item"`
	ItemName         string  `db:"item_name" json:"item_name"`
	PackSize         string  `db:"pack_size" json:"pack_size"`
	PackWeightKg     float64 `db:"pack_weight_kg" json:"pack_weight_kg"`
	DealQty          float64 `db:"deal_qty" json:"deal_qty"`
	AlreadyDelivered float64 `db:"already_delivered" json:"already_delivered"`
	PendingQty       float64 `db:"pending_qty" json:"pending_qty"`
	DeliverQty       float64 `db:"deliver_qty" json:"deliver_qty"`
	Rate             float64 `db:"rate" json:"rate"`
	Amount           float64 `db:"amount" json:"amount"`
	IsExtra          bool    `db:"is_extra" json:"is_extra"`
}

// PendingDealItem is a read model row returned by the pending-balance
// query: one open commitment line with its authoritative delivered and
// pending figures, in both packs and kg.
type PendingDealItem struct {
	DealID           string    `db:"deal_id" json:"deal_id"`
	DealItemID       string    `db:"deal_item_id" json:"deal_item_id"`
	DealDate         time.Time `db:"deal_date" json:"deal_date"`
	DealCreatedAt    time.Time `db:"deal_created_at" json:"deal_created_at"`
	Idx              int       `db:"idx" json:"idx"`
	Customer         string    `db:"customer" json:"customer"`
	CustomerName     string    `db:"customer_name" json:"customer_name"`
	PriceListArea    *string   `db:"price_list_area" json:"price_list_area"`
	Item             string    `db:"item" json:"item"`
	ItemName         string    `db:"item_name" json:"item_name"`
	PackSize         string    `db:"pack_size" json:"pack_size"`
	PackWeightKg     float64   `db:"pack_weight_kg" json:"pack_weight_kg"`
	Qty              float64   `db:"qty" json:"qty"`
	Rate             float64   `db:"rate" json:"rate"`
	PricePerKg       float64   `db:"price_per_kg" json:"price_per_kg"`
	BasePrice50Kg    float64   `db:"base_price_50kg" json:"base_price_50kg"`
	ItemStatus       string    `db:"item_status" json:"item_status"`
	AlreadyDelivered float64   `db:"already_delivered" json:"already_delivered"`
	PendingQty       float64   `db:"pending_qty" json:"pending_qty"`
	BookedKg         float64   `db:"booked_kg" json:"booked_kg"`
	DeliveredKg      float64   `db:"delivered_kg" json:"delivered_kg"`
	PendingKg        float64   `db:"pending_kg" json:"pending_kg"`
}
