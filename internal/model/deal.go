package model

import "time"

// Deal statuses. Cancelled is terminal and never overridden by recompute.
const (
	DealStatusOpen               = "Open"
	DealStatusConfirmed          = "Confirmed"
	DealStatusPartiallyDelivered = "Partially Delivered"
	DealStatusDelivered          = "Delivered"
	DealStatusCancelled          = "Cancelled"
)

// Deal item statuses, derived from delivered vs booked quantity.
const (
	ItemStatusOpen               = "Open"
	ItemStatusPartiallyDelivered = "Partially Delivered"
	ItemStatusDelivered          = "Delivered"
)

type Deal struct {
	ID            string    `db:"id" json:"id"`
	Customer      string    `db:"customer" json:"customer"`
	CustomerName  string    `db:"customer_name" json:"customer_name"`
	PriceListArea *string   `db:"price_list_area" json:"price_list_area"`
	DealDate      time.Time `db:"deal_date" json:"deal_date"`
	Status        string    `db:"status" json:"status"`
	TotalQty      float64   `db:"total_qty" json:"total_qty"`
	TotalAmount   float64   `db:"total_amount" json:"total_amount"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	Items []DealItem `db:"-" json:"items"`
}

// DealItem is one item+pack-size commitment line of a deal. It is never
// deleted once the deal is confirmed, only depleted to zero pending.
type DealItem struct {
	ID            string  `db:"id" json:"id"`
	DealID        string  `db:"deal_id" json:"deal_id"`
	Idx           int     `db:"idx" json:"idx"`
	Item          string  `db:"item" json:"item"`
	ItemName      string  `db:"item_name" json:"item_name"`
	PackSize      string  `db:"pack_size" json:"pack_size"`
	PackWeightKg  float64 `db:"pack_weight_kg" json:"pack_weight_kg"`
	Qty           float64 `db:"qty" json:"qty"`
	DeliveredQty  float64 `db:"delivered_qty" json:"delivered_qty"`
	PendingQty    float64 `db:"pending_qty" json:"pending_qty"`
	Rate          float64 `db:"rate" json:"rate"`
	PricePerKg    float64 `db:"price_per_kg" json:"price_per_kg"`
	BasePrice50Kg float64 `db:"base_price_50kg" json:"base_price_50kg"`
	Amount        float64 `db:"amount" json:"amount"`
	ItemStatus    string  `db:"item_status" json:"item_status"`
	PriceListRef  *string `db:"price_list_ref" json:"price_list_ref"`
}
