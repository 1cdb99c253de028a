package dto

import "time"

// PendingFilters narrows the pending-balance query. ExcludeDelivery is
// set when editing an existing delivery so its own rows do not count
// against the balances being offered back.
type PendingFilters struct {
	Customer        string `form:"customer" binding:"required"`
	Item            string `form:"item"`
	PackSize        string `form:"pack_size"`
	ExcludeDelivery string `form:"exclude_delivery"`
}

type AllocateInput struct {
	Customer string  `json:"customer" binding:"required"`
	Item     string  `json:"item"`
	PackSize string  `json:"pack_size"`
	TotalQty float64 `json:"total_qty"`
}

type SaveDeliveryInput struct {
	Customer     string            `json:"customer" binding:"required"`
	CustomerName string            `json:"customer_name"`
	DeliveryDate time.Time         `json:"delivery_date"`
	Items        []DeliveryItemRow `json:"items"`
}

// DeliveryItemRow is one grid row being persisted. Rows with a
// DealItemID consume that deal item's balance; rows without are extra
// sales outside any deal.
type DeliveryItemRow struct {
	DealID           *string `json:"deal_id"`
	DealItemID       *string `json:"deal_item_id"`
	Item             string  `json:"item"`
	ItemName         string  `json:"item_name"`
	PackSize         string  `json:"pack_size"`
	PackWeightKg     float64 `json:"pack_weight_kg"`
	DealQty          float64 `json:"deal_qty"`
	AlreadyDelivered float64 `json:"already_delivered"`
	PendingQty       float64 `json:"pending_qty"`
	DeliverQty       float64 `json:"deliver_qty"`
	Rate             float64 `json:"rate"`
}

type DeliveryFilters struct {
	Customer string
	Status   string
	Page     int
	PageSize int
}
