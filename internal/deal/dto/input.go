package dto

import "time"

type CreateDealInput struct {
	Customer      string              `json:"customer" binding:"required"`
	CustomerName  string              `json:"customer_name"`
	PriceListArea string              `json:"price_list_area"`
	DealDate      time.Time           `json:"deal_date"`
	Status        string              `json:"status"`
	Items         []CreateDealItemRow `json:"items" binding:"required"`
}

type CreateDealItemRow struct {
	Item          string  `json:"item" binding:"required"`
	ItemName      string  `json:"item_name"`
	PackSize      string  `json:"pack_size" binding:"required"`
	PackWeightKg  float64 `json:"pack_weight_kg"`
	Qty           float64 `json:"qty" binding:"required"`
	Rate          float64 `json:"rate"`
	PricePerKg    float64 `json:"price_per_kg"`
	BasePrice50Kg float64 `json:"base_price_50kg"`
	DeliveredQty  float64 `json:"delivered_qty"`
}
