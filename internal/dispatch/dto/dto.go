package dto

import "time"

type CreateDispatchInput struct {
	Vehicle           string    `json:"vehicle" binding:"required"`
	VehicleCapacityKg float64   `json:"vehicle_capacity_kg"`
	DispatchDate      time.Time `json:"dispatch_date"`
	DeliveryIDs       []string  `json:"delivery_ids"`
}

type DispatchFilters struct {
	Vehicle  string
	Status   string
	Page     int
	PageSize int
}
