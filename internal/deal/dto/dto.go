package dto

type DealFilters struct {
	Customer string
	Status   string
	Item     string
	Page     int
	PageSize int
}
