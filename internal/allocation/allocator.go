// Package allocation implements FIFO allocation of delivery quantities
// against pending deal-item balances, plus the editable working set used
// to review and override an allocation before it is persisted.
package allocation

import (
	"sort"
	"time"
)

// PendingLine is one open commitment line, oldest-first candidates for
// allocation. Quantities are in packs of the line's own pack size.
type PendingLine struct {
	DealID           string
	DealItemID       string
	Customer         string
	CustomerName     string
	Item             string
	ItemName         string
	PackSize         string
	PackWeightKg     float64
	DealDate         time.Time
	Seq              int // creation-order tiebreak for equal dates
	Qty              float64
	AlreadyDelivered float64
	PendingQty       float64
	Rate             float64
	PricePerKg       float64
}

// Allocation is a proposed consumption of DeliverQty packs from one
// pending line.
type Allocation struct {
	DealID           string  `json:"deal_id"`
	DealItemID       string  `json:"deal_item_id"`
	CustomerName     string  `json:"customer_name"`
	Item             string  `json:"item"`
	ItemName         string  `json:"item_name"`
	PackSize         string  `json:"pack_size"`
	PackWeightKg     float64 `json:"pack_weight_kg"`
	DealQty          float64 `json:"deal_qty"`
	AlreadyDelivered float64 `json:"already_delivered"`
	PendingQty       float64 `json:"pending_qty"`
	PendingKg        float64 `json:"pending_kg"`
	PricePerKg       float64 `json:"price_per_kg"`
	DeliverQty       float64 `json:"deliver_qty"`
	Rate             float64 `json:"rate"`
	Amount           float64 `json:"amount"`
}

type Result struct {
	Allocations []Allocation `json:"allocations"`
	Requested   float64      `json:"requested"`
	Allocated   float64      `json:"allocated"`
	Unallocated float64      `json:"unallocated"`
}

// Allocate walks the pending lines oldest-first and consumes up to
// totalQty packs. It is best-effort: a request exceeding the total
// pending balance allocates everything available and reports the
// shortfall in Unallocated. It never errors and never over-allocates.
//
// Lines are sorted here by (deal date, creation order) rather than
// trusting caller order, so the FIFO contract holds for any input.
func Allocate(lines []PendingLine, totalQty float64) Result {
	result := Result{
		Allocations: []Allocation{},
		Requested:   totalQty,
	}
	if totalQty <= 0 {
		return result
	}

	sorted := make([]PendingLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].DealDate.Equal(sorted[j].DealDate) {
			return sorted[i].DealDate.Before(sorted[j].DealDate)
		}
		return sorted[i].Seq < sorted[j].Seq
	})

	remaining := totalQty
	for _, line := range sorted {
		if remaining <= 0 {
			break
		}
		if line.PendingQty <= 0 {
			continue
		}

		take := remaining
		if line.PendingQty < take {
			take = line.PendingQty
		}

		result.Allocations = append(result.Allocations, Allocation{
			DealID:           line.DealID,
			DealItemID:       line.DealItemID,
			CustomerName:     line.CustomerName,
			Item:             line.Item,
			ItemName:         line.ItemName,
			PackSize:         line.PackSize,
			PackWeightKg:     line.PackWeightKg,
			DealQty:          line.Qty,
			AlreadyDelivered: line.AlreadyDelivered,
			PendingQty:       line.PendingQty,
			PendingKg:        line.PendingQty * line.PackWeightKg,
			PricePerKg:       line.PricePerKg,
			DeliverQty:       take,
			Rate:             line.Rate,
			Amount:           take * line.Rate,
		})
		remaining -= take
	}

	result.Allocated = totalQty - remaining
	result.Unallocated = remaining
	return result
}
