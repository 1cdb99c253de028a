package allocation

import (
	"math"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func pendingFixture() []PendingLine {
	return []PendingLine{
		{DealID: "D1", DealItemID: "DI1", DealDate: day("2026-01-01"), Seq: 1, Qty: 10, PendingQty: 10, Rate: 100, PackSize: "50KG", PackWeightKg: 50},
		{DealID: "D2", DealItemID: "DI2", DealDate: day("2026-01-05"), Seq: 2, Qty: 5, PendingQty: 5, Rate: 110, PackSize: "50KG", PackWeightKg: 50},
		{DealID: "D3", DealItemID: "DI3", DealDate: day("2026-01-10"), Seq: 3, Qty: 20, PendingQty: 20, Rate: 120, PackSize: "50KG", PackWeightKg: 50},
	}
}

func TestAllocatePartial(t *testing.T) {
	res := Allocate(pendingFixture(), 12)

	if len(res.Allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(res.Allocations))
	}
	if res.Allocations[0].DealItemID != "DI1" || res.Allocations[0].DeliverQty != 10 {
		t.Errorf("first allocation = %s/%v, want DI1/10",
			res.Allocations[0].DealItemID, res.Allocations[0].DeliverQty)
	}
	if res.Allocations[0].Amount != 1000 {
		t.Errorf("first amount = %v, want 1000", res.Allocations[0].Amount)
	}
	if res.Allocations[1].DealItemID != "DI2" || res.Allocations[1].DeliverQty != 2 {
		t.Errorf("second allocation = %s/%v, want DI2/2",
			res.Allocations[1].DealItemID, res.Allocations[1].DeliverQty)
	}
	if res.Allocations[1].Amount != 220 {
		t.Errorf("second amount = %v, want 220", res.Allocations[1].Amount)
	}
	if res.Allocated != 12 || res.Unallocated != 0 {
		t.Errorf("allocated/unallocated = %v/%v, want 12/0", res.Allocated, res.Unallocated)
	}

	var totalAmount float64
	for _, a := range res.Allocations {
		totalAmount += a.Amount
	}
	if totalAmount != 1220 {
		t.Errorf("total amount = %v, want 1220", totalAmount)
	}
}

func TestAllocateExhaustion(t *testing.T) {
	res := Allocate(pendingFixture(), 50)

	if len(res.Allocations) != 3 {
		t.Fatalf("expected 3 allocations, got %d", len(res.Allocations))
	}
	if res.Allocated != 35 {
		t.Errorf("allocated = %v, want 35", res.Allocated)
	}
	if res.Unallocated != 15 {
		t.Errorf("unallocated = %v, want 15", res.Unallocated)
	}
	for i, want := range []float64{10, 5, 20} {
		if res.Allocations[i].DeliverQty != want {
			t.Errorf("allocation %d qty = %v, want %v", i, res.Allocations[i].DeliverQty, want)
		}
	}
}

func TestAllocateZeroAndNegativeRequest(t *testing.T) {
	for _, qty := range []float64{0, -5} {
		res := Allocate(pendingFixture(), qty)
		if len(res.Allocations) != 0 {
			t.Errorf("request %v: expected empty allocation list, got %d rows", qty, len(res.Allocations))
		}
		if res.Allocated != 0 {
			t.Errorf("request %v: allocated = %v, want 0", qty, res.Allocated)
		}
	}
}

func TestAllocateSortsInput(t *testing.T) {
	lines := pendingFixture()
	// Feed newest-first; the allocator must still consume oldest-first.
	reversed := []PendingLine{lines[2], lines[1], lines[0]}

	res := Allocate(reversed, 12)
	if len(res.Allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(res.Allocations))
	}
	if res.Allocations[0].DealItemID != "DI1" {
		t.Errorf("first consumed line = %s, want DI1", res.Allocations[0].DealItemID)
	}
	if res.Allocations[1].DealItemID != "DI2" {
		t.Errorf("second consumed line = %s, want DI2", res.Allocations[1].DealItemID)
	}
}

func TestAllocateTiebreakBySeq(t *testing.T) {
	sameDay := []PendingLine{
		{DealItemID: "B", DealDate: day("2026-02-01"), Seq: 2, PendingQty: 5, Rate: 10},
		{DealItemID: "A", DealDate: day("2026-02-01"), Seq: 1, PendingQty: 5, Rate: 10},
	}

	res := Allocate(sameDay, 6)
	if res.Allocations[0].DealItemID != "A" {
		t.Errorf("tiebreak consumed %s first, want A", res.Allocations[0].DealItemID)
	}
	if res.Allocations[0].DeliverQty != 5 || res.Allocations[1].DeliverQty != 1 {
		t.Errorf("split = %v/%v, want 5/1",
			res.Allocations[0].DeliverQty, res.Allocations[1].DeliverQty)
	}
}

func TestAllocateSkipsNonPositivePending(t *testing.T) {
	lines := []PendingLine{
		{DealItemID: "drained", DealDate: day("2026-01-01"), PendingQty: 0, Rate: 10},
		{DealItemID: "negative", DealDate: day("2026-01-02"), PendingQty: -3, Rate: 10},
		{DealItemID: "live", DealDate: day("2026-01-03"), PendingQty: 4, Rate: 10},
	}

	res := Allocate(lines, 10)
	if len(res.Allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(res.Allocations))
	}
	if res.Allocations[0].DealItemID != "live" {
		t.Errorf("consumed %s, want live", res.Allocations[0].DealItemID)
	}
}

func TestAllocateConservation(t *testing.T) {
	tests := []struct {
		name      string
		requested float64
	}{
		{"under pending", 7},
		{"exact pending", 35},
		{"over pending", 200},
		{"fractional", 12.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := pendingFixture()
			res := Allocate(lines, tt.requested)

			var total float64
			for _, a := range res.Allocations {
				total += a.DeliverQty
				if a.DeliverQty > a.PendingQty {
					t.Errorf("allocation %s qty %v exceeds pending %v",
						a.DealItemID, a.DeliverQty, a.PendingQty)
				}
			}
			if total > tt.requested+1e-9 {
				t.Errorf("allocated total %v exceeds requested %v", total, tt.requested)
			}
			if math.Abs(total-res.Allocated) > 1e-9 {
				t.Errorf("Allocated %v disagrees with sum %v", res.Allocated, total)
			}
			if math.Abs(res.Allocated+res.Unallocated-tt.requested) > 1e-9 {
				t.Errorf("allocated %v + unallocated %v != requested %v",
					res.Allocated, res.Unallocated, tt.requested)
			}
		})
	}
}
