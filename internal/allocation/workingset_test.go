package allocation

import (
	"errors"
	"math"
	"testing"
)

var testPackWeights = map[string]float64{
	"25KG": 25,
	"30KG": 30,
	"50KG": 50,
}

var testBagCosts = map[string]float64{
	"WHEAT:25KG": 5,
	"WHEAT:30KG": 6,
	"WHEAT:50KG": 8,
}

// One source line: 10 packs of 50 kg pending (500 kg), priced at 2/kg.
func singleLineSet() *WorkingSet {
	allocs := []Allocation{
		{
			DealID:     "D1",
			DealItemID: "DI1",
			Item:       "WHEAT",
			PackSize:   "50KG",
			PackWeightKg: 50,
			DealQty:    10,
			PendingQty: 10,
			PendingKg:  500,
			PricePerKg: 2,
			DeliverQty: 10,
			Rate:       100,
			Amount:     1000,
		},
	}
	return NewWorkingSet(allocs, testPackWeights, testBagCosts)
}

func TestSetQtyClampsToPendingWeight(t *testing.T) {
	ws := singleLineSet()

	next, warning, err := ws.SetQty(1, 12)
	if err != nil {
		t.Fatalf("SetQty: %v", err)
	}
	if warning == "" {
		t.Error("expected a clamp warning")
	}
	row := next.Rows()[0]
	if row.DeliverQty != 10 {
		t.Errorf("qty = %v, want clamped 10", row.DeliverQty)
	}
	if row.Amount != 1000 {
		t.Errorf("amount = %v, want 1000", row.Amount)
	}

	// The original snapshot is untouched.
	if ws.Rows()[0].DeliverQty != 10 {
		t.Errorf("source snapshot mutated: qty = %v", ws.Rows()[0].DeliverQty)
	}
}

func TestSetQtyWithinCapNoWarning(t *testing.T) {
	ws := singleLineSet()

	next, warning, err := ws.SetQty(1, 4)
	if err != nil {
		t.Fatalf("SetQty: %v", err)
	}
	if warning != "" {
		t.Errorf("unexpected warning: %s", warning)
	}
	row := next.Rows()[0]
	if row.DeliverQty != 4 || row.Amount != 400 {
		t.Errorf("row = %v qty / %v amount, want 4 / 400", row.DeliverQty, row.Amount)
	}
}

func TestSetQtyNegativeBecomesZero(t *testing.T) {
	ws := singleLineSet()

	next, warning, err := ws.SetQty(1, -3)
	if err != nil {
		t.Fatalf("SetQty: %v", err)
	}
	if warning == "" {
		t.Error("expected warning for negative input")
	}
	if got := next.Rows()[0].DeliverQty; got != 0 {
		t.Errorf("qty = %v, want 0", got)
	}
}

func TestSetQtyUnknownRow(t *testing.T) {
	ws := singleLineSet()
	_, _, err := ws.SetQty(99, 1)
	if !errors.Is(err, ErrRowNotFound) {
		t.Errorf("err = %v, want ErrRowNotFound", err)
	}
}

func TestSetPackSizeRecomputesRate(t *testing.T) {
	ws := singleLineSet()

	next, _, err := ws.SetPackSize(1, "25KG")
	if err != nil {
		t.Fatalf("SetPackSize: %v", err)
	}
	row := next.Rows()[0]
	if row.PackWeightKg != 25 {
		t.Errorf("weight = %v, want 25", row.PackWeightKg)
	}
	// rate = price_per_kg * weight + bag cost = 2*25 + 5
	if row.Rate != 55 {
		t.Errorf("rate = %v, want 55", row.Rate)
	}
	if row.Amount != row.DeliverQty*55 {
		t.Errorf("amount = %v, want %v", row.Amount, row.DeliverQty*55)
	}
}

func TestSetPackSizeUnknown(t *testing.T) {
	ws := singleLineSet()
	_, _, err := ws.SetPackSize(1, "99KG")
	if !errors.Is(err, ErrUnknownPackSize) {
		t.Errorf("err = %v, want ErrUnknownPackSize", err)
	}
}

func TestSplitSharesPendingWeightCap(t *testing.T) {
	ws := singleLineSet()

	// Split the 500 kg line and move the sibling to 25 kg packs.
	ws2, err := ws.Split(1)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	rows := ws2.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after split, got %d", len(rows))
	}
	split := rows[1]
	if split.Kind != RowSplit || split.ParentID != 1 {
		t.Errorf("split row kind/parent = %s/%d, want split/1", split.Kind, split.ParentID)
	}
	if split.DeliverQty != 0 {
		t.Errorf("split starts at qty %v, want 0", split.DeliverQty)
	}

	ws3, _, err := ws2.SetPackSize(split.ID, "25KG")
	if err != nil {
		t.Fatalf("SetPackSize: %v", err)
	}

	// Primary takes 6 packs x 50 kg = 300 kg, leaving 200 kg.
	ws4, _, err := ws3.SetQty(1, 6)
	if err != nil {
		t.Fatalf("SetQty primary: %v", err)
	}

	// 10 x 25 kg = 250 kg exceeds the remaining 200 kg: clamp to 8.
	ws5, warning, err := ws4.SetQty(split.ID, 10)
	if err != nil {
		t.Fatalf("SetQty split: %v", err)
	}
	if warning == "" {
		t.Error("expected clamp warning on split row")
	}
	got := ws5.Rows()[1].DeliverQty
	if got != 8 {
		t.Errorf("split qty = %v, want 8", got)
	}

	// Combined weight stays within the cap plus tolerance.
	var totalKg float64
	for _, r := range ws5.Rows() {
		totalKg += r.DeliverQty * r.PackWeightKg
	}
	if totalKg > 500+kgTolerance {
		t.Errorf("combined weight %v exceeds pending 500 kg", totalKg)
	}
}

func TestSplitCapQuintalProperty(t *testing.T) {
	// w1=50, w2=30 against a 500 kg (5 qtl) source line.
	ws := singleLineSet()
	ws2, err := ws.Split(1)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	splitID := ws2.Rows()[1].ID

	ws3, _, err := ws2.SetPackSize(splitID, "30KG")
	if err != nil {
		t.Fatalf("SetPackSize: %v", err)
	}
	ws4, _, err := ws3.SetQty(1, 7) // 350 kg
	if err != nil {
		t.Fatalf("SetQty: %v", err)
	}
	ws5, _, err := ws4.SetQty(splitID, 100) // way over: clamp to 150/30 = 5
	if err != nil {
		t.Fatalf("SetQty: %v", err)
	}

	rows := ws5.Rows()
	q1, w1 := rows[0].DeliverQty, rows[0].PackWeightKg
	q2, w2 := rows[1].DeliverQty, rows[1].PackWeightKg
	if q2 != 5 {
		t.Errorf("split qty = %v, want 5", q2)
	}
	if q1*w1/100+q2*w2/100 > 5+0.01 {
		t.Errorf("quintal sum %.4f exceeds cap 5 qtl",
			q1*w1/100+q2*w2/100)
	}
}

func TestRemoveSplit(t *testing.T) {
	ws := singleLineSet()
	ws2, _ := ws.Split(1)
	splitID := ws2.Rows()[1].ID

	ws3, err := ws2.RemoveSplit(splitID)
	if err != nil {
		t.Fatalf("RemoveSplit: %v", err)
	}
	if len(ws3.Rows()) != 1 {
		t.Errorf("rows = %d, want 1", len(ws3.Rows()))
	}

	if _, err := ws2.RemoveSplit(1); !errors.Is(err, ErrNotSplitRow) {
		t.Errorf("removing primary: err = %v, want ErrNotSplitRow", err)
	}
}

func TestTotalsFullRecompute(t *testing.T) {
	allocs := []Allocation{
		{DealItemID: "DI1", Item: "WHEAT", PackSize: "50KG", PackWeightKg: 50,
			PendingQty: 10, PendingKg: 500, PricePerKg: 2, DeliverQty: 4, Rate: 100, Amount: 400},
		{DealItemID: "DI2", Item: "WHEAT", PackSize: "25KG", PackWeightKg: 25,
			PendingQty: 8, PendingKg: 200, PricePerKg: 2, DeliverQty: 0, Rate: 55, Amount: 0},
	}
	ws := NewWorkingSet(allocs, testPackWeights, testBagCosts)

	got := ws.Totals()
	want := Totals{Lines: 1, TotalQty: 4, TotalKg: 200, TotalQtl: 2, TotalAmount: 400}
	if got != want {
		t.Errorf("Totals() = %+v, want %+v", got, want)
	}

	// Raising the zero row pulls it into every figure.
	ws2, _, err := ws.SetQty(2, 8)
	if err != nil {
		t.Fatalf("SetQty: %v", err)
	}
	got = ws2.Totals()
	if got.Lines != 2 || got.TotalQty != 12 {
		t.Errorf("after edit Lines/TotalQty = %d/%v, want 2/12", got.Lines, got.TotalQty)
	}
	if math.Abs(got.TotalKg-400) > 1e-9 || math.Abs(got.TotalQtl-4) > 1e-9 {
		t.Errorf("after edit kg/qtl = %v/%v, want 400/4", got.TotalKg, got.TotalQtl)
	}
	if got.TotalAmount != 400+8*55 {
		t.Errorf("after edit amount = %v, want %v", got.TotalAmount, 400+8*55.0)
	}
}

func TestConfirm(t *testing.T) {
	ws := singleLineSet()

	rows, err := ws.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("confirmed rows = %d, want 1", len(rows))
	}

	// Zeroing everything blocks confirm.
	ws2, _, err := ws.SetQty(1, 0)
	if err != nil {
		t.Fatalf("SetQty: %v", err)
	}
	if _, err := ws2.Confirm(); !errors.Is(err, ErrNothingToConfirm) {
		t.Errorf("err = %v, want ErrNothingToConfirm", err)
	}
}

func TestConfirmDropsZeroRows(t *testing.T) {
	allocs := []Allocation{
		{DealItemID: "DI1", PackSize: "50KG", PackWeightKg: 50, PendingQty: 10,
			PendingKg: 500, DeliverQty: 3, Rate: 100, Amount: 300},
		{DealItemID: "DI2", PackSize: "50KG", PackWeightKg: 50, PendingQty: 5,
			PendingKg: 250, DeliverQty: 0, Rate: 110, Amount: 0},
	}
	ws := NewWorkingSet(allocs, testPackWeights, testBagCosts)

	rows, err := ws.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(rows) != 1 || rows[0].DealItemID != "DI1" {
		t.Errorf("confirmed = %+v, want only DI1", rows)
	}
}
