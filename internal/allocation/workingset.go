package allocation

import (
	"errors"
	"fmt"
)

// Edits may exceed a source line's pending weight by at most one kg
// (0.01 quintal) to absorb float noise; anything beyond is clamped.
const kgTolerance = 1.0

var (
	ErrRowNotFound      = errors.New("working set row not found")
	ErrUnknownPackSize  = errors.New("unknown pack size")
	ErrNotSplitRow      = errors.New("row is not a split row")
	ErrNothingToConfirm = errors.New("no items selected")
)

type RowKind string

const (
	RowPrimary RowKind = "primary"
	RowSplit   RowKind = "split"
)

// Row is one editable line of the working set. Split rows reference the
// same source deal item as their primary and share its pending-kg cap.
type Row struct {
	ID               int
	Kind             RowKind
	ParentID         int // split rows only
	DealID           string
	DealItemID       string
	CustomerName     string
	Item             string
	ItemName         string
	PackSize         string
	PackWeightKg     float64
	DealQty          float64
	AlreadyDelivered float64
	PendingQty       float64
	PendingKg        float64 // cap shared by all rows of the same source line
	PricePerKg       float64
	DeliverQty       float64
	Rate             float64
	Amount           float64
}

type Totals struct {
	Lines       int // rows with a positive deliver qty
	TotalQty    float64
	TotalKg     float64
	TotalQtl    float64
	TotalAmount float64
}

// WorkingSet is the editable grid built from an allocation result. Every
// edit returns a fresh snapshot; callers never mutate rows in place, so a
// stale reference can not corrupt sibling computations.
type WorkingSet struct {
	rows        []Row
	packWeights map[string]float64 // pack size -> weight kg
	bagCosts    map[string]float64 // "item:pack_size" -> per-pack cost
	nextID      int
}

// NewWorkingSet builds the grid from an allocation result plus the pack
// catalogue and bag-cost map fetched alongside it.
func NewWorkingSet(allocs []Allocation, packWeights map[string]float64, bagCosts map[string]float64) *WorkingSet {
	ws := &WorkingSet{
		packWeights: packWeights,
		bagCosts:    bagCosts,
		nextID:      1,
	}
	for _, a := range allocs {
		ws.rows = append(ws.rows, Row{
			ID:               ws.nextID,
			Kind:             RowPrimary,
			DealID:           a.DealID,
			DealItemID:       a.DealItemID,
			CustomerName:     a.CustomerName,
			Item:             a.Item,
			ItemName:         a.ItemName,
			PackSize:         a.PackSize,
			PackWeightKg:     a.PackWeightKg,
			DealQty:          a.DealQty,
			AlreadyDelivered: a.AlreadyDelivered,
			PendingQty:       a.PendingQty,
			PendingKg:        a.PendingKg,
			PricePerKg:       a.PricePerKg,
			DeliverQty:       a.DeliverQty,
			Rate:             a.Rate,
			Amount:           a.Amount,
		})
		ws.nextID++
	}
	return ws
}

func (ws *WorkingSet) clone() *WorkingSet {
	rows := make([]Row, len(ws.rows))
	copy(rows, ws.rows)
	return &WorkingSet{
		rows:        rows,
		packWeights: ws.packWeights,
		bagCosts:    ws.bagCosts,
		nextID:      ws.nextID,
	}
}

// Rows returns a copy of the current rows in display order.
func (ws *WorkingSet) Rows() []Row {
	rows := make([]Row, len(ws.rows))
	copy(rows, ws.rows)
	return rows
}

func (ws *WorkingSet) indexOf(id int) int {
	for i := range ws.rows {
		if ws.rows[i].ID == id {
			return i
		}
	}
	return -1
}

// siblingKg sums the weight already claimed by other rows that draw on
// the same source deal item.
func (ws *WorkingSet) siblingKg(idx int) float64 {
	row := ws.rows[idx]
	if row.DealItemID == "" {
		return 0
	}
	var kg float64
	for i := range ws.rows {
		if i == idx {
			continue
		}
		if ws.rows[i].DealItemID == row.DealItemID {
			kg += ws.rows[i].DeliverQty * ws.rows[i].PackWeightKg
		}
	}
	return kg
}

// clampQty caps qty so the row plus its siblings stay within the source
// line's pending weight. Returns the capped qty and whether it was cut.
func (ws *WorkingSet) clampQty(idx int, qty float64) (float64, bool) {
	row := ws.rows[idx]
	if qty < 0 {
		return 0, true
	}
	if row.DealItemID == "" || row.PackWeightKg <= 0 {
		return qty, false
	}

	remainingKg := row.PendingKg - ws.siblingKg(idx)
	if remainingKg < 0 {
		remainingKg = 0
	}
	if qty*row.PackWeightKg > remainingKg+kgTolerance {
		capped := remainingKg / row.PackWeightKg
		if capped < 0 {
			capped = 0
		}
		return capped, true
	}
	return qty, false
}

// SetQty produces a snapshot with the row's deliver qty changed. A value
// that would exceed the source line's remaining pending weight is clamped
// and the returned warning is non-empty.
func (ws *WorkingSet) SetQty(id int, qty float64) (*WorkingSet, string, error) {
	idx := ws.indexOf(id)
	if idx < 0 {
		return nil, "", fmt.Errorf("row %d: %w", id, ErrRowNotFound)
	}

	next := ws.clone()
	warning := ""
	capped, clamped := next.clampQty(idx, qty)
	if clamped {
		warning = fmt.Sprintf(
			"qty %.2f exceeds remaining pending balance; capped to %.2f packs", qty, capped)
	}
	next.rows[idx].DeliverQty = capped
	next.rows[idx].Amount = capped * next.rows[idx].Rate
	return next, warning, nil
}

// SetPackSize produces a snapshot with the row switched to another pack
// size: weight from the catalogue, rate recomputed from the line's price
// basis plus the bag cost for the new item+pack combination, and the qty
// re-clamped against the shared cap under the new weight.
func (ws *WorkingSet) SetPackSize(id int, packSize string) (*WorkingSet, string, error) {
	idx := ws.indexOf(id)
	if idx < 0 {
		return nil, "", fmt.Errorf("row %d: %w", id, ErrRowNotFound)
	}
	weight, ok := ws.packWeights[packSize]
	if !ok || weight <= 0 {
		return nil, "", fmt.Errorf("%q: %w", packSize, ErrUnknownPackSize)
	}

	next := ws.clone()
	row := &next.rows[idx]
	row.PackSize = packSize
	row.PackWeightKg = weight
	row.Rate = row.PricePerKg*weight + next.bagCosts[row.Item+":"+packSize]

	warning := ""
	capped, clamped := next.clampQty(idx, row.DeliverQty)
	if clamped {
		warning = fmt.Sprintf(
			"qty %.2f no longer fits at pack size %s; capped to %.2f packs", row.DeliverQty, packSize, capped)
	}
	row.DeliverQty = capped
	row.Amount = capped * row.Rate
	return next, warning, nil
}

// Split appends a zero-qty sibling drawing on the same source line,
// placed after the last existing sibling.
func (ws *WorkingSet) Split(id int) (*WorkingSet, error) {
	idx := ws.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("row %d: %w", id, ErrRowNotFound)
	}

	next := ws.clone()
	src := next.rows[idx]
	parentID := src.ID
	if src.Kind == RowSplit {
		parentID = src.ParentID
	}

	insertAt := idx + 1
	for i := idx + 1; i < len(next.rows); i++ {
		if next.rows[i].DealItemID == src.DealItemID {
			insertAt = i + 1
		} else {
			break
		}
	}

	sibling := src
	sibling.ID = next.nextID
	sibling.Kind = RowSplit
	sibling.ParentID = parentID
	sibling.DeliverQty = 0
	sibling.Amount = 0
	next.nextID++

	next.rows = append(next.rows, Row{})
	copy(next.rows[insertAt+1:], next.rows[insertAt:])
	next.rows[insertAt] = sibling
	return next, nil
}

// RemoveSplit drops a split row. Primary rows stay; zeroing their qty is
// how a primary line is excluded.
func (ws *WorkingSet) RemoveSplit(id int) (*WorkingSet, error) {
	idx := ws.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("row %d: %w", id, ErrRowNotFound)
	}
	if ws.rows[idx].Kind != RowSplit {
		return nil, fmt.Errorf("row %d: %w", id, ErrNotSplitRow)
	}

	next := ws.clone()
	next.rows = append(next.rows[:idx], next.rows[idx+1:]...)
	return next, nil
}

// Totals recomputes the footer summary from scratch. Recomputation is
// total rather than incremental so the summary stays right under any
// edit order.
func (ws *WorkingSet) Totals() Totals {
	var t Totals
	for _, row := range ws.rows {
		if row.DeliverQty <= 0 {
			continue
		}
		t.Lines++
		t.TotalQty += row.DeliverQty
		t.TotalKg += row.DeliverQty * row.PackWeightKg
		t.TotalAmount += row.Amount
	}
	t.TotalQtl = t.TotalKg / 100
	return t
}

// Confirm materializes rows with a positive deliver qty. Zero-qty rows
// are silently dropped; an all-zero set is a validation error.
func (ws *WorkingSet) Confirm() ([]Row, error) {
	var confirmed []Row
	for _, row := range ws.rows {
		if row.DeliverQty > 0 {
			confirmed = append(confirmed, row)
		}
	}
	if len(confirmed) == 0 {
		return nil, ErrNothingToConfirm
	}
	return confirmed, nil
}
