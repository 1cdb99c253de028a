package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trustbit/mandi-service/internal/deal"
	"github.com/trustbit/mandi-service/internal/deal/dto"
	"github.com/trustbit/mandi-service/internal/model"
	"go.uber.org/zap"
)

type mockRepo struct {
	deals     map[string]*model.Deal
	created   *model.Deal
	saved     *model.Deal
	delivered map[string]float64
	activeIDs []string
	statuses  map[string]string

	createErr error
	sumErr    error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		deals:     map[string]*model.Deal{},
		delivered: map[string]float64{},
		statuses:  map[string]string{},
	}
}

func (m *mockRepo) Create(_ context.Context, d *model.Deal) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = d
	m.deals[d.ID] = d
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*model.Deal, error) {
	return m.deals[id], nil
}

func (m *mockRepo) FindAll(_ context.Context, _ *dto.DealFilters) ([]model.Deal, int, error) {
	out := make([]model.Deal, 0, len(m.deals))
	for _, d := range m.deals {
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id, status string) error {
	m.statuses[id] = status
	if d, ok := m.deals[id]; ok {
		d.Status = status
	}
	return nil
}

func (m *mockRepo) SumDeliveredByItem(_ context.Context, _ string) (map[string]float64, error) {
	if m.sumErr != nil {
		return nil, m.sumErr
	}
	return m.delivered, nil
}

func (m *mockRepo) SaveDeliveryProgress(_ context.Context, d *model.Deal) error {
	m.saved = d
	return nil
}

func (m *mockRepo) ListActiveIDs(_ context.Context) ([]string, error) {
	return m.activeIDs, nil
}

type mockCatalogue struct {
	weights map[string]float64
	rates   map[string]*model.PackRate
	rateErr error
}

func (m *mockCatalogue) ListPackSizes(_ context.Context) ([]model.PackSize, error) {
	return nil, nil
}

func (m *mockCatalogue) PackWeightMap(_ context.Context) (map[string]float64, error) {
	return m.weights, nil
}

func (m *mockCatalogue) BagCostMap(_ context.Context) (map[string]float64, error) {
	return nil, nil
}

func (m *mockCatalogue) LatestPrice(_ context.Context, _, _ string, _ time.Time) (*model.PriceListEntry, error) {
	return nil, nil
}

func (m *mockCatalogue) RateForPackSize(_ context.Context, _, item, packSize string, _ time.Time) (*model.PackRate, error) {
	if m.rateErr != nil {
		return nil, m.rateErr
	}
	return m.rates[item+":"+packSize], nil
}

func (m *mockCatalogue) PricesForArea(_ context.Context, _ string) ([]model.PriceListEntry, error) {
	return nil, nil
}

func newTestUseCase(repo *mockRepo, cat *mockCatalogue) deal.UseCase {
	if cat == nil {
		cat = &mockCatalogue{weights: map[string]float64{"50KG": 50, "25KG": 25}}
	}
	return NewDealUseCase(repo, cat, zap.NewNop())
}

func TestCreateComputesAmountsAndTotals(t *testing.T) {
	repo := newMockRepo()
	uc := newTestUseCase(repo, nil)

	got, err := uc.Create(context.Background(), &dto.CreateDealInput{
		Customer:     "CUST-001",
		CustomerName: "Sharma Traders",
		Items: []dto.CreateDealItemRow{
			{Item: "WHEAT", PackSize: "50KG", Qty: 10, Rate: 100},
			{Item: "WHEAT", PackSize: "25KG", Qty: 4, Rate: 55},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got.TotalQty != 14 {
		t.Errorf("TotalQty = %v, want 14", got.TotalQty)
	}
	if got.TotalAmount != 1220 {
		t.Errorf("TotalAmount = %v, want 1220", got.TotalAmount)
	}
	if got.Status != model.DealStatusOpen {
		t.Errorf("Status = %q, want %q", got.Status, model.DealStatusOpen)
	}
	if repo.created == nil {
		t.Fatal("deal was not persisted")
	}

	first := got.Items[0]
	if first.Amount != 1000 {
		t.Errorf("item amount = %v, want 1000", first.Amount)
	}
	if first.PendingQty != 10 {
		t.Errorf("item pending = %v, want 10", first.PendingQty)
	}
	if first.PackWeightKg != 50 {
		t.Errorf("pack weight = %v, want 50 from catalogue", first.PackWeightKg)
	}
	if first.ItemStatus != model.ItemStatusOpen {
		t.Errorf("item status = %q, want %q", first.ItemStatus, model.ItemStatusOpen)
	}
	if first.Idx != 1 || got.Items[1].Idx != 2 {
		t.Errorf("idx sequence = %d,%d, want 1,2", first.Idx, got.Items[1].Idx)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   *dto.CreateDealInput
		wantErr error
	}{
		{
			name:    "no items",
			input:   &dto.CreateDealInput{Customer: "CUST-001"},
			wantErr: deal.ErrNoItems,
		},
		{
			name: "zero qty",
			input: &dto.CreateDealInput{
				Customer: "CUST-001",
				Items:    []dto.CreateDealItemRow{{Item: "WHEAT", PackSize: "50KG", Qty: 0, Rate: 100}},
			},
			wantErr: deal.ErrInvalidQty,
		},
		{
			name: "delivered exceeds qty",
			input: &dto.CreateDealInput{
				Customer: "CUST-001",
				Items:    []dto.CreateDealItemRow{{Item: "WHEAT", PackSize: "50KG", Qty: 5, DeliveredQty: 6, Rate: 100}},
			},
			wantErr: deal.ErrDeliveredExceedsQty,
		},
		{
			name: "unknown pack size",
			input: &dto.CreateDealInput{
				Customer: "CUST-001",
				Items:    []dto.CreateDealItemRow{{Item: "WHEAT", PackSize: "60KG", Qty: 5, Rate: 100}},
			},
			wantErr: deal.ErrUnknownPackSize,
		},
		{
			name: "no rate and no price list",
			input: &dto.CreateDealInput{
				Customer: "CUST-001",
				Items:    []dto.CreateDealItemRow{{Item: "WHEAT", PackSize: "50KG", Qty: 5}},
			},
			wantErr: deal.ErrMissingRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := newTestUseCase(newMockRepo(), nil)
			_, err := uc.Create(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateResolvesRateFromPriceList(t *testing.T) {
	repo := newMockRepo()
	cat := &mockCatalogue{
		weights: map[string]float64{"25KG": 25},
		rates: map[string]*model.PackRate{
			"WHEAT:25KG": {Rate: 55, PricePerKg: 2, BasePrice50Kg: 100, PackWeightKg: 25, PriceListRef: "PL-001"},
		},
	}
	uc := newTestUseCase(repo, cat)

	got, err := uc.Create(context.Background(), &dto.CreateDealInput{
		Customer:      "CUST-001",
		PriceListArea: "AZADPUR",
		Items:         []dto.CreateDealItemRow{{Item: "WHEAT", PackSize: "25KG", Qty: 4}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	item := got.Items[0]
	if item.Rate != 55 {
		t.Errorf("Rate = %v, want 55 from price list", item.Rate)
	}
	if item.PricePerKg != 2 || item.BasePrice50Kg != 100 {
		t.Errorf("price fields = %v/%v, want 2/100", item.PricePerKg, item.BasePrice50Kg)
	}
	if item.PriceListRef == nil || *item.PriceListRef != "PL-001" {
		t.Errorf("PriceListRef = %v, want PL-001", item.PriceListRef)
	}
	if item.Amount != 220 {
		t.Errorf("Amount = %v, want 220", item.Amount)
	}
}

func TestConfirmTransitions(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		wantErr error
	}{
		{"from open", model.DealStatusOpen, nil},
		{"from confirmed", model.DealStatusConfirmed, deal.ErrInvalidTransition},
		{"from cancelled", model.DealStatusCancelled, deal.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			repo.deals["d1"] = &model.Deal{ID: "d1", Status: tt.status}
			uc := newTestUseCase(repo, nil)

			got, err := uc.Confirm(context.Background(), "d1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Confirm err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got.Status != model.DealStatusConfirmed {
				t.Errorf("Status = %q, want %q", got.Status, model.DealStatusConfirmed)
			}
		})
	}
}

func TestConfirmMissingDeal(t *testing.T) {
	uc := newTestUseCase(newMockRepo(), nil)
	_, err := uc.Confirm(context.Background(), "nope")
	if !errors.Is(err, deal.ErrNotFound) {
		t.Errorf("Confirm err = %v, want %v", err, deal.ErrNotFound)
	}
}

func TestCancelBlockedWhenTerminal(t *testing.T) {
	tests := []struct {
		status  string
		wantErr error
	}{
		{model.DealStatusOpen, nil},
		{model.DealStatusPartiallyDelivered, nil},
		{model.DealStatusDelivered, deal.ErrInvalidTransition},
		{model.DealStatusCancelled, deal.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			repo := newMockRepo()
			repo.deals["d1"] = &model.Deal{ID: "d1", Status: tt.status}
			uc := newTestUseCase(repo, nil)

			_, err := uc.Cancel(context.Background(), "d1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Cancel err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecalculateDeliveryStatus(t *testing.T) {
	repo := newMockRepo()
	repo.deals["d1"] = &model.Deal{
		ID:     "d1",
		Status: model.DealStatusConfirmed,
		Items: []model.DealItem{
			{ID: "i1", Qty: 10, Rate: 100, Amount: 1000},
			{ID: "i2", Qty: 5, Rate: 110, Amount: 550},
		},
	}
	repo.delivered = map[string]float64{"i1": 10, "i2": 2}
	uc := newTestUseCase(repo, nil)

	got, err := uc.RecalculateDeliveryStatus(context.Background(), "d1")
	if err != nil {
		t.Fatalf("RecalculateDeliveryStatus: %v", err)
	}

	if got.Items[0].ItemStatus != model.ItemStatusDelivered {
		t.Errorf("i1 status = %q, want Delivered", got.Items[0].ItemStatus)
	}
	if got.Items[1].ItemStatus != model.ItemStatusPartiallyDelivered {
		t.Errorf("i2 status = %q, want Partially Delivered", got.Items[1].ItemStatus)
	}
	if got.Items[1].PendingQty != 3 {
		t.Errorf("i2 pending = %v, want 3", got.Items[1].PendingQty)
	}
	if got.Status != model.DealStatusPartiallyDelivered {
		t.Errorf("deal status = %q, want Partially Delivered", got.Status)
	}
	if repo.saved == nil {
		t.Error("progress was not persisted")
	}
}

func TestRecalculateSkipsCancelled(t *testing.T) {
	repo := newMockRepo()
	repo.deals["d1"] = &model.Deal{
		ID:     "d1",
		Status: model.DealStatusCancelled,
		Items:  []model.DealItem{{ID: "i1", Qty: 10}},
	}
	repo.delivered = map[string]float64{"i1": 10}
	uc := newTestUseCase(repo, nil)

	got, err := uc.RecalculateDeliveryStatus(context.Background(), "d1")
	if err != nil {
		t.Fatalf("RecalculateDeliveryStatus: %v", err)
	}
	if got.Status != model.DealStatusCancelled {
		t.Errorf("Status = %q, cancelled must stay cancelled", got.Status)
	}
	if repo.saved != nil {
		t.Error("cancelled deal must not be rewritten")
	}
}

func TestRecalculateAllContinuesOnError(t *testing.T) {
	repo := newMockRepo()
	repo.activeIDs = []string{"missing", "d1"}
	repo.deals["d1"] = &model.Deal{
		ID:     "d1",
		Status: model.DealStatusConfirmed,
		Items:  []model.DealItem{{ID: "i1", Qty: 10, Rate: 100, Amount: 1000}},
	}
	uc := newTestUseCase(repo, nil)

	n, err := uc.RecalculateAll(context.Background())
	if err != nil {
		t.Fatalf("RecalculateAll: %v", err)
	}
	if n != 1 {
		t.Errorf("recalculated = %d, want 1", n)
	}
}

func TestDeriveDealStatus(t *testing.T) {
	items := func(statuses ...string) []model.DealItem {
		out := make([]model.DealItem, len(statuses))
		for i, s := range statuses {
			out[i] = model.DealItem{ItemStatus: s}
		}
		return out
	}

	tests := []struct {
		name    string
		current string
		items   []model.DealItem
		want    string
	}{
		{"all delivered", model.DealStatusConfirmed, items(model.ItemStatusDelivered, model.ItemStatusDelivered), model.DealStatusDelivered},
		{"mixed", model.DealStatusConfirmed, items(model.ItemStatusDelivered, model.ItemStatusOpen), model.DealStatusPartiallyDelivered},
		{"one partial", model.DealStatusOpen, items(model.ItemStatusPartiallyDelivered, model.ItemStatusOpen), model.DealStatusPartiallyDelivered},
		{"nothing shipped keeps open", model.DealStatusOpen, items(model.ItemStatusOpen), model.DealStatusOpen},
		{"nothing shipped keeps confirmed", model.DealStatusConfirmed, items(model.ItemStatusOpen), model.DealStatusConfirmed},
		{"cancelled is sticky", model.DealStatusCancelled, items(model.ItemStatusDelivered), model.DealStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveDealStatus(tt.current, tt.items); got != tt.want {
				t.Errorf("deriveDealStatus(%q) = %q, want %q", tt.current, got, tt.want)
			}
		})
	}
}
