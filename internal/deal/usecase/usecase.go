package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trustbit/mandi-service/internal/catalogue"
	"github.com/trustbit/mandi-service/internal/deal"
	"github.com/trustbit/mandi-service/internal/deal/dto"
	"github.com/trustbit/mandi-service/internal/model"
	"go.uber.org/zap"
)

type dealUseCase struct {
	repo      deal.Repository
	catalogue catalogue.UseCase
	logger    *zap.Logger
}

func NewDealUseCase(repo deal.Repository, cat catalogue.UseCase, log *zap.Logger) deal.UseCase {
	return &dealUseCase{
		repo:      repo,
		catalogue: cat,
		logger:    log,
	}
}

func (uc *dealUseCase) Create(ctx context.Context, input *dto.CreateDealInput) (*model.Deal, error) {
	if len(input.Items) == 0 {
		return nil, deal.ErrNoItems
	}

	now := time.Now()
	dealDate := input.DealDate
	if dealDate.IsZero() {
		dealDate = now
	}
	status := model.DealStatusOpen
	if input.Status == model.DealStatusConfirmed {
		status = model.DealStatusConfirmed
	}

	var area *string
	if input.PriceListArea != "" {
		a := input.PriceListArea
		area = &a
	}

	packWeights, err := uc.catalogue.PackWeightMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pack catalogue: %w", err)
	}

	d := &model.Deal{
		ID:            uuid.New().String(),
		Customer:      input.Customer,
		CustomerName:  input.CustomerName,
		PriceListArea: area,
		DealDate:      dealDate,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for i, row := range input.Items {
		if row.Qty <= 0 {
			return nil, fmt.Errorf("row %d: %w", i+1, deal.ErrInvalidQty)
		}
		if row.DeliveredQty > row.Qty {
			return nil, fmt.Errorf("row %d: delivered %v vs qty %v: %w",
				i+1, row.DeliveredQty, row.Qty, deal.ErrDeliveredExceedsQty)
		}

		weight := row.PackWeightKg
		if weight <= 0 {
			w, ok := packWeights[row.PackSize]
			if !ok {
				return nil, fmt.Errorf("row %d: %q: %w", i+1, row.PackSize, deal.ErrUnknownPackSize)
			}
			weight = w
		}

		item := model.DealItem{
			ID:            uuid.New().String(),
			DealID:        d.ID,
			Idx:           i + 1,
			Item:          row.Item,
			ItemName:      row.ItemName,
			PackSize:      row.PackSize,
			PackWeightKg:  weight,
			Qty:           row.Qty,
			DeliveredQty:  row.DeliveredQty,
			Rate:          row.Rate,
			PricePerKg:    row.PricePerKg,
			BasePrice50Kg: row.BasePrice50Kg,
		}

		if item.Rate == 0 && area != nil {
			rate, err := uc.catalogue.RateForPackSize(ctx, *area, row.Item, row.PackSize, dealDate)
			if err != nil {
				return nil, fmt.Errorf("row %d: failed to resolve rate: %w", i+1, err)
			}
			if rate != nil {
				item.Rate = rate.Rate
				item.PricePerKg = rate.PricePerKg
				item.BasePrice50Kg = rate.BasePrice50Kg
				ref := rate.PriceListRef
				item.PriceListRef = &ref
			}
		}
		if item.Rate == 0 {
			return nil, fmt.Errorf("row %d (%s/%s): %w", i+1, row.Item, row.PackSize, deal.ErrMissingRate)
		}

		item.Amount = item.Qty * item.Rate
		item.PendingQty = item.Qty - item.DeliveredQty
		item.ItemStatus = deriveItemStatus(item.DeliveredQty, item.Qty)
		d.Items = append(d.Items, item)
	}

	recalculateTotals(d)
	d.Status = deriveDealStatus(d.Status, d.Items)

	if err := uc.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	uc.logger.Info("deal created",
		zap.String("deal_id", d.ID),
		zap.String("customer", d.Customer),
		zap.Int("items", len(d.Items)),
		zap.Float64("total_qty", d.TotalQty))
	return d, nil
}

func (uc *dealUseCase) GetByID(ctx context.Context, id string) (*model.Deal, error) {
	d, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, deal.ErrNotFound
	}
	return d, nil
}

func (uc *dealUseCase) List(ctx context.Context, filters *dto.DealFilters) ([]model.Deal, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *dealUseCase) Confirm(ctx context.Context, id string) (*model.Deal, error) {
	d, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status != model.DealStatusOpen {
		return nil, fmt.Errorf("confirm from %q: %w", d.Status, deal.ErrInvalidTransition)
	}
	if err := uc.repo.UpdateStatus(ctx, id, model.DealStatusConfirmed); err != nil {
		return nil, err
	}
	d.Status = model.DealStatusConfirmed
	return d, nil
}

func (uc *dealUseCase) Cancel(ctx context.Context, id string) (*model.Deal, error) {
	d, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == model.DealStatusCancelled || d.Status == model.DealStatusDelivered {
		return nil, fmt.Errorf("cancel from %q: %w", d.Status, deal.ErrInvalidTransition)
	}
	if err := uc.repo.UpdateStatus(ctx, id, model.DealStatusCancelled); err != nil {
		return nil, err
	}
	d.Status = model.DealStatusCancelled
	uc.logger.Info("deal cancelled", zap.String("deal_id", id))
	return d, nil
}

func (uc *dealUseCase) RecalculateDeliveryStatus(ctx context.Context, dealID string) (*model.Deal, error) {
	d, err := uc.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if d.Status == model.DealStatusCancelled {
		return d, nil
	}

	delivered, err := uc.repo.SumDeliveredByItem(ctx, dealID)
	if err != nil {
		return nil, err
	}

	for i := range d.Items {
		item := &d.Items[i]
		item.DeliveredQty = delivered[item.ID]
		item.PendingQty = item.Qty - item.DeliveredQty
		item.ItemStatus = deriveItemStatus(item.DeliveredQty, item.Qty)
	}

	recalculateTotals(d)
	d.Status = deriveDealStatus(d.Status, d.Items)

	if err := uc.repo.SaveDeliveryProgress(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (uc *dealUseCase) RecalculateAll(ctx context.Context) (int, error) {
	ids, err := uc.repo.ListActiveIDs(ctx)
	if err != nil {
		return 0, err
	}

	recalculated := 0
	for _, id := range ids {
		if _, err := uc.RecalculateDeliveryStatus(ctx, id); err != nil {
			uc.logger.Error("failed to recalculate deal",
				zap.String("deal_id", id), zap.Error(err))
			continue
		}
		recalculated++
	}
	return recalculated, nil
}

func recalculateTotals(d *model.Deal) {
	var qty, amount float64
	for _, item := range d.Items {
		qty += item.Qty
		amount += item.Amount
	}
	d.TotalQty = qty
	d.TotalAmount = amount
}

func deriveItemStatus(delivered, total float64) string {
	switch {
	case delivered <= 0:
		return model.ItemStatusOpen
	case delivered >= total:
		return model.ItemStatusDelivered
	default:
		return model.ItemStatusPartiallyDelivered
	}
}

// deriveDealStatus rolls item statuses up to the deal. Cancelled is never
// produced here and Open/Confirmed are preserved while nothing has shipped.
func deriveDealStatus(current string, items []model.DealItem) string {
	if current == model.DealStatusCancelled || len(items) == 0 {
		return current
	}

	allDelivered := true
	anyDelivered := false
	for _, item := range items {
		if item.ItemStatus != model.ItemStatusDelivered {
			allDelivered = false
		}
		if item.ItemStatus != model.ItemStatusOpen {
			anyDelivered = true
		}
	}

	switch {
	case allDelivered:
		return model.DealStatusDelivered
	case anyDelivered:
		return model.DealStatusPartiallyDelivered
	case current == model.DealStatusOpen || current == model.DealStatusConfirmed:
		return current
	default:
		return model.DealStatusOpen
	}
}
