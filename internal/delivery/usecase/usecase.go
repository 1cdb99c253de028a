package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trustbit/mandi-service/internal/allocation"
	"github.com/trustbit/mandi-service/internal/catalogue"
	"github.com/trustbit/mandi-service/internal/deal"
	"github.com/trustbit/mandi-service/internal/delivery"
	"github.com/trustbit/mandi-service/internal/delivery/dto"
	"github.com/trustbit/mandi-service/internal/model"
	"go.uber.org/zap"
)

// Draft rows may exceed a deal item's pending weight by one kg to absorb
// float noise from pack conversions.
const kgTolerance = 1.0

const (
	lockTTL      = 10 * time.Second
	lockAttempts = 3
	lockRetryGap = 100 * time.Millisecond
)

// Locker serializes submits per customer so two concurrent deliveries can
// not both consume the same pending balance.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// Publisher emits domain events for the downstream stock module.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

type deliveryUseCase struct {
	repo      delivery.Repository
	dealUC    deal.UseCase
	catalogue catalogue.UseCase
	locker    Locker
	publisher Publisher
	logger    *zap.Logger
}

func NewDeliveryUseCase(
	repo delivery.Repository,
	dealUC deal.UseCase,
	cat catalogue.UseCase,
	locker Locker,
	publisher Publisher,
	log *zap.Logger,
) delivery.UseCase {
	return &deliveryUseCase{
		repo:      repo,
		dealUC:    dealUC,
		catalogue: cat,
		locker:    locker,
		publisher: publisher,
		logger:    log,
	}
}

func (uc *deliveryUseCase) GetPendingDealItems(ctx context.Context, f *dto.PendingFilters) ([]model.PendingDealItem, error) {
	return uc.repo.GetPendingDealItems(ctx, f)
}

func (uc *deliveryUseCase) AllocateFIFO(ctx context.Context, input *dto.AllocateInput) (*allocation.Result, error) {
	pending, err := uc.repo.GetPendingDealItems(ctx, &dto.PendingFilters{
		Customer: input.Customer,
		Item:     input.Item,
		PackSize: input.PackSize,
	})
	if err != nil {
		return nil, err
	}

	result := allocation.Allocate(toPendingLines(pending), input.TotalQty)
	if result.Unallocated > 0 {
		uc.logger.Info("allocation short of request",
			zap.String("customer", input.Customer),
			zap.Float64("requested", result.Requested),
			zap.Float64("allocated", result.Allocated),
			zap.Float64("unallocated", result.Unallocated))
	}
	return &result, nil
}

func (uc *deliveryUseCase) BuildWorkingSet(ctx context.Context, input *dto.AllocateInput) (*allocation.WorkingSet, error) {
	result, err := uc.AllocateFIFO(ctx, input)
	if err != nil {
		return nil, err
	}

	packWeights, err := uc.catalogue.PackWeightMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pack catalogue: %w", err)
	}
	bagCosts, err := uc.catalogue.BagCostMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bag costs: %w", err)
	}

	return allocation.NewWorkingSet(result.Allocations, packWeights, bagCosts), nil
}

func (uc *deliveryUseCase) SaveDraft(ctx context.Context, input *dto.SaveDeliveryInput) (*model.Delivery, error) {
	d := &model.Delivery{
		ID:        uuid.New().String(),
		Status:    model.DeliveryStatusDraft,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := uc.applyInput(ctx, d, input, ""); err != nil {
		return nil, err
	}

	if err := uc.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	uc.logger.Info("delivery draft saved",
		zap.String("delivery_id", d.ID),
		zap.String("customer", d.Customer),
		zap.Int("items", len(d.Items)))
	return d, nil
}

func (uc *deliveryUseCase) Update(ctx context.Context, id string, input *dto.SaveDeliveryInput) (*model.Delivery, error) {
	existing, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != model.DeliveryStatusDraft {
		return nil, fmt.Errorf("update of %q delivery: %w", existing.Status, delivery.ErrInvalidTransition)
	}

	d := &model.Delivery{
		ID:        id,
		Status:    existing.Status,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: time.Now(),
	}
	if err := uc.applyInput(ctx, d, input, id); err != nil {
		return nil, err
	}

	if err := uc.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// applyInput validates the rows, computes amounts and totals, and fills
// the delivery in place. excludeDelivery keeps an edited delivery's own
// submitted rows out of the balance check.
func (uc *deliveryUseCase) applyInput(ctx context.Context, d *model.Delivery, input *dto.SaveDeliveryInput, excludeDelivery string) error {
	if len(input.Items) == 0 {
		return delivery.ErrNoItems
	}

	d.Customer = input.Customer
	d.CustomerName = input.CustomerName
	d.DeliveryDate = input.DeliveryDate
	if d.DeliveryDate.IsZero() {
		d.DeliveryDate = time.Now()
	}

	pendingKg, err := uc.pendingKgBySource(ctx, input.Customer, excludeDelivery)
	if err != nil {
		return err
	}

	packWeights, err := uc.catalogue.PackWeightMap(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pack catalogue: %w", err)
	}

	dealStatus := map[string]string{}
	claimedKg := map[string]float64{}
	d.Items = d.Items[:0]
	d.TotalDeliveryQty = 0
	d.TotalDeliveryKg = 0
	d.TotalAmount = 0

	for i, row := range input.Items {
		if row.DeliverQty <= 0 {
			return fmt.Errorf("row %d: %w", i+1, delivery.ErrInvalidQty)
		}

		item := model.DeliveryItem{
			ID:               uuid.New().String(),
			DeliveryID:       d.ID,
			Idx:              i + 1,
			DealID:           row.DealID,
			DealItemID:       row.DealItemID,
			Item:             row.Item,
			ItemName:         row.ItemName,
			PackSize:         row.PackSize,
			PackWeightKg:     row.PackWeightKg,
			DealQty:          row.DealQty,
			AlreadyDelivered: row.AlreadyDelivered,
			PendingQty:       row.PendingQty,
			DeliverQty:       row.DeliverQty,
			Rate:             row.Rate,
			IsExtra:          row.DealItemID == nil,
		}

		if item.IsExtra && (item.Item == "" || item.PackSize == "") {
			return fmt.Errorf("row %d: %w", i+1, delivery.ErrMissingItemOrPack)
		}

		if item.PackWeightKg <= 0 {
			w, ok := packWeights[item.PackSize]
			if !ok {
				return fmt.Errorf("row %d: %q: %w", i+1, item.PackSize, deal.ErrUnknownPackSize)
			}
			item.PackWeightKg = w
		}

		if !item.IsExtra {
			dealID := ""
			if row.DealID != nil {
				dealID = *row.DealID
			}
			status, ok := dealStatus[dealID]
			if !ok {
				dl, err := uc.dealUC.GetByID(ctx, dealID)
				if err != nil {
					return fmt.Errorf("row %d: deal %s: %w", i+1, dealID, delivery.ErrDealNotFound)
				}
				status = dl.Status
				dealStatus[dealID] = status
			}
			if status == model.DealStatusCancelled {
				return fmt.Errorf("row %d: deal %s: %w", i+1, dealID, delivery.ErrDealCancelled)
			}

			sourceID := *row.DealItemID
			claimedKg[sourceID] += item.DeliverQty * item.PackWeightKg
			if claimedKg[sourceID] > pendingKg[sourceID]+kgTolerance {
				return fmt.Errorf("row %d: %.2f kg against %.2f kg pending: %w",
					i+1, claimedKg[sourceID], pendingKg[sourceID], delivery.ErrExceedsPending)
			}
		}

		item.Amount = item.DeliverQty * item.Rate
		d.TotalDeliveryQty += item.DeliverQty
		d.TotalDeliveryKg += item.DeliverQty * item.PackWeightKg
		d.TotalAmount += item.Amount
		d.Items = append(d.Items, item)
	}

	return nil
}

func (uc *deliveryUseCase) pendingKgBySource(ctx context.Context, customer, excludeDelivery string) (map[string]float64, error) {
	pending, err := uc.repo.GetPendingDealItems(ctx, &dto.PendingFilters{
		Customer:        customer,
		ExcludeDelivery: excludeDelivery,
	})
	if err != nil {
		return nil, err
	}

	kg := map[string]float64{}
	for _, p := range pending {
		kg[p.DealItemID] = p.PendingKg
	}
	return kg, nil
}

func (uc *deliveryUseCase) Submit(ctx context.Context, id string) (*model.Delivery, error) {
	d, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status != model.DeliveryStatusDraft {
		return nil, fmt.Errorf("submit of %q delivery: %w", d.Status, delivery.ErrInvalidTransition)
	}

	lockKey := "mandi:delivery:submit:" + d.Customer
	lockValue := uuid.New().String()
	acquired := false
	for attempt := 0; attempt < lockAttempts; attempt++ {
		ok, err := uc.locker.AcquireLock(ctx, lockKey, lockValue, lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire submit lock: %w", err)
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(lockRetryGap)
	}
	if !acquired {
		return nil, fmt.Errorf("customer %s: %w", d.Customer, delivery.ErrCustomerLocked)
	}
	defer func() {
		if err := uc.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, lockValue); err != nil {
			uc.logger.Warn("failed to release submit lock",
				zap.String("key", lockKey), zap.Error(err))
		}
	}()

	// Balances may have moved since the draft was saved. Re-check under
	// the lock before the delivery starts consuming them.
	pendingKg, err := uc.pendingKgBySource(ctx, d.Customer, id)
	if err != nil {
		return nil, err
	}
	claimedKg := map[string]float64{}
	for _, item := range d.Items {
		if item.IsExtra || item.DealItemID == nil {
			continue
		}
		sourceID := *item.DealItemID
		claimedKg[sourceID] += item.DeliverQty * item.PackWeightKg
		if claimedKg[sourceID] > pendingKg[sourceID]+kgTolerance {
			return nil, fmt.Errorf("deal item %s: %.2f kg against %.2f kg pending: %w",
				sourceID, claimedKg[sourceID], pendingKg[sourceID], delivery.ErrExceedsPending)
		}
	}

	if err := uc.repo.UpdateStatus(ctx, id, model.DeliveryStatusSubmitted); err != nil {
		return nil, err
	}
	d.Status = model.DeliveryStatusSubmitted

	uc.recalculateAffectedDeals(ctx, d)
	uc.publishSubmitted(ctx, d)

	uc.logger.Info("delivery submitted",
		zap.String("delivery_id", d.ID),
		zap.String("customer", d.Customer),
		zap.Float64("total_kg", d.TotalDeliveryKg))
	return d, nil
}

func (uc *deliveryUseCase) Cancel(ctx context.Context, id string) (*model.Delivery, error) {
	d, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status != model.DeliveryStatusSubmitted {
		return nil, fmt.Errorf("cancel of %q delivery: %w", d.Status, delivery.ErrInvalidTransition)
	}

	if err := uc.repo.UpdateStatus(ctx, id, model.DeliveryStatusCancelled); err != nil {
		return nil, err
	}
	d.Status = model.DeliveryStatusCancelled

	uc.recalculateAffectedDeals(ctx, d)
	uc.logger.Info("delivery cancelled", zap.String("delivery_id", id))
	return d, nil
}

func (uc *deliveryUseCase) GetByID(ctx context.Context, id string) (*model.Delivery, error) {
	d, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, delivery.ErrNotFound
	}
	return d, nil
}

func (uc *deliveryUseCase) List(ctx context.Context, f *dto.DeliveryFilters) ([]model.Delivery, int, error) {
	return uc.repo.FindAll(ctx, f)
}

// recalculateAffectedDeals restores the derived delivered/pending columns
// of every deal touched by this delivery. Failures are logged, not
// propagated; the nightly job repairs anything missed here.
func (uc *deliveryUseCase) recalculateAffectedDeals(ctx context.Context, d *model.Delivery) {
	seen := map[string]bool{}
	for _, item := range d.Items {
		if item.DealID == nil || seen[*item.DealID] {
			continue
		}
		seen[*item.DealID] = true
		if _, err := uc.dealUC.RecalculateDeliveryStatus(ctx, *item.DealID); err != nil {
			uc.logger.Error("failed to recalculate deal after delivery change",
				zap.String("delivery_id", d.ID),
				zap.String("deal_id", *item.DealID),
				zap.Error(err))
		}
	}
}

type deliverySubmittedEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   *model.Delivery `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func (uc *deliveryUseCase) publishSubmitted(ctx context.Context, d *model.Delivery) {
	if uc.publisher == nil {
		return
	}

	event := deliverySubmittedEvent{
		EventID:   uuid.New().String(),
		EventType: "DeliverySubmitted",
		Payload:   d,
		Timestamp: time.Now(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		uc.logger.Error("failed to marshal delivery event", zap.Error(err))
		return
	}
	if err := uc.publisher.Publish(ctx, []byte(d.Customer), value); err != nil {
		uc.logger.Error("failed to publish delivery event",
			zap.String("delivery_id", d.ID), zap.Error(err))
	}
}

func toPendingLines(pending []model.PendingDealItem) []allocation.PendingLine {
	lines := make([]allocation.PendingLine, len(pending))
	for i, p := range pending {
		lines[i] = allocation.PendingLine{
			DealID:           p.DealID,
			DealItemID:       p.DealItemID,
			Customer:         p.Customer,
			CustomerName:     p.CustomerName,
			Item:             p.Item,
			ItemName:         p.ItemName,
			PackSize:         p.PackSize,
			PackWeightKg:     p.PackWeightKg,
			DealDate:         p.DealDate,
			Seq:              i,
			Qty:              p.Qty,
			AlreadyDelivered: p.AlreadyDelivered,
			PendingQty:       p.PendingQty,
			Rate:             p.Rate,
			PricePerKg:       p.PricePerKg,
		}
	}
	return lines
}
