package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trustbit/mandi-service/internal/delivery"
	"github.com/trustbit/mandi-service/internal/dispatch"
	"github.com/trustbit/mandi-service/internal/dispatch/dto"
	"github.com/trustbit/mandi-service/internal/model"
	"go.uber.org/zap"
)

// Loads may exceed the vehicle's stated capacity by one kg before the
// overload warning fires.
const overloadToleranceKg = 1.0

type dispatchUseCase struct {
	repo       dispatch.Repository
	deliveryUC delivery.UseCase
	logger     *zap.Logger
}

func NewDispatchUseCase(repo dispatch.Repository, deliveryUC delivery.UseCase, log *zap.Logger) dispatch.UseCase {
	return &dispatchUseCase{
		repo:       repo,
		deliveryUC: deliveryUC,
		logger:     log,
	}
}

func (uc *dispatchUseCase) ListUndispatched(ctx context.Context) ([]model.DispatchableDelivery, error) {
	return uc.repo.ListUndispatched(ctx)
}

func (uc *dispatchUseCase) Create(ctx context.Context, input *dto.CreateDispatchInput) (*model.Dispatch, error) {
	if len(input.DeliveryIDs) == 0 {
		return nil, dispatch.ErrNoDeliveries
	}

	seen := map[string]bool{}
	for _, id := range input.DeliveryIDs {
		if seen[id] {
			return nil, fmt.Errorf("delivery %s: %w", id, dispatch.ErrDuplicateDelivery)
		}
		seen[id] = true
	}

	active, err := uc.repo.ActiveDispatchIDsByDelivery(ctx, input.DeliveryIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	dispatchDate := input.DispatchDate
	if dispatchDate.IsZero() {
		dispatchDate = now
	}

	d := &model.Dispatch{
		ID:                uuid.New().String(),
		Vehicle:           input.Vehicle,
		VehicleCapacityKg: input.VehicleCapacityKg,
		DispatchDate:      dispatchDate,
		Status:            model.DispatchStatusLoading,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	customers := map[string]bool{}
	for _, deliveryID := range input.DeliveryIDs {
		dlv, err := uc.deliveryUC.GetByID(ctx, deliveryID)
		if err != nil {
			return nil, fmt.Errorf("delivery %s: %w", deliveryID, dispatch.ErrDeliveryNotFound)
		}
		if dlv.Status != model.DeliveryStatusSubmitted {
			return nil, fmt.Errorf("delivery %s is %q: %w", deliveryID, dlv.Status, dispatch.ErrNotSubmitted)
		}
		if holder, ok := active[deliveryID]; ok {
			return nil, fmt.Errorf("delivery %s held by dispatch %s: %w",
				deliveryID, holder, dispatch.ErrAlreadyDispatched)
		}

		d.Deliveries = append(d.Deliveries, model.DispatchItem{
			ID:           uuid.New().String(),
			DispatchID:   d.ID,
			DeliveryID:   deliveryID,
			Customer:     dlv.Customer,
			CustomerName: dlv.CustomerName,
			DeliveryDate: dlv.DeliveryDate,
			TotalPacks:   dlv.TotalDeliveryQty,
			TotalKg:      dlv.TotalDeliveryKg,
			TotalAmount:  dlv.TotalAmount,
		})

		d.TotalLoadedKg += dlv.TotalDeliveryKg
		d.TotalPacks += dlv.TotalDeliveryQty
		d.TotalAmount += dlv.TotalAmount
		customers[dlv.Customer] = true
	}
	d.TotalCustomers = len(customers)

	if d.VehicleCapacityKg > 0 {
		d.RemainingCapacityKg = d.VehicleCapacityKg - d.TotalLoadedKg
		d.CapacityUtilization = d.TotalLoadedKg / d.VehicleCapacityKg * 100
		if d.TotalLoadedKg > d.VehicleCapacityKg+overloadToleranceKg {
			uc.logger.Warn("vehicle overloaded",
				zap.String("vehicle", d.Vehicle),
				zap.Float64("capacity_kg", d.VehicleCapacityKg),
				zap.Float64("loaded_kg", d.TotalLoadedKg))
		}
	}

	if err := uc.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	uc.logger.Info("dispatch created",
		zap.String("dispatch_id", d.ID),
		zap.String("vehicle", d.Vehicle),
		zap.Int("deliveries", len(d.Deliveries)),
		zap.Float64("loaded_kg", d.TotalLoadedKg))
	return d, nil
}

func (uc *dispatchUseCase) GetByID(ctx context.Context, id string) (*model.Dispatch, error) {
	d, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, dispatch.ErrNotFound
	}
	return d, nil
}

func (uc *dispatchUseCase) List(ctx context.Context, f *dto.DispatchFilters) ([]model.Dispatch, int, error) {
	return uc.repo.FindAll(ctx, f)
}

func (uc *dispatchUseCase) Submit(ctx context.Context, id string) (*model.Dispatch, error) {
	d, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status != model.DispatchStatusLoading {
		return nil, fmt.Errorf("dispatch from %q: %w", d.Status, dispatch.ErrInvalidTransition)
	}
	if err := uc.repo.UpdateStatus(ctx, id, model.DispatchStatusDispatched); err != nil {
		return nil, err
	}
	d.Status = model.DispatchStatusDispatched
	uc.logger.Info("dispatch sent out",
		zap.String("dispatch_id", id), zap.String("vehicle", d.Vehicle))
	return d, nil
}

func (uc *dispatchUseCase) Cancel(ctx context.Context, id string) (*model.Dispatch, error) {
	d, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == model.DispatchStatusCancelled {
		return nil, fmt.Errorf("cancel of cancelled dispatch: %w", dispatch.ErrInvalidTransition)
	}
	if err := uc.repo.UpdateStatus(ctx, id, model.DispatchStatusCancelled); err != nil {
		return nil, err
	}
	d.Status = model.DispatchStatusCancelled
	uc.logger.Info("dispatch cancelled", zap.String("dispatch_id", id))
	return d, nil
}
