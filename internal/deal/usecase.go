package deal

import (
	"context"
	"errors"

	"github.com/trustbit/mandi-service/internal/deal/dto"
	"github.com/trustbit/mandi-service/internal/model"
)

var (
	ErrNotFound            = errors.New("deal not found")
	ErrNoItems             = errors.New("at least one item is required in the deal")
	ErrInvalidQty          = errors.New("qty must be greater than 0")
	ErrDeliveredExceedsQty = errors.New("delivered qty cannot exceed booked qty")
	ErrUnknownPackSize     = errors.New("unknown pack size")
	ErrMissingRate         = errors.New("no rate given and no price found for area + item")
	ErrInvalidTransition   = errors.New("invalid deal status transition")
)

type UseCase interface {
	Create(ctx context.Context, input *dto.CreateDealInput) (*model.Deal, error)
	GetByID(ctx context.Context, id string) (*model.Deal, error)
	List(ctx context.Context, filters *dto.DealFilters) ([]model.Deal, int, error)
	Confirm(ctx context.Context, id string) (*model.Deal, error)
	Cancel(ctx context.Context, id string) (*model.Deal, error)

	// RecalculateDeliveryStatus restores delivered/pending quantities and
	// statuses for every item of the deal from submitted deliveries. It is
	// idempotent; delivery submit/cancel and the nightly job both call it.
	RecalculateDeliveryStatus(ctx context.Context, dealID string) (*model.Deal, error)
	RecalculateAll(ctx context.Context) (int, error)
}
