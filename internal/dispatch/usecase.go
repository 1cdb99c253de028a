package dispatch

import (
	"context"
	"errors"

	"github.com/trustbit/mandi-service/internal/dispatch/dto"
	"github.com/trustbit/mandi-service/internal/model"
)

var (
	ErrNotFound          = errors.New("dispatch not found")
	ErrNoDeliveries      = errors.New("at least one delivery is required on the dispatch")
	ErrDuplicateDelivery = errors.New("delivery listed more than once on the dispatch")
	ErrDeliveryNotFound  = errors.New("delivery not found")
	ErrNotSubmitted      = errors.New("only submitted deliveries can be dispatched")
	ErrAlreadyDispatched = errors.New("delivery is already on an active dispatch")
	ErrInvalidTransition = errors.New("invalid dispatch status transition")
)

type UseCase interface {
	// ListUndispatched returns submitted deliveries not yet placed on any
	// active dispatch, oldest first.
	ListUndispatched(ctx context.Context) ([]model.DispatchableDelivery, error)

	// Create builds a dispatch for a vehicle. A load beyond capacity plus
	// one kg is logged as an overload warning, never rejected.
	Create(ctx context.Context, input *dto.CreateDispatchInput) (*model.Dispatch, error)

	GetByID(ctx context.Context, id string) (*model.Dispatch, error)
	List(ctx context.Context, f *dto.DispatchFilters) ([]model.Dispatch, int, error)
	Submit(ctx context.Context, id string) (*model.Dispatch, error)
	Cancel(ctx context.Context, id string) (*model.Dispatch, error)
}
