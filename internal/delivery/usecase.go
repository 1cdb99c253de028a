package delivery

import (
	"context"
	"errors"

	"github.com/trustbit/mandi-service/internal/allocation"
	"github.com/trustbit/mandi-service/internal/delivery/dto"
	"github.com/trustbit/mandi-service/internal/model"
)

var (
	ErrNotFound          = errors.New("delivery not found")
	ErrNoItems           = errors.New("at least one item is required in the delivery")
	ErrInvalidQty        = errors.New("deliver qty must be greater than 0")
	ErrMissingItemOrPack = errors.New("extra rows require item and pack size")
	ErrDealNotFound      = errors.New("referenced deal not found")
	ErrDealCancelled     = errors.New("referenced deal is cancelled")
	ErrExceedsPending    = errors.New("deliver qty exceeds pending deal balance")
	ErrInvalidTransition = errors.New("invalid delivery status transition")
	ErrCustomerLocked    = errors.New("another delivery for this customer is being submitted")
)

type UseCase interface {
	// GetPendingDealItems returns the customer's open commitment lines in
	// FIFO order. An empty slice is a normal outcome.
	GetPendingDealItems(ctx context.Context, f *dto.PendingFilters) ([]model.PendingDealItem, error)

	// AllocateFIFO fetches pending lines and distributes the requested
	// quantity oldest-first. Best effort; shortfall is reported in the
	// result, not as an error.
	AllocateFIFO(ctx context.Context, input *dto.AllocateInput) (*allocation.Result, error)

	// BuildWorkingSet allocates and wraps the result in an editable
	// working set primed with the pack catalogue and bag costs.
	BuildWorkingSet(ctx context.Context, input *dto.AllocateInput) (*allocation.WorkingSet, error)

	SaveDraft(ctx context.Context, input *dto.SaveDeliveryInput) (*model.Delivery, error)
	Update(ctx context.Context, id string, input *dto.SaveDeliveryInput) (*model.Delivery, error)
	Submit(ctx context.Context, id string) (*model.Delivery, error)
	Cancel(ctx context.Context, id string) (*model.Delivery, error)
	GetByID(ctx context.Context, id string) (*model.Delivery, error)
	List(ctx context.Context, f *dto.DeliveryFilters) ([]model.Delivery, int, error)
}
