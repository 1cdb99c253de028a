package dispatch

import (
	"context"

	"github.com/trustbit/mandi-service/internal/dispatch/dto"
	"github.com/trustbit/mandi-service/internal/model"
)

type Repository interface {
	// ListUndispatched returns submitted deliveries absent from every
	// Loading or Dispatched dispatch, oldest delivery date first.
	ListUndispatched(ctx context.Context) ([]model.DispatchableDelivery, error)

	// ActiveDispatchIDsByDelivery maps each given delivery to the active
	// dispatch holding it, if any.
	ActiveDispatchIDsByDelivery(ctx context.Context, deliveryIDs []string) (map[string]string, error)

	Create(ctx context.Context, d *model.Dispatch) error
	GetByID(ctx context.Context, id string) (*model.Dispatch, error)
	FindAll(ctx context.Context, f *dto.DispatchFilters) ([]model.Dispatch, int, error)
	UpdateStatus(ctx context.Context, id, status string) error
}
