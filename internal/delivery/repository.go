package delivery

import (
	"context"

	"github.com/trustbit/mandi-service/internal/delivery/dto"
	"github.com/trustbit/mandi-service/internal/model"
)

type Repository interface {
	// GetPendingDealItems recomputes delivered balances from submitted
	// deliveries (excluding f.ExcludeDelivery when set) and returns lines
	// with more than 0.1 kg pending, ordered deal_date, created_at, idx.
	GetPendingDealItems(ctx context.Context, f *dto.PendingFilters) ([]model.PendingDealItem, error)

	Create(ctx context.Context, d *model.Delivery) error

	// Update rewrites the delivery header and replaces its items in one
	// transaction.
	Update(ctx context.Context, d *model.Delivery) error

	GetByID(ctx context.Context, id string) (*model.Delivery, error)
	FindAll(ctx context.Context, f *dto.DeliveryFilters) ([]model.Delivery, int, error)
	UpdateStatus(ctx context.Context, id, status string) error
}
