package deal

import (
	"context"

	"github.com/trustbit/mandi-service/internal/deal/dto"
	"github.com/trustbit/mandi-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, deal *model.Deal) error
	GetByID(ctx context.Context, id string) (*model.Deal, error)
	FindAll(ctx context.Context, filters *dto.DealFilters) ([]model.Deal, int, error)
	UpdateStatus(ctx context.Context, id, status string) error

	// SumDeliveredByItem returns the delivered pack count per deal item,
	// computed from submitted deliveries only.
	SumDeliveredByItem(ctx context.Context, dealID string) (map[string]float64, error)

	// SaveDeliveryProgress persists recomputed item quantities/statuses and
	// the derived header totals/status in one transaction.
	SaveDeliveryProgress(ctx context.Context, deal *model.Deal) error

	// ListActiveIDs returns ids of deals not in a terminal status, for the
	// reconciliation sweep.
	ListActiveIDs(ctx context.Context) ([]string, error)
}
