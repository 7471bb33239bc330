package inventory

import (
	"context"

	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/logger"
	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

// Service keeps per-product units-sold counters in step with the order
// lifecycle. The order record is the source of truth; units_sold is an
// eventually-consistent derived statistic, so one product failing to update
// never blocks the rest of the batch.
type Service struct {
	products interfaces.ProductRepository
	logger   logger.Logger
}

func NewService(products interfaces.ProductRepository, logger logger.Logger) *Service {
	return &Service{
		products: products,
		logger:   logger,
	}
}

// Apply issues one independent atomic increment per product and reports a
// per-product outcome. Failures are logged and skipped.
func (s *Service) Apply(ctx context.Context, deltas map[string]int) []interfaces.UnitsOutcome {
	outcomes := make([]interfaces.UnitsOutcome, 0, len(deltas))

	for productID, delta := range deltas {
		if delta == 0 {
			continue
		}

		err := s.products.IncrementUnitsSold(ctx, productID, delta)
		if err != nil {
			s.logger.Error("units_sold_update_failed", "Failed to update units sold", "",
				map[string]interface{}{
					"product_id": productID,
					"delta":      delta,
				}, err)
		}

		outcomes = append(outcomes, interfaces.UnitsOutcome{
			ProductID: productID,
			Delta:     delta,
			Err:       err,
		})
	}

	return outcomes
}
