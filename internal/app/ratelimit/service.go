package ratelimit

import (
	"context"
	"time"

	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/logger"
	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

const window = 24 * time.Hour

// Service gates anonymous checkouts by counting an identity's non-demo
// orders in a trailing 24h window. Authenticated customers never pass
// through here; their trust boundary is the registered identity.
type Service struct {
	orders interfaces.OrderRepository
	logger logger.Logger
	limit  int
}

func NewService(orders interfaces.OrderRepository, logger logger.Logger, limit int) *Service {
	return &Service{
		orders: orders,
		logger: logger,
		limit:  limit,
	}
}

// CheckLimit is a read-only check: the implicit counter is the set of
// already-created orders. It fails open on an empty hash or a failed count,
// preferring availability over strict abuse prevention.
func (s *Service) CheckLimit(ctx context.Context, ipHash string) interfaces.RateLimitResult {
	if ipHash == "" {
		return interfaces.RateLimitResult{Allowed: true, CountToday: 0, Limit: s.limit}
	}

	since := time.Now().UTC().Add(-window)

	count, err := s.orders.CountByIPHashSince(ctx, ipHash, since)
	if err != nil {
		s.logger.Error("rate_limit_count_failed", "Failed to count orders for rate limit", "", nil, err)
		return interfaces.RateLimitResult{Allowed: true, CountToday: 0, Limit: s.limit}
	}

	return interfaces.RateLimitResult{
		Allowed:    count < s.limit,
		CountToday: count,
		Limit:      s.limit,
	}
}
