package sequence

import (
	"context"
	"fmt"

	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

// Counter names are part of the on-disk contract.
const (
	OrderCounter    = "orderCounter"
	CustomerCounter = "customerCounter"
)

// Service hands out monotonically increasing order and customer numbers.
// The counter repository advances atomically, so concurrent checkouts never
// observe the same number.
type Service struct {
	counters interfaces.CounterRepository
}

func NewService(counters interfaces.CounterRepository) *Service {
	return &Service{counters: counters}
}

func (s *Service) NextOrderNumber(ctx context.Context) (int, error) {
	value, err := s.counters.NextValue(ctx, OrderCounter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate order number: %w", err)
	}
	return value, nil
}

func (s *Service) NextCustomerNumber(ctx context.Context) (int, error) {
	value, err := s.counters.NextValue(ctx, CustomerCounter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate customer number: %w", err)
	}
	return value, nil
}
