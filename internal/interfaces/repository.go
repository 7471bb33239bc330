package interfaces

import (
	"context"
	"time"

	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
)

// OrderFilter narrows order listings. Zero values mean "no constraint".
type OrderFilter struct {
	Status         *domain.Status
	CustomerNumber *int
	Email          string
}

type OrderRepository interface {
	Insert(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	// Update persists the full order row, history included, as one write.
	Update(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id string) error
	// CountByIPHashSince counts non-demo orders for the rate limiter.
	CountByIPHashSince(ctx context.Context, ipHash string, since time.Time) (int, error)
}

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (domain.Product, error)
	// IncrementUnitsSold applies a signed delta as a single atomic update.
	IncrementUnitsSold(ctx context.Context, id string, delta int) error
}

// CounterRepository backs the sequence allocator. NextValue must be atomic:
// two concurrent calls never observe the same value.
type CounterRepository interface {
	NextValue(ctx context.Context, name string) (int, error)
}

// CartStore is the durable persistence port for client carts. Best-effort
// durability across sessions is the whole contract.
type CartStore interface {
	Load(ctx context.Context, ownerKey string) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) error
	Delete(ctx context.Context, ownerKey string) error
}
