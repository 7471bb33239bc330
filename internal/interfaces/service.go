package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
)

// Actor is the identity supplied by the authentication collaborator.
// IsAdmin is the capability gate for every admin-only operation.
type Actor struct {
	UserID         string
	Email          string
	IsAdmin        bool
	CustomerNumber *int
}

// Anonymous is the actor of an unauthenticated checkout.
var Anonymous = Actor{}

type CreateOrderCommand struct {
	Customer       domain.Customer
	Items          []domain.OrderItem
	CustomerNumber *int
	IsDemo         bool
	// IPHash is the hashed client identity for anonymous checkouts; empty
	// for authenticated customers.
	IPHash string
}

type UpdateStatusCommand struct {
	NewStatus domain.Status
	// CancellationReason is recorded when NewStatus is cancelled.
	CancellationReason string
}

type UpdatePaymentCommand struct {
	IsPaid     bool
	Method     *domain.PaymentMethod
	IsRefunded bool
}

type UpdateShippingCommand struct {
	Shipping decimal.Decimal
}

type UpdateTrackingCommand struct {
	TrackingCode     string
	ShippingProvider string
}

type OrderService interface {
	Create(ctx context.Context, actor Actor, cmd CreateOrderCommand) (*domain.Order, error)
	GetByID(ctx context.Context, actor Actor, id string) (*domain.Order, error)
	List(ctx context.Context, actor Actor, filter OrderFilter) ([]*domain.Order, error)
	ListForCustomer(ctx context.Context, actor Actor) ([]*domain.Order, error)

	UpdateStatus(ctx context.Context, actor Actor, id string, cmd UpdateStatusCommand) (*domain.Order, error)
	UpdatePayment(ctx context.Context, actor Actor, id string, cmd UpdatePaymentCommand) (*domain.Order, error)
	UpdateNotes(ctx context.Context, actor Actor, id string, notes string) (*domain.Order, error)
	UpdateCustomerInfo(ctx context.Context, actor Actor, id string, customer domain.Customer) (*domain.Order, error)
	UpdateShipping(ctx context.Context, actor Actor, id string, cmd UpdateShippingCommand) (*domain.Order, error)
	UpdateTrackingCode(ctx context.Context, actor Actor, id string, cmd UpdateTrackingCommand) (*domain.Order, error)
	UpdateItems(ctx context.Context, actor Actor, id string, items []domain.OrderItem) (*domain.Order, error)
	CancelByCustomer(ctx context.Context, actor Actor, id string, reason string) (*domain.Order, error)
	AcknowledgeCancellation(ctx context.Context, actor Actor, id string) (*domain.Order, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type CartService interface {
	Get(ctx context.Context, ownerKey string) (domain.Cart, error)
	AddItem(ctx context.Context, ownerKey, productID string, quantity int) (domain.Cart, error)
	UpdateQuantity(ctx context.Context, ownerKey, productID string, quantity int) (domain.Cart, error)
	RemoveItem(ctx context.Context, ownerKey, productID string) (domain.Cart, error)
	Clear(ctx context.Context, ownerKey string) error
}

// RateLimitResult reports the trailing-window usage of one hashed identity.
type RateLimitResult struct {
	Allowed    bool
	CountToday int
	Limit      int
}

type RateLimiter interface {
	CheckLimit(ctx context.Context, ipHash string) RateLimitResult
}

type Sequencer interface {
	NextOrderNumber(ctx context.Context) (int, error)
	NextCustomerNumber(ctx context.Context) (int, error)
}

// UnitsOutcome is the per-product result of one reconciliation batch entry.
type UnitsOutcome struct {
	ProductID string
	Delta     int
	Err       error
}

// InventoryReconciler applies signed units-sold deltas best-effort: one
// product failing never aborts the rest of the batch.
type InventoryReconciler interface {
	Apply(ctx context.Context, deltas map[string]int) []UnitsOutcome
}
