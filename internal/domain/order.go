package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DemoOrderNumber is the reserved marker assigned to demo orders instead of
// a value from the order counter.
const DemoOrderNumber = -1

// HistoryFieldCreated is the sentinel field name of the first history entry
// appended when an order is created.
const HistoryFieldCreated = "created"

// Order is the central entity of the fulfillment engine. Money fields are
// persisted even though they are derived, so historic orders stay stable
// when catalog prices change.
type Order struct {
	ID               string
	OrderNumber      int
	Customer         Customer
	CustomerNumber   *int
	Items            []OrderItem
	Subtotal         decimal.Decimal
	Shipping         decimal.Decimal
	Savings          decimal.Decimal
	Total            decimal.Decimal
	Status           Status
	IsPaid           bool
	IsRefunded       bool
	PaymentMethod    *PaymentMethod
	Notes            string
	TrackingCode     string
	ShippingProvider string
	IsDemo           bool
	IPHash           *string

	History []HistoryEntry

	CancelledBy              *string
	CancellationReason       *string
	CancellationAcknowledged *bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Customer is the checkout contact block embedded in an order.
type Customer struct {
	Name       string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Comment    string
}

// OrderItem is an immutable snapshot of a product line at order time.
// Price fields never follow later catalog changes.
type OrderItem struct {
	ProductID     string
	Title         string
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	IsOnSale      bool
	ThumbnailID   string
	Quantity      int
}

// HistoryEntry is one row of the append-only audit trail. Entries are never
// edited or removed.
type HistoryEntry struct {
	Field     string
	OldValue  string
	NewValue  string
	Timestamp time.Time
}

// NewOrder creates a pending order from checkout data. The order number is
// assigned later by the sequence allocator; demo orders get DemoOrderNumber.
func NewOrder(customer Customer, items []OrderItem, shipping decimal.Decimal, customerNumber *int, isDemo bool, ipHash string) (*Order, error) {
	now := time.Now().UTC()

	order := &Order{
		Customer:       customer,
		CustomerNumber: customerNumber,
		Items:          items,
		Shipping:       shipping,
		Status:         StatusPending,
		IsPaid:         false,
		IsDemo:         isDemo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if ipHash != "" {
		order.IPHash = &ipHash
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	order.Recalculate()

	return order, nil
}

// Validate applies checkout business rules.
func (o *Order) Validate() error {
	if o.Customer.Name == "" {
		return fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	if o.Customer.Email == "" {
		return fmt.Errorf("%w: customer email is required", ErrValidation)
	}
	if o.Customer.Address == "" || o.Customer.City == "" || o.Customer.PostalCode == "" {
		return fmt.Errorf("%w: delivery address, city and postal code are required", ErrValidation)
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}

	for _, item := range o.Items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: item product id is required", ErrValidation)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item quantity must be at least 1", ErrValidation)
		}
		if item.Price.IsNegative() || item.OriginalPrice.IsNegative() {
			return fmt.Errorf("%w: item price must not be negative", ErrValidation)
		}
	}

	return nil
}

// Recalculate recomputes subtotal, savings and total from the item lines and
// persists them together. Subtotal counts catalog prices; savings is the sale
// discount, so total == subtotal + shipping - savings always equals the sum
// actually charged plus shipping.
func (o *Order) Recalculate() {
	subtotal := decimal.Zero
	savings := decimal.Zero

	for _, item := range o.Items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.OriginalPrice.Mul(qty))
		savings = savings.Add(item.OriginalPrice.Sub(item.Price).Mul(qty))
	}

	o.Subtotal = subtotal
	o.Savings = savings
	o.Total = subtotal.Add(o.Shipping).Sub(savings)
}

// CanTransitionTo checks the fulfillment state machine: forward moves along
// the chain, cancellation from any non-terminal state, and un-cancel from
// cancelled to any status.
func (o *Order) CanTransitionTo(newStatus Status) bool {
	if !ValidStatus(newStatus) || newStatus == o.Status {
		return false
	}

	switch o.Status {
	case StatusCancelled:
		// un-cancel: re-activation to any status
		return newStatus != StatusCancelled
	case StatusCompleted:
		return false
	}

	if newStatus == StatusCancelled {
		return !o.Status.IsTerminal()
	}

	return statusRank[newStatus] > statusRank[o.Status]
}

// TransitionTo moves the order to a new status.
func (o *Order) TransitionTo(newStatus Status) error {
	if !o.CanTransitionTo(newStatus) {
		return ErrInvalidStatusTransition
	}

	o.Status = newStatus
	o.UpdatedAt = time.Now().UTC()

	if newStatus != StatusCancelled {
		o.clearCancellation()
	}

	return nil
}

// ForceStatus sets the status directly, bypassing the transition rules.
// The tracking-code path uses it to ship an order from any state.
func (o *Order) ForceStatus(newStatus Status) {
	o.Status = newStatus
	o.UpdatedAt = time.Now().UTC()

	if newStatus != StatusCancelled {
		o.clearCancellation()
	}
}

// CanBeCancelledByCustomer reports whether the owning customer may still
// self-cancel: not once the order has shipped, completed or been cancelled.
func (o *Order) CanBeCancelledByCustomer() bool {
	switch o.Status {
	case StatusShipped, StatusCompleted, StatusCancelled:
		return false
	}
	return true
}

// Cancel moves the order to cancelled and records who did it and why.
// A fresh cancellation always starts unacknowledged.
func (o *Order) Cancel(by, reason string) error {
	if err := o.TransitionTo(StatusCancelled); err != nil {
		return err
	}

	acknowledged := false
	o.CancelledBy = &by
	o.CancellationAcknowledged = &acknowledged
	if reason != "" {
		o.CancellationReason = &reason
	}

	return nil
}

func (o *Order) clearCancellation() {
	o.CancelledBy = nil
	o.CancellationReason = nil
	o.CancellationAcknowledged = nil
}

// AppendHistory adds one audit entry and bumps updatedAt. The history list
// is strictly append-only.
func (o *Order) AppendHistory(field, oldValue, newValue string) {
	now := time.Now().UTC()
	o.History = append(o.History, HistoryEntry{
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		Timestamp: now,
	})
	o.UpdatedAt = now
}

// UnitDeltas returns the per-product units-sold contribution of this order
// multiplied by sign: +1 when the units count as sold, -1 when reversed.
func (o *Order) UnitDeltas(sign int) map[string]int {
	deltas := make(map[string]int, len(o.Items))
	for _, item := range o.Items {
		deltas[item.ProductID] += sign * item.Quantity
	}
	return deltas
}

// DiffItemQuantities computes the signed per-product delta between two item
// lists: positive for quantity growth and new products, negative for shrink
// and removed products. Products with a zero net change are omitted.
func DiffItemQuantities(oldItems, newItems []OrderItem) map[string]int {
	deltas := make(map[string]int)
	for _, item := range oldItems {
		deltas[item.ProductID] -= item.Quantity
	}
	for _, item := range newItems {
		deltas[item.ProductID] += item.Quantity
	}
	for id, delta := range deltas {
		if delta == 0 {
			delete(deltas, id)
		}
	}
	return deltas
}
