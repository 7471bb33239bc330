package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/logger"
	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
	"github.com/shopspring/decimal"
)

// Service owns the order entity: creation, field mutation, the append-only
// audit trail, and the live subscription feed. Every mutating operation is a
// single order write followed by best-effort side effects (inventory deltas,
// notifications, analytics).
type Service struct {
	repo       interfaces.OrderRepository
	reconciler interfaces.InventoryReconciler
	sequencer  interfaces.Sequencer
	limiter    interfaces.RateLimiter
	publisher  interfaces.MessagePublisher
	hub        *Hub
	logger     logger.Logger
	shipping   decimal.Decimal
}

func NewService(
	repo interfaces.OrderRepository,
	reconciler interfaces.InventoryReconciler,
	sequencer interfaces.Sequencer,
	limiter interfaces.RateLimiter,
	publisher interfaces.MessagePublisher,
	hub *Hub,
	logger logger.Logger,
	shipping decimal.Decimal,
) *Service {
	return &Service{
		repo:       repo,
		reconciler: reconciler,
		sequencer:  sequencer,
		limiter:    limiter,
		publisher:  publisher,
		hub:        hub,
		logger:     logger,
		shipping:   shipping,
	}
}

// Create runs the checkout: rate-limit gate for anonymous callers, order
// number allocation, the initial audit entry, and the +units inventory pass
// for non-demo orders. Demo orders never consume the sequence and never
// touch inventory.
func (s *Service) Create(ctx context.Context, actor interfaces.Actor, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	if actor.UserID == "" {
		result := s.limiter.CheckLimit(ctx, cmd.IPHash)
		if !result.Allowed {
			return nil, fmt.Errorf("%w: %d of %d used in the last 24h",
				domain.ErrRateLimited, result.CountToday, result.Limit)
		}
	}

	s.publishAnalytics(ctx, interfaces.AnalyticsEvent{
		Event:     interfaces.EventCheckoutBegin,
		Timestamp: time.Now().UTC(),
	})

	order, err := domain.NewOrder(cmd.Customer, cmd.Items, s.shipping, cmd.CustomerNumber, cmd.IsDemo, cmd.IPHash)
	if err != nil {
		s.logger.Error("validation_failed", "Order validation failed", "", nil, err)
		return nil, err
	}
	order.ID = uuid.NewString()

	if cmd.IsDemo {
		order.OrderNumber = domain.DemoOrderNumber
	} else {
		number, err := s.sequencer.NextOrderNumber(ctx)
		if err != nil {
			return nil, err
		}
		order.OrderNumber = number
	}

	order.AppendHistory(domain.HistoryFieldCreated, "", "Order created")

	if err := s.repo.Insert(ctx, order); err != nil {
		s.logger.Error("order_insert_failed", "Failed to create order", order.ID, nil, err)
		return nil, err
	}

	s.logger.Debug("order_created", fmt.Sprintf("Order #%d created", order.OrderNumber), order.ID,
		map[string]interface{}{"is_demo": order.IsDemo})

	if !order.IsDemo {
		s.reconciler.Apply(ctx, order.UnitDeltas(+1))
	}

	s.publishAnalytics(ctx, interfaces.AnalyticsEvent{
		Event:     interfaces.EventPurchase,
		OrderID:   order.ID,
		Value:     order.Total.String(),
		Timestamp: time.Now().UTC(),
	})

	s.hub.Publish(Event{Type: EventUpdated, OrderID: order.ID, Order: order})

	return order, nil
}

func (s *Service) GetByID(ctx context.Context, actor interfaces.Actor, id string) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin && !ownsOrder(actor, order) {
		return nil, domain.ErrForbidden
	}

	return order, nil
}

func (s *Service) List(ctx context.Context, actor interfaces.Actor, filter interfaces.OrderFilter) ([]*domain.Order, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, filter)
}

// ListForCustomer resolves the caller's own orders by customer number
// first, falling back to the registered email.
func (s *Service) ListForCustomer(ctx context.Context, actor interfaces.Actor) ([]*domain.Order, error) {
	if actor.UserID == "" {
		return nil, domain.ErrForbidden
	}

	if actor.CustomerNumber != nil {
		orders, err := s.repo.List(ctx, interfaces.OrderFilter{CustomerNumber: actor.CustomerNumber})
		if err != nil {
			return nil, err
		}
		if len(orders) > 0 {
			return orders, nil
		}
	}

	if actor.Email == "" {
		return nil, nil
	}
	return s.repo.List(ctx, interfaces.OrderFilter{Email: actor.Email})
}

// UpdateStatus is the admin state-machine transition. Crossing the
// cancelled boundary reverses or restores the order's inventory
// contribution; reaching shipped fires the notification collaborator.
func (s *Service) UpdateStatus(ctx context.Context, actor interfaces.Actor, id string, cmd interfaces.UpdateStatusCommand) (*domain.Order, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := order.Status

	if cmd.NewStatus == domain.StatusCancelled {
		if err := order.Cancel(domain.CancelledByAdmin, cmd.CancellationReason); err != nil {
			return nil, err
		}
	} else {
		if err := order.TransitionTo(cmd.NewStatus); err != nil {
			return nil, err
		}
	}

	order.AppendHistory("status", string(oldStatus), string(order.Status))

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.settleStatusChange(ctx, order, oldStatus)
	s.hub.Publish(Event{Type: EventUpdated, OrderID: order.ID, Order: order})

	return order, nil
}

// UpdatePayment records payment state independently of fulfillment status.
func (s *Service) UpdatePayment(ctx context.Context, actor interfaces.Actor, id string, cmd interfaces.UpdatePaymentCommand) (*domain.Order, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldDesc := describePayment(order.IsPaid, order.PaymentMethod, order.IsRefunded)

	order.IsPaid = cmd.IsPaid
	order.PaymentMethod = cmd.Method
	order.IsRefunded = cmd.IsRefunded

	order.AppendHistory("payment", oldDesc, describePayment(cmd.IsPaid, cmd.Method, cmd.IsRefunded))

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.hub.Publish(Event{Type: EventUpdated, OrderID: order.ID, Order: order})

	return order, nil
}

func (s *Service) UpdateNotes(ctx context.Context, actor interfaces.Actor, id string, notes string) (*domain.Order, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldNotes := order.Notes
	order.Notes = notes
	order.AppendHistory("notes", oldNotes, notes)

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.hub.Publish(Event{Type: EventUpdated, OrderID: order.ID, Order: order})

	return order, nil
}

func (s *Service) UpdateCustomerInfo(ctx context.Context, actor interfaces.Actor, id string, customer domain.Customer) (*domain.Order, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldDesc := describeCustomer(order.Customer)
	order.Customer = customer

	if err := order.Validate(); err != nil {
		return nil, err
	}

	order.AppendHistory("customer", oldDesc, describeCustomer(customer))

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.hub.Publish(Event{Type: EventUpdated, OrderID: order.ID, Order: order})

	return order, nil
}

// UpdateShipping changes the shipping charge and recomputes the money
// fields together, keeping total == subtotal + shipping - savings.
func (s *Service) UpdateShipping(ctx context.Context, actor interfaces.Actor, id string, cmd interfaces.UpdateShippingCommand) (*domain.Order, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldShipping := order.Shipping
	order.Shipping = cmd.Shipping
	order.Recalculate()

	order.AppendHistory("shipping", oldShipping.String(), cmd.Shipping.String())

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.hub.Publish(Event{Type: EventUpdated, OrderID: order.ID, Order: order})

	return order, nil
}

// UpdateTrackingCode sets the tracking details and force-ships the order if
// it is not shipped yet. The forced transition writes its own history entry
// and is what the notification collaborator listens for.
func (s *Service) UpdateTrackingCode(ctx context.Context, actor interfaces.Actor, id string, cmd interfaces.UpdateTrackingCommand) (*domain.Order, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldCode := order.TrackingCode
	order.TrackingCode = cmd.TrackingCode
	order.ShippingProvider = cmd.ShippingProvider
	order.AppendHistory("trackingCode", oldCode, cmd.TrackingCode)

	oldStatus := order.Status
	if order.Status != domain.StatusShipped {
		order.ForceStatus(domain.StatusShipped)
		order.AppendHistory("status", string(oldStatus), string(domain.StatusShipped))
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.settleStatusChange(ctx, order, oldStatus)
	s.hub.Publish(Event{Type: EventUpdated, OrderID: order.ID, Order: order})

	return order, nil
}

// UpdateItems replaces the item list, recomputes the money fields, and
// forwards the signed per-product quantity diff to the reconciler.
func (s *Service) UpdateItems(ctx context.Context, actor interfaces.Actor, id string, items []domain.OrderItem) (*domain.Order, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldItems := order.Items
	order.Items = items

	if err := order.Validate(); err != nil {
		order.Items = oldItems
		return nil, err
	}

	order.Recalculate()
	order.AppendHistory("items", describeItems(oldItems), describeItems(items))

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	// Cancelled orders carry no inventory contribution; their units were
	// already reversed, so an edit must not move the counters.
	if !order.IsDemo && order.Status != domain.StatusCancelled {
		s.reconciler.Apply(ctx, domain.DiffItemQuantities(oldItems, items))
	}

	s.hub.Publish(Event{Type: EventUpdated, OrderID: order.ID, Order: order})

	return order, nil
}

// CancelByCustomer is the only mutation a non-admin actor can perform, and
// only on their own order while it has not shipped, completed or already
// been cancelled.
func (s *Service) CancelByCustomer(ctx context.Context, actor interfaces.Actor, id string, reason string) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !ownsOrder(actor, order) {
		return nil, domain.ErrForbidden
	}
	if !order.CanBeCancelledByCustomer() {
		return nil, domain.ErrInvalidStatusTransition
	}

	oldStatus := order.Status
	if err := order.Cancel(domain.CancelledByCustomer, reason); err != nil {
		return nil, err
	}

	order.AppendHistory("status", string(oldStatus), string(domain.StatusCancelled))

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	if !order.IsDemo {
		s.reconciler.Apply(ctx, order.UnitDeltas(-1))
	}

	s.publishAnalytics(ctx, interfaces.AnalyticsEvent{
		Event:     interfaces.EventCancellation,
		OrderID:   order.ID,
		Timestamp: time.Now().UTC(),
	})

	s.hub.Publish(Event{Type: EventUpdated, OrderID: order.ID, Order: order})

	return order, nil
}

// AcknowledgeCancellation flips the admin-side flag on a cancelled order.
// No inventory effect.
func (s *Service) AcknowledgeCancellation(ctx context.Context, actor interfaces.Actor, id string) (*domain.Order, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.Status != domain.StatusCancelled {
		return nil, domain.ErrInvalidStatusTransition
	}

	acknowledged := true
	order.CancellationAcknowledged = &acknowledged
	order.AppendHistory("cancellationAcknowledged", "false", "true")

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.hub.Publish(Event{Type: EventUpdated, OrderID: order.ID, Order: order})

	return order, nil
}

// Delete removes the order for good. A non-cancelled order still carries
// its inventory contribution, so it is reversed first; a cancelled order
// was already reversed at cancellation time.
func (s *Service) Delete(ctx context.Context, actor interfaces.Actor, id string) error {
	if !actor.IsAdmin {
		return domain.ErrForbidden
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !order.IsDemo && order.Status != domain.StatusCancelled {
		s.reconciler.Apply(ctx, order.UnitDeltas(-1))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.hub.Publish(Event{Type: EventDeleted, OrderID: id})

	return nil
}

// settleStatusChange applies the inventory and notification side effects of
// a persisted status change.
func (s *Service) settleStatusChange(ctx context.Context, order *domain.Order, oldStatus domain.Status) {
	if oldStatus == order.Status {
		return
	}

	if !order.IsDemo {
		switch {
		case order.Status == domain.StatusCancelled && oldStatus != domain.StatusCancelled:
			s.reconciler.Apply(ctx, order.UnitDeltas(-1))
		case oldStatus == domain.StatusCancelled && order.Status != domain.StatusCancelled:
			s.reconciler.Apply(ctx, order.UnitDeltas(+1))
		}
	}

	if order.Status == domain.StatusShipped && oldStatus != domain.StatusShipped {
		s.notifyShipped(ctx, order, oldStatus)
	}
}

// notifyShipped is fire-and-forget: the mail collaborator's availability
// never blocks an admin action.
func (s *Service) notifyShipped(ctx context.Context, order *domain.Order, oldStatus domain.Status) {
	msg := interfaces.ShippedNotification{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		CustomerName:     order.Customer.Name,
		CustomerEmail:    order.Customer.Email,
		TrackingCode:     order.TrackingCode,
		ShippingProvider: order.ShippingProvider,
		OldStatus:        oldStatus,
		Timestamp:        time.Now().UTC(),
	}

	if err := s.publisher.PublishShippedNotification(ctx, msg); err != nil {
		s.logger.Error("notification_publish_failed", "Failed to publish shipped notification",
			order.ID, nil, err)
	}
}

func (s *Service) publishAnalytics(ctx context.Context, event interfaces.AnalyticsEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAnalyticsEvent(ctx, event); err != nil {
		s.logger.Debug("analytics_publish_failed", "Dropped analytics event", "",
			map[string]interface{}{"event": event.Event})
	}
}

// ownsOrder matches the actor against the order by customer number first,
// then by registered email.
func ownsOrder(actor interfaces.Actor, order *domain.Order) bool {
	if actor.UserID == "" {
		return false
	}
	if actor.CustomerNumber != nil && order.CustomerNumber != nil {
		return *actor.CustomerNumber == *order.CustomerNumber
	}
	return actor.Email != "" && strings.EqualFold(actor.Email, order.Customer.Email)
}

func describePayment(isPaid bool, method *domain.PaymentMethod, isRefunded bool) string {
	desc := "unpaid"
	if isPaid {
		desc = "paid"
	}
	if method != nil {
		desc += " via " + string(*method)
	}
	if isRefunded {
		desc += ", refunded"
	}
	return desc
}

func describeCustomer(c domain.Customer) string {
	return fmt.Sprintf("%s <%s>, %s, %s %s", c.Name, c.Email, c.Address, c.PostalCode, c.City)
}

func describeItems(items []domain.OrderItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("%dx %s", item.Quantity, item.Title)
	}
	return strings.Join(parts, ", ")
}
