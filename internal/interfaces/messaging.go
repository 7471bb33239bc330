package interfaces

import (
	"context"
	"time"

	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
)

// ShippedNotification is published on the notifications fanout exchange when
// an order's status first becomes shipped. The notification collaborator
// (mail sender) consumes it.
type ShippedNotification struct {
	OrderID          string        `json:"order_id"`
	OrderNumber      int           `json:"order_number"`
	CustomerName     string        `json:"customer_name"`
	CustomerEmail    string        `json:"customer_email"`
	TrackingCode     string        `json:"tracking_code"`
	ShippingProvider string        `json:"shipping_provider"`
	OldStatus        domain.Status `json:"old_status"`
	Timestamp        time.Time     `json:"timestamp"`
}

// AnalyticsEvent is a best-effort event for the analytics collaborator.
// Publishing failures never fail the primary operation.
type AnalyticsEvent struct {
	Event     string         `json:"event"`
	ProductID string         `json:"product_id,omitempty"`
	OrderID   string         `json:"order_id,omitempty"`
	Value     string         `json:"value,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Analytics event names.
const (
	EventCartAdd       = "cart_add"
	EventCartRemove    = "cart_remove"
	EventCheckoutBegin = "checkout_begin"
	EventPurchase      = "purchase"
	EventCancellation  = "cancellation"
)

type MessagePublisher interface {
	PublishShippedNotification(ctx context.Context, msg ShippedNotification) error
	PublishAnalyticsEvent(ctx context.Context, msg AnalyticsEvent) error
}

type MessageConsumer interface {
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type NotificationHandler func(ctx context.Context, body []byte) error
