package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/logger"
	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

// NotificationHandler is the notification-subscriber entry point. The real
// mail sender lives outside this engine; this handler is the in-repo
// collaborator that logs each shipped order it is told about.
type NotificationHandler struct {
	logger logger.Logger
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{logger: logger}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.ShippedNotification
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Info("order_shipped_notification", fmt.Sprintf("Order #%d shipped", msg.OrderNumber),
		msg.OrderID, map[string]interface{}{
			"order_number":      msg.OrderNumber,
			"tracking_code":     msg.TrackingCode,
			"shipping_provider": msg.ShippingProvider,
		})

	fmt.Printf("Order #%d for %s shipped via %s (tracking %s)\n",
		msg.OrderNumber, msg.CustomerName, msg.ShippingProvider, msg.TrackingCode)

	return nil
}
