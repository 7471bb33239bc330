package http

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
)

type OrderResponse struct {
	ID                       string            `json:"id"`
	OrderNumber              int               `json:"orderNumber"`
	Customer                 CustomerPayload   `json:"customer"`
	CustomerNumber           *int              `json:"customerNumber"`
	Items                    []OrderItemView   `json:"items"`
	Subtotal                 decimal.Decimal   `json:"subtotal"`
	Shipping                 decimal.Decimal   `json:"shipping"`
	Savings                  decimal.Decimal   `json:"savings"`
	Total                    decimal.Decimal   `json:"total"`
	Status                   domain.Status     `json:"status"`
	IsPaid                   bool              `json:"isPaid"`
	IsRefunded               bool              `json:"isRefunded"`
	PaymentMethod            *string           `json:"paymentMethod"`
	Notes                    string            `json:"notes"`
	TrackingCode             string            `json:"trackingCode"`
	ShippingProvider         string            `json:"shippingProvider"`
	IsDemo                   bool              `json:"isDemo"`
	History                  []HistoryView     `json:"history"`
	CancelledBy              *string           `json:"cancelledBy,omitempty"`
	CancellationReason       *string           `json:"cancellationReason,omitempty"`
	CancellationAcknowledged *bool             `json:"cancellationAcknowledged,omitempty"`
	CreatedAt                time.Time         `json:"createdAt"`
	UpdatedAt                time.Time         `json:"updatedAt"`
}

type OrderItemView struct {
	ProductID     string          `json:"productId"`
	Title         string          `json:"title"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	IsOnSale      bool            `json:"isOnSale"`
	ThumbnailID   string          `json:"thumbnailId"`
	Quantity      int             `json:"quantity"`
}

type HistoryView struct {
	Field     string    `json:"field"`
	OldValue  string    `json:"oldValue"`
	NewValue  string    `json:"newValue"`
	Timestamp time.Time `json:"timestamp"`
}

type CartResponse struct {
	OwnerKey  string          `json:"ownerKey"`
	Items     []CartItemView  `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Savings   decimal.Decimal `json:"savings"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

type CartItemView struct {
	ProductID     string          `json:"productId"`
	Title         string          `json:"title"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	IsOnSale      bool            `json:"isOnSale"`
	ThumbnailID   string          `json:"thumbnailId"`
	Slug          string          `json:"slug"`
	Quantity      int             `json:"quantity"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	var paymentMethod *string
	if o.PaymentMethod != nil {
		s := string(*o.PaymentMethod)
		paymentMethod = &s
	}

	return OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Customer: CustomerPayload{
			Name:       o.Customer.Name,
			Email:      o.Customer.Email,
			Phone:      o.Customer.Phone,
			Address:    o.Customer.Address,
			City:       o.Customer.City,
			PostalCode: o.Customer.PostalCode,
			Comment:    o.Customer.Comment,
		},
		CustomerNumber: o.CustomerNumber,
		Items: lo.Map(o.Items, func(item domain.OrderItem, _ int) OrderItemView {
			return OrderItemView{
				ProductID:     item.ProductID,
				Title:         item.Title,
				Price:         item.Price,
				OriginalPrice: item.OriginalPrice,
				IsOnSale:      item.IsOnSale,
				ThumbnailID:   item.ThumbnailID,
				Quantity:      item.Quantity,
			}
		}),
		Subtotal:         o.Subtotal,
		Shipping:         o.Shipping,
		Savings:          o.Savings,
		Total:            o.Total,
		Status:           o.Status,
		IsPaid:           o.IsPaid,
		IsRefunded:       o.IsRefunded,
		PaymentMethod:    paymentMethod,
		Notes:            o.Notes,
		TrackingCode:     o.TrackingCode,
		ShippingProvider: o.ShippingProvider,
		IsDemo:           o.IsDemo,
		History: lo.Map(o.History, func(entry domain.HistoryEntry, _ int) HistoryView {
			return HistoryView{
				Field:     entry.Field,
				OldValue:  entry.OldValue,
				NewValue:  entry.NewValue,
				Timestamp: entry.Timestamp,
			}
		}),
		CancelledBy:              o.CancelledBy,
		CancellationReason:       o.CancellationReason,
		CancellationAcknowledged: o.CancellationAcknowledged,
		CreatedAt:                o.CreatedAt,
		UpdatedAt:                o.UpdatedAt,
	}
}

func toCartResponse(c domain.Cart, shipping decimal.Decimal) CartResponse {
	return CartResponse{
		OwnerKey: c.OwnerKey,
		Items: lo.Map(c.Items, func(item domain.CartItem, _ int) CartItemView {
			return CartItemView{
				ProductID:     item.ProductID,
				Title:         item.Title,
				Price:         item.Price,
				OriginalPrice: item.OriginalPrice,
				IsOnSale:      item.IsOnSale,
				ThumbnailID:   item.ThumbnailID,
				Slug:          item.Slug,
				Quantity:      item.Quantity,
			}
		}),
		Subtotal:  c.Subtotal(),
		Savings:   c.Savings(),
		Total:     c.Total(shipping),
		ItemCount: c.ItemCount(),
	}
}
