package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is the client-held projection of a product, with the price
// resolved at add-time.
type CartItem struct {
	ProductID     string
	Title         string
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	IsOnSale      bool
	ThumbnailID   string
	Slug          string
	Quantity      int
}

// Cart is a persisted collection of line items owned by one client key.
type Cart struct {
	OwnerKey string
	Items    []CartItem
}

// AddProduct merges the product into the cart: an existing line grows its
// quantity, otherwise a new line is appended with the sale-window price
// resolved at time now.
func (c *Cart) AddProduct(p Product, quantity int, now time.Time) {
	if quantity < 1 {
		quantity = 1
	}

	for i := range c.Items {
		if c.Items[i].ProductID == p.ID {
			c.Items[i].Quantity += quantity
			return
		}
	}

	c.Items = append(c.Items, CartItem{
		ProductID:     p.ID,
		Title:         p.Title,
		Price:         p.EffectivePrice(now),
		OriginalPrice: p.Price,
		IsOnSale:      p.OnSaleAt(now),
		ThumbnailID:   p.ThumbnailID,
		Slug:          p.Slug,
		Quantity:      quantity,
	})
}

// SetQuantity updates a line's quantity; zero or less removes the line.
func (c *Cart) SetQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return
		}
	}
}

// Remove drops the line for productID, if present.
func (c *Cart) Remove(productID string) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
}

// Subtotal sums price x quantity over the resolved (charged) prices.
func (c Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}

// Savings sums the sale discount against catalog prices.
func (c Cart) Savings() decimal.Decimal {
	savings := decimal.Zero
	for _, item := range c.Items {
		diff := item.OriginalPrice.Sub(item.Price)
		savings = savings.Add(diff.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return savings
}

// Total is the charged subtotal plus the flat shipping cost.
func (c Cart) Total(shipping decimal.Decimal) decimal.Decimal {
	return c.Subtotal().Add(shipping)
}

// ItemCount sums quantities across all lines.
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// OrderItems converts the cart lines into immutable order item snapshots.
func (c Cart) OrderItems() []OrderItem {
	items := make([]OrderItem, len(c.Items))
	for i, ci := range c.Items {
		items[i] = OrderItem{
			ProductID:     ci.ProductID,
			Title:         ci.Title,
			Price:         ci.Price,
			OriginalPrice: ci.OriginalPrice,
			IsOnSale:      ci.IsOnSale,
			ThumbnailID:   ci.ThumbnailID,
			Quantity:      ci.Quantity,
		}
	}
	return items
}
