package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id string, price string) Product {
	return Product{
		ID:    id,
		Title: "Product " + id,
		Slug:  "product-" + id,
		Price: dec(price),
	}
}

func saleProduct(id string, price, salePrice string, from, to time.Time) Product {
	p := testProduct(id, price)
	sp := dec(salePrice)
	p.SalePrice = &sp
	p.SaleFrom = &from
	p.SaleTo = &to
	return p
}

func TestCart_AddProduct_MergesQuantity(t *testing.T) {
	var cart Cart
	now := time.Now()

	cart.AddProduct(testProduct("p1", "100"), 1, now)
	cart.AddProduct(testProduct("p1", "100"), 2, now)

	require.Len(t, cart.Items, 1, "same product twice yields one line")
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestCart_AddProduct_SaleWindow(t *testing.T) {
	now := time.Now()
	from := now.Add(-time.Hour)
	to := now.Add(time.Hour)

	tests := []struct {
		name      string
		product   Product
		at        time.Time
		wantPrice string
		wantSale  bool
	}{
		{"inside window", saleProduct("p1", "100", "80", from, to), now, "80", true},
		{"before window", saleProduct("p1", "100", "80", from, to), from.Add(-time.Minute), "100", false},
		{"at window end", saleProduct("p1", "100", "80", from, to), to, "100", false},
		{"at window start", saleProduct("p1", "100", "80", from, to), from, "80", true},
		{"no sale price", testProduct("p1", "100"), now, "100", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cart Cart
			cart.AddProduct(tt.product, 1, tt.at)

			require.Len(t, cart.Items, 1)
			assert.True(t, cart.Items[0].Price.Equal(dec(tt.wantPrice)))
			assert.Equal(t, tt.wantSale, cart.Items[0].IsOnSale)
			assert.True(t, cart.Items[0].OriginalPrice.Equal(dec("100")))
		})
	}
}

func TestCart_SetQuantity(t *testing.T) {
	var cart Cart
	now := time.Now()
	cart.AddProduct(testProduct("p1", "100"), 2, now)
	cart.AddProduct(testProduct("p2", "50"), 1, now)

	cart.SetQuantity("p1", 5)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	// zero removes the line
	cart.SetQuantity("p1", 0)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p2", cart.Items[0].ProductID)
}

func TestCart_Totals(t *testing.T) {
	var cart Cart
	now := time.Now()
	cart.AddProduct(testProduct("p1", "100"), 2, now)
	cart.AddProduct(saleProduct("p2", "50", "40", now.Add(-time.Hour), now.Add(time.Hour)), 3, now)

	assert.True(t, cart.Subtotal().Equal(dec("320")), "sum of charged price x quantity")
	assert.True(t, cart.Savings().Equal(dec("30")))
	assert.True(t, cart.Total(dec("79")).Equal(dec("399")))
	assert.Equal(t, 5, cart.ItemCount())

	cart.Remove("p1")
	assert.True(t, cart.Subtotal().Equal(dec("120")))

	cart.Clear()
	assert.True(t, cart.Subtotal().IsZero())
	assert.Equal(t, 0, cart.ItemCount())
}

func TestCart_OrderItems_SnapshotsPrices(t *testing.T) {
	var cart Cart
	now := time.Now()
	cart.AddProduct(saleProduct("p1", "100", "75", now.Add(-time.Hour), now.Add(time.Hour)), 2, now)

	items := cart.OrderItems()

	require.Len(t, items, 1)
	assert.True(t, items[0].Price.Equal(dec("75")))
	assert.True(t, items[0].OriginalPrice.Equal(dec("100")))
	assert.True(t, items[0].IsOnSale)
	assert.Equal(t, 2, items[0].Quantity)
}
