package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the read model of the external catalog directory. The only
// field this engine ever writes back is UnitsSold.
type Product struct {
	ID          string
	Title       string
	Slug        string
	Price       decimal.Decimal
	SalePrice   *decimal.Decimal
	SaleFrom    *time.Time
	SaleTo      *time.Time
	ThumbnailID string
	UnitsSold   int
}

// OnSaleAt reports whether the sale window covers t: a sale price is set and
// t falls within [saleFrom, saleTo).
func (p Product) OnSaleAt(t time.Time) bool {
	if p.SalePrice == nil || p.SaleFrom == nil || p.SaleTo == nil {
		return false
	}
	return !t.Before(*p.SaleFrom) && t.Before(*p.SaleTo)
}

// EffectivePrice resolves the price to charge at time t.
func (p Product) EffectivePrice(t time.Time) decimal.Decimal {
	if p.OnSaleAt(t) {
		return *p.SalePrice
	}
	return p.Price
}
