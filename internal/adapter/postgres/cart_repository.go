package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

type cartRepository struct {
	db DB
}

func NewCartRepository(db DB) interfaces.CartStore {
	return &cartRepository{db: db}
}

type cartItemDoc struct {
	ProductID     string          `json:"productId"`
	Title         string          `json:"title"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	IsOnSale      bool            `json:"isOnSale"`
	ThumbnailID   string          `json:"thumbnailId"`
	Slug          string          `json:"slug"`
	Quantity      int             `json:"quantity"`
}

func (r *cartRepository) Load(ctx context.Context, ownerKey string) (domain.Cart, error) {
	cart := domain.Cart{OwnerKey: ownerKey}

	var items []byte
	err := r.db.QueryRow(ctx, `SELECT items FROM carts WHERE owner_key = $1`, ownerKey).Scan(&items)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cart, nil
		}
		return cart, fmt.Errorf("failed to load cart: %w", err)
	}

	var docs []cartItemDoc
	if err := json.Unmarshal(items, &docs); err != nil {
		return cart, fmt.Errorf("failed to unmarshal cart items: %w", err)
	}

	cart.Items = lo.Map(docs, func(doc cartItemDoc, _ int) domain.CartItem {
		return domain.CartItem{
			ProductID:     doc.ProductID,
			Title:         doc.Title,
			Price:         doc.Price,
			OriginalPrice: doc.OriginalPrice,
			IsOnSale:      doc.IsOnSale,
			ThumbnailID:   doc.ThumbnailID,
			Slug:          doc.Slug,
			Quantity:      doc.Quantity,
		}
	})

	return cart, nil
}

func (r *cartRepository) Save(ctx context.Context, cart domain.Cart) error {
	docs := lo.Map(cart.Items, func(item domain.CartItem, _ int) cartItemDoc {
		return cartItemDoc{
			ProductID:     item.ProductID,
			Title:         item.Title,
			Price:         item.Price,
			OriginalPrice: item.OriginalPrice,
			IsOnSale:      item.IsOnSale,
			ThumbnailID:   item.ThumbnailID,
			Slug:          item.Slug,
			Quantity:      item.Quantity,
		}
	})

	items, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to marshal cart items: %w", err)
	}

	query := `
		INSERT INTO carts (owner_key, items, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_key) DO UPDATE SET items = $2, updated_at = $3
	`
	if _, err := r.db.Exec(ctx, query, cart.OwnerKey, items, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return nil
}

func (r *cartRepository) Delete(ctx context.Context, ownerKey string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM carts WHERE owner_key = $1`, ownerKey); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
