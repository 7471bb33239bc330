package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

type productRepository struct {
	db DB
}

func NewProductRepository(db DB) interfaces.ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, title, slug, price, sale_price, sale_from, sale_to, thumbnail_id, units_sold`

func (r *productRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.scanProduct(r.db.QueryRow(ctx, query, id))
}

func (r *productRepository) FindBySlug(ctx context.Context, slug string) (domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`
	return r.scanProduct(r.db.QueryRow(ctx, query, slug))
}

// IncrementUnitsSold applies the delta with a single atomic update, so
// concurrent reconciliations never lose each other's contribution.
func (r *productRepository) IncrementUnitsSold(ctx context.Context, id string, delta int) error {
	query := `UPDATE products SET units_sold = units_sold + $1 WHERE id = $2`

	tag, err := r.db.Exec(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to update units sold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func (r *productRepository) scanProduct(row Row) (domain.Product, error) {
	var p domain.Product

	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Price, &p.SalePrice,
		&p.SaleFrom, &p.SaleTo, &p.ThumbnailID, &p.UnitsSold,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, domain.ErrProductNotFound
		}
		return p, fmt.Errorf("failed to load product: %w", err)
	}

	return p, nil
}
