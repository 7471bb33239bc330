package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

// jsonb documents keep the field names of the original store so existing
// data stays readable.

type customerDoc struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Comment    string `json:"comment"`
}

type orderItemDoc struct {
	ProductID     string          `json:"productId"`
	Title         string          `json:"title"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	IsOnSale      bool            `json:"isOnSale"`
	ThumbnailID   string          `json:"thumbnailId"`
	Quantity      int             `json:"quantity"`
}

type historyDoc struct {
	Field     string    `json:"field"`
	OldValue  string    `json:"oldValue"`
	NewValue  string    `json:"newValue"`
	Timestamp time.Time `json:"timestamp"`
}

const orderColumns = `id, order_number, customer, customer_number, items,
	subtotal, shipping, savings, total, status, is_paid, is_refunded,
	payment_method, notes, tracking_code, shipping_provider, is_demo, ip_hash,
	history, cancelled_by, cancellation_reason, cancellation_acknowledged,
	created_at, updated_at`

func (r *orderRepository) Insert(ctx context.Context, order *domain.Order) error {
	customer, items, history, err := marshalOrderDocs(order)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`
	_, err = r.db.Exec(ctx, query,
		order.ID, order.OrderNumber, customer, order.CustomerNumber, items,
		order.Subtotal, order.Shipping, order.Savings, order.Total, order.Status,
		order.IsPaid, order.IsRefunded, paymentMethodValue(order.PaymentMethod),
		order.Notes, order.TrackingCode, order.ShippingProvider, order.IsDemo,
		order.IPHash, history, order.CancelledBy, order.CancellationReason,
		order.CancellationAcknowledged, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter interfaces.OrderFilter) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE true`
	var args []any

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.CustomerNumber != nil {
		args = append(args, *filter.CustomerNumber)
		query += fmt.Sprintf(" AND customer_number = $%d", len(args))
	}
	if filter.Email != "" {
		args = append(args, filter.Email)
		query += fmt.Sprintf(" AND customer->>'email' = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	customer, items, history, err := marshalOrderDocs(order)
	if err != nil {
		return err
	}

	query := `
		UPDATE orders
		SET customer = $1, customer_number = $2, items = $3,
		    subtotal = $4, shipping = $5, savings = $6, total = $7,
		    status = $8, is_paid = $9, is_refunded = $10, payment_method = $11,
		    notes = $12, tracking_code = $13, shipping_provider = $14,
		    history = $15, cancelled_by = $16, cancellation_reason = $17,
		    cancellation_acknowledged = $18, updated_at = $19
		WHERE id = $20
	`
	tag, err := r.db.Exec(ctx, query,
		customer, order.CustomerNumber, items,
		order.Subtotal, order.Shipping, order.Savings, order.Total,
		order.Status, order.IsPaid, order.IsRefunded, paymentMethodValue(order.PaymentMethod),
		order.Notes, order.TrackingCode, order.ShippingProvider,
		history, order.CancelledBy, order.CancellationReason,
		order.CancellationAcknowledged, order.UpdatedAt, order.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *orderRepository) CountByIPHashSince(ctx context.Context, ipHash string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM orders
		WHERE ip_hash = $1 AND created_at >= $2 AND NOT is_demo
	`

	var count int
	if err := r.db.QueryRow(ctx, query, ipHash, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders by ip hash: %w", err)
	}

	return count, nil
}

func marshalOrderDocs(order *domain.Order) (customer, items, history []byte, err error) {
	customer, err = json.Marshal(customerDoc{
		Name:       order.Customer.Name,
		Email:      order.Customer.Email,
		Phone:      order.Customer.Phone,
		Address:    order.Customer.Address,
		City:       order.Customer.City,
		PostalCode: order.Customer.PostalCode,
		Comment:    order.Customer.Comment,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal customer: %w", err)
	}

	itemDocs := lo.Map(order.Items, func(item domain.OrderItem, _ int) orderItemDoc {
		return orderItemDoc{
			ProductID:     item.ProductID,
			Title:         item.Title,
			Price:         item.Price,
			OriginalPrice: item.OriginalPrice,
			IsOnSale:      item.IsOnSale,
			ThumbnailID:   item.ThumbnailID,
			Quantity:      item.Quantity,
		}
	})
	items, err = json.Marshal(itemDocs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal items: %w", err)
	}

	historyDocs := lo.Map(order.History, func(entry domain.HistoryEntry, _ int) historyDoc {
		return historyDoc{
			Field:     entry.Field,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			Timestamp: entry.Timestamp,
		}
	})
	history, err = json.Marshal(historyDocs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal history: %w", err)
	}

	return customer, items, history, nil
}

func scanOrder(row Row) (*domain.Order, error) {
	var (
		order         domain.Order
		id            uuid.UUID
		customer      []byte
		items         []byte
		history       []byte
		paymentMethod *string
	)

	err := row.Scan(
		&id, &order.OrderNumber, &customer, &order.CustomerNumber, &items,
		&order.Subtotal, &order.Shipping, &order.Savings, &order.Total,
		&order.Status, &order.IsPaid, &order.IsRefunded, &paymentMethod,
		&order.Notes, &order.TrackingCode, &order.ShippingProvider,
		&order.IsDemo, &order.IPHash, &history, &order.CancelledBy,
		&order.CancellationReason, &order.CancellationAcknowledged,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.ID = id.String()

	var custDoc customerDoc
	if err := json.Unmarshal(customer, &custDoc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal customer: %w", err)
	}
	order.Customer = domain.Customer{
		Name:       custDoc.Name,
		Email:      custDoc.Email,
		Phone:      custDoc.Phone,
		Address:    custDoc.Address,
		City:       custDoc.City,
		PostalCode: custDoc.PostalCode,
		Comment:    custDoc.Comment,
	}

	var itemDocs []orderItemDoc
	if err := json.Unmarshal(items, &itemDocs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}
	order.Items = lo.Map(itemDocs, func(doc orderItemDoc, _ int) domain.OrderItem {
		return domain.OrderItem{
			ProductID:     doc.ProductID,
			Title:         doc.Title,
			Price:         doc.Price,
			OriginalPrice: doc.OriginalPrice,
			IsOnSale:      doc.IsOnSale,
			ThumbnailID:   doc.ThumbnailID,
			Quantity:      doc.Quantity,
		}
	})

	var historyDocs []historyDoc
	if err := json.Unmarshal(history, &historyDocs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	order.History = lo.Map(historyDocs, func(doc historyDoc, _ int) domain.HistoryEntry {
		return domain.HistoryEntry{
			Field:     doc.Field,
			OldValue:  doc.OldValue,
			NewValue:  doc.NewValue,
			Timestamp: doc.Timestamp,
		}
	})

	if paymentMethod != nil {
		method := domain.PaymentMethod(*paymentMethod)
		order.PaymentMethod = &method
	}

	return &order, nil
}

func paymentMethodValue(m *domain.PaymentMethod) *string {
	if m == nil {
		return nil
	}
	s := string(*m)
	return &s
}
