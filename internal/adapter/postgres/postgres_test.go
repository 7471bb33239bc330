package postgres_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/postgres"
	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithInitScripts(filepath.Join("..", "..", "..", "migrations", "001_init.sql")),
		tcpostgres.WithDatabase("orders"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", err
	}

	return container, connStr, nil
}

type postgresSuite struct {
	suite.Suite

	container testcontainers.Container
	pool      *pgxpool.Pool

	orders   interfaces.OrderRepository
	products interfaces.ProductRepository
	counters interfaces.CounterRepository
	carts    interfaces.CartStore
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed tests in short mode")
	}
	suite.Run(t, new(postgresSuite))
}

func (s *postgresSuite) SetupSuite() {
	ctx := s.T().Context()

	var (
		connStr string
		err     error
	)
	s.container, connStr, err = startPostgres(ctx)
	s.Require().NoError(err)

	s.pool, err = pgxpool.New(ctx, connStr)
	s.Require().NoError(err)

	db := postgres.FromPool(s.pool)
	s.orders = postgres.NewOrderRepository(db)
	s.products = postgres.NewProductRepository(db)
	s.counters = postgres.NewCounterRepository(db)
	s.carts = postgres.NewCartRepository(db)
}

func (s *postgresSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		s.NoError(s.container.Terminate(context.Background()))
	}
}

func (s *postgresSuite) SetupTest() {
	_, err := s.pool.Exec(s.T().Context(),
		`TRUNCATE orders, products, counters, carts`)
	s.Require().NoError(err)
}

// cmpOrder tolerates the precision loss of a numeric/timestamptz roundtrip.
var cmpOrder = cmp.Options{
	cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
	cmpopts.EquateApproxTime(time.Second),
}

func randomOrder() *domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	method := domain.PaymentMethodCard

	return &domain.Order{
		ID:          uuid.NewString(),
		OrderNumber: gofakeit.Number(1, 99999),
		Customer: domain.Customer{
			Name:       gofakeit.Name(),
			Email:      gofakeit.Email(),
			Phone:      gofakeit.Phone(),
			Address:    gofakeit.Street(),
			City:       gofakeit.City(),
			PostalCode: gofakeit.Zip(),
		},
		CustomerNumber: lo.ToPtr(gofakeit.Number(1, 500)),
		Items: []domain.OrderItem{
			{
				ProductID:     uuid.NewString(),
				Title:         gofakeit.ProductName(),
				Price:         decimal.NewFromInt(int64(gofakeit.Number(50, 500))),
				OriginalPrice: decimal.NewFromInt(int64(gofakeit.Number(50, 500))),
				ThumbnailID:   uuid.NewString(),
				Quantity:      gofakeit.Number(1, 5),
			},
		},
		Subtotal:      decimal.NewFromInt(500),
		Shipping:      decimal.NewFromInt(79),
		Savings:       decimal.Zero,
		Total:         decimal.NewFromInt(579),
		Status:        domain.StatusPending,
		PaymentMethod: &method,
		IPHash:        lo.ToPtr(gofakeit.LetterN(64)),
		History: []domain.HistoryEntry{
			{Field: domain.HistoryFieldCreated, NewValue: "Order created", Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *postgresSuite) TestOrderRoundtrip() {
	t := s.T()
	ctx := t.Context()

	order := randomOrder()
	require.NoError(t, s.orders.Insert(ctx, order))

	loaded, err := s.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)

	if diff := cmp.Diff(order, loaded, cmpOrder); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func (s *postgresSuite) TestFindByID_NotFound() {
	t := s.T()

	_, err := s.orders.FindByID(t.Context(), uuid.NewString())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func (s *postgresSuite) TestList_Filters() {
	t := s.T()
	ctx := t.Context()

	pending := randomOrder()
	pending.Status = domain.StatusPending
	pending.CustomerNumber = lo.ToPtr(7)
	pending.Customer.Email = "kari@example.com"
	require.NoError(t, s.orders.Insert(ctx, pending))

	shipped := randomOrder()
	shipped.Status = domain.StatusShipped
	shipped.CustomerNumber = lo.ToPtr(8)
	require.NoError(t, s.orders.Insert(ctx, shipped))

	all, err := s.orders.List(ctx, interfaces.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	byStatus, err := s.orders.List(ctx, interfaces.OrderFilter{Status: lo.ToPtr(domain.StatusShipped)})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	require.Equal(t, shipped.ID, byStatus[0].ID)

	byNumber, err := s.orders.List(ctx, interfaces.OrderFilter{CustomerNumber: lo.ToPtr(7)})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)
	require.Equal(t, pending.ID, byNumber[0].ID)

	byEmail, err := s.orders.List(ctx, interfaces.OrderFilter{Email: "kari@example.com"})
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	require.Equal(t, pending.ID, byEmail[0].ID)
}

func (s *postgresSuite) TestUpdate() {
	t := s.T()
	ctx := t.Context()

	order := randomOrder()
	require.NoError(t, s.orders.Insert(ctx, order))

	order.Status = domain.StatusCancelled
	order.CancelledBy = lo.ToPtr(domain.CancelledByAdmin)
	order.CancellationReason = lo.ToPtr("out of stock")
	order.CancellationAcknowledged = lo.ToPtr(false)
	order.History = append(order.History, domain.HistoryEntry{
		Field:     "status",
		OldValue:  "pending",
		NewValue:  "cancelled",
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	})
	order.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, s.orders.Update(ctx, order))

	loaded, err := s.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)

	if diff := cmp.Diff(order, loaded, cmpOrder); diff != "" {
		t.Errorf("order mismatch after update (-want +got):\n%s", diff)
	}
}

func (s *postgresSuite) TestUpdate_MissingOrder() {
	t := s.T()

	order := randomOrder()
	err := s.orders.Update(t.Context(), order)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func (s *postgresSuite) TestDelete() {
	t := s.T()
	ctx := t.Context()

	order := randomOrder()
	require.NoError(t, s.orders.Insert(ctx, order))

	require.NoError(t, s.orders.Delete(ctx, order.ID))

	_, err := s.orders.FindByID(ctx, order.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.ErrorIs(t, s.orders.Delete(ctx, order.ID), domain.ErrNotFound)
}

func (s *postgresSuite) TestCountByIPHashSince() {
	t := s.T()
	ctx := t.Context()

	hash := gofakeit.LetterN(64)

	for i := 0; i < 2; i++ {
		order := randomOrder()
		order.IPHash = &hash
		require.NoError(t, s.orders.Insert(ctx, order))
	}

	// demo orders never count against the limit
	demo := randomOrder()
	demo.IPHash = &hash
	demo.IsDemo = true
	demo.OrderNumber = domain.DemoOrderNumber
	require.NoError(t, s.orders.Insert(ctx, demo))

	// outside the window
	old := randomOrder()
	old.IPHash = &hash
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, s.orders.Insert(ctx, old))

	count, err := s.orders.CountByIPHashSince(ctx, hash, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 2, count)

	count, err = s.orders.CountByIPHashSince(ctx, gofakeit.LetterN(64), time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Zero(t, count)
}

func (s *postgresSuite) TestCounter_StartsAtOne() {
	t := s.T()
	ctx := t.Context()

	first, err := s.counters.NextValue(ctx, "orderCounter")
	require.NoError(t, err)
	second, err := s.counters.NextValue(ctx, "orderCounter")
	require.NoError(t, err)

	require.Equal(t, 1, first)
	require.Equal(t, 2, second)

	// independent counters do not share a sequence
	customer, err := s.counters.NextValue(ctx, "customerCounter")
	require.NoError(t, err)
	require.Equal(t, 1, customer)
}

func (s *postgresSuite) TestCounter_ConcurrentAllocationsAreUnique() {
	t := s.T()
	ctx := t.Context()

	const workers = 25

	values := make(chan int, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := s.counters.NextValue(ctx, "orderCounter")
			if err != nil {
				errs <- err
				return
			}
			values <- value
		}()
	}
	wg.Wait()
	close(values)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	seen := make(map[int]bool)
	for value := range values {
		require.False(t, seen[value], "duplicate order number %d", value)
		seen[value] = true
	}
	require.Len(t, seen, workers)
}

func (s *postgresSuite) seedProduct(p domain.Product) {
	_, err := s.pool.Exec(s.T().Context(), `
		INSERT INTO products (id, title, slug, price, sale_price, sale_from, sale_to, thumbnail_id, units_sold)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Title, p.Slug, p.Price, p.SalePrice, p.SaleFrom, p.SaleTo, p.ThumbnailID, p.UnitsSold,
	)
	s.Require().NoError(err)
}

func (s *postgresSuite) TestProductRepository() {
	t := s.T()
	ctx := t.Context()

	product := domain.Product{
		ID:        uuid.NewString(),
		Title:     "Mug",
		Slug:      "mug",
		Price:     decimal.NewFromInt(200),
		UnitsSold: 10,
	}
	s.seedProduct(product)

	byID, err := s.products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, "mug", byID.Slug)
	require.True(t, byID.Price.Equal(decimal.NewFromInt(200)))

	bySlug, err := s.products.FindBySlug(ctx, "mug")
	require.NoError(t, err)
	require.Equal(t, product.ID, bySlug.ID)

	_, err = s.products.FindByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func (s *postgresSuite) TestIncrementUnitsSold() {
	t := s.T()
	ctx := t.Context()

	product := domain.Product{
		ID:        uuid.NewString(),
		Title:     "Coaster",
		Slug:      "coaster",
		Price:     decimal.NewFromInt(100),
		UnitsSold: 5,
	}
	s.seedProduct(product)

	require.NoError(t, s.products.IncrementUnitsSold(ctx, product.ID, 3))
	require.NoError(t, s.products.IncrementUnitsSold(ctx, product.ID, -2))

	loaded, err := s.products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, 6, loaded.UnitsSold)

	err = s.products.IncrementUnitsSold(ctx, uuid.NewString(), 1)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func (s *postgresSuite) TestCartStore() {
	t := s.T()
	ctx := t.Context()

	ownerKey := uuid.NewString()

	// a cart never saved loads empty
	empty, err := s.carts.Load(ctx, ownerKey)
	require.NoError(t, err)
	require.Equal(t, ownerKey, empty.OwnerKey)
	require.Empty(t, empty.Items)

	cart := domain.Cart{
		OwnerKey: ownerKey,
		Items: []domain.CartItem{
			{
				ProductID:     uuid.NewString(),
				Title:         "Mug",
				Price:         decimal.NewFromInt(70),
				OriginalPrice: decimal.NewFromInt(100),
				IsOnSale:      true,
				Slug:          "mug",
				Quantity:      2,
			},
		},
	}
	require.NoError(t, s.carts.Save(ctx, cart))

	loaded, err := s.carts.Load(ctx, ownerKey)
	require.NoError(t, err)
	if diff := cmp.Diff(cart, loaded, cmpOrder); diff != "" {
		t.Errorf("cart mismatch (-want +got):\n%s", diff)
	}

	// saving again overwrites the snapshot
	cart.Items[0].Quantity = 5
	require.NoError(t, s.carts.Save(ctx, cart))

	loaded, err = s.carts.Load(ctx, ownerKey)
	require.NoError(t, err)
	require.Equal(t, 5, loaded.Items[0].Quantity)

	require.NoError(t, s.carts.Delete(ctx, ownerKey))

	loaded, err = s.carts.Load(ctx, ownerKey)
	require.NoError(t, err)
	require.Empty(t, loaded.Items)
}
