package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/logger"
	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
)

type fakeProducts struct {
	applied map[string]int
	failing map[string]error
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{
		applied: make(map[string]int),
		failing: make(map[string]error),
	}
}

func (f *fakeProducts) FindByID(context.Context, string) (domain.Product, error) {
	return domain.Product{}, domain.ErrProductNotFound
}

func (f *fakeProducts) FindBySlug(context.Context, string) (domain.Product, error) {
	return domain.Product{}, domain.ErrProductNotFound
}

func (f *fakeProducts) IncrementUnitsSold(_ context.Context, productID string, delta int) error {
	if err, ok := f.failing[productID]; ok {
		return err
	}
	f.applied[productID] += delta
	return nil
}

func TestApply(t *testing.T) {
	products := newFakeProducts()
	svc := NewService(products, logger.New("test"))

	outcomes := svc.Apply(context.Background(), map[string]int{"p1": 2, "p2": -1})

	assert.Equal(t, map[string]int{"p1": 2, "p2": -1}, products.applied)
	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		assert.NoError(t, outcome.Err)
	}
}

func TestApply_SkipsZeroDeltas(t *testing.T) {
	products := newFakeProducts()
	svc := NewService(products, logger.New("test"))

	outcomes := svc.Apply(context.Background(), map[string]int{"p1": 0, "p2": 3})

	require.Len(t, outcomes, 1)
	assert.Equal(t, "p2", outcomes[0].ProductID)
	assert.NotContains(t, products.applied, "p1")
}

func TestApply_PartialFailureContinues(t *testing.T) {
	products := newFakeProducts()
	products.failing["p2"] = domain.ErrProductNotFound
	svc := NewService(products, logger.New("test"))

	outcomes := svc.Apply(context.Background(), map[string]int{"p1": 1, "p2": 1, "p3": 1})

	assert.Equal(t, map[string]int{"p1": 1, "p3": 1}, products.applied,
		"one missing product never blocks the rest of the batch")

	failures := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failures++
			assert.Equal(t, "p2", outcome.ProductID)
			assert.ErrorIs(t, outcome.Err, domain.ErrProductNotFound)
		}
	}
	assert.Equal(t, 1, failures)
}

func TestApply_EmptyBatch(t *testing.T) {
	svc := NewService(newFakeProducts(), logger.New("test"))

	outcomes := svc.Apply(context.Background(), nil)
	assert.Empty(t, outcomes)
}

func TestApply_StorageErrorReported(t *testing.T) {
	products := newFakeProducts()
	storageErr := errors.New("connection reset")
	products.failing["p1"] = storageErr
	svc := NewService(products, logger.New("test"))

	outcomes := svc.Apply(context.Background(), map[string]int{"p1": 4})

	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, storageErr)
	assert.Equal(t, 4, outcomes[0].Delta)
}
