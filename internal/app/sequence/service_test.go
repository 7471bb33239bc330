package sequence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounters struct {
	values  map[string]int
	nextErr error
}

func (f *fakeCounters) NextValue(_ context.Context, name string) (int, error) {
	if f.nextErr != nil {
		return 0, f.nextErr
	}
	if f.values == nil {
		f.values = make(map[string]int)
	}
	// first allocation for a fresh counter is 1
	f.values[name]++
	return f.values[name], nil
}

func TestNextOrderNumber(t *testing.T) {
	counters := &fakeCounters{}
	svc := NewService(counters)
	ctx := context.Background()

	first, err := svc.NextOrderNumber(ctx)
	require.NoError(t, err)
	second, err := svc.NextOrderNumber(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, first, "a fresh counter starts at 1")
	assert.Equal(t, 2, second)
}

func TestOrderAndCustomerCountersAreIndependent(t *testing.T) {
	counters := &fakeCounters{}
	svc := NewService(counters)
	ctx := context.Background()

	orderNum, err := svc.NextOrderNumber(ctx)
	require.NoError(t, err)
	customerNum, err := svc.NextCustomerNumber(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, orderNum)
	assert.Equal(t, 1, customerNum)
	assert.Equal(t, map[string]int{OrderCounter: 1, CustomerCounter: 1}, counters.values)
}

func TestNextOrderNumber_Error(t *testing.T) {
	counters := &fakeCounters{nextErr: errors.New("connection refused")}
	svc := NewService(counters)

	_, err := svc.NextOrderNumber(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to allocate order number")
}
