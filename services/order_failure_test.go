package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kopi-store/models"
	"kopi-store/services"
	"kopi-store/storage/memory"
)

var errConnReset = errors.New("connection reset by peer")

// brokenOrders wraps the memory repository with scripted Upsert failures.
type brokenOrders struct {
	services.OrderRepository

	mu          sync.Mutex
	failUpserts int
	panicUpsert bool
}

func (r *brokenOrders) Upsert(ctx context.Context, o *models.Order) error {
	r.mu.Lock()
	panicNow, failNow := r.panicUpsert, r.failUpserts > 0
	r.panicUpsert = false
	if failNow {
		r.failUpserts--
	}
	r.mu.Unlock()
	if panicNow {
		panic("driver bug")
	}
	if failNow {
		return errConnReset
	}
	return r.OrderRepository.Upsert(ctx, o)
}

func (r *brokenOrders) failNext(n int) {
	r.mu.Lock()
	r.failUpserts = n
	r.mu.Unlock()
}

func TestFailedCancelDoesNotReturnStock(t *testing.T) {
	orders := &brokenOrders{OrderRepository: memory.NewOrderRepository()}
	f := newFixtureWith(t, orders)
	ctx := context.Background()
	o := f.place(t, "Taro", models.IntakeItem{MenuItemID: "croissant", Quantity: 2})
	require.Equal(t, 1, f.stock(t, "croissant"))

	orders.failNext(2)
	for i := 0; i < 2; i++ {
		_, err := f.svc.Orders.Cancel(ctx, o.ID, "manager")
		require.ErrorIs(t, err, errConnReset)
		assert.Equal(t, 1, f.stock(t, "croissant"), "attempt %d", i+1)
	}
	got, err := f.svc.Orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusReceived, got.Status)

	_, err = f.svc.Orders.Cancel(ctx, o.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, 3, f.stock(t, "croissant"))

	_, err = f.svc.Orders.Cancel(ctx, o.ID, "manager")
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
	assert.Equal(t, 3, f.stock(t, "croissant"))
}

func TestFailedPlaceTakesNoStock(t *testing.T) {
	orders := &brokenOrders{OrderRepository: memory.NewOrderRepository()}
	f := newFixtureWith(t, orders)
	ctx := context.Background()

	orders.failNext(1)
	_, err := f.svc.Orders.Place(ctx, intake("Taro", models.IntakeItem{MenuItemID: "croissant", Quantity: 2}), "test")
	require.ErrorIs(t, err, errConnReset)
	assert.Equal(t, 3, f.stock(t, "croissant"))

	list, err := f.svc.Orders.List(ctx, models.OrderFilter{StoreID: storeID})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPanickingRepositoryReleasesStoreLock(t *testing.T) {
	orders := &brokenOrders{OrderRepository: memory.NewOrderRepository()}
	f := newFixtureWith(t, orders)
	ctx := context.Background()
	o := f.place(t, "Taro")

	orders.mu.Lock()
	orders.panicUpsert = true
	orders.mu.Unlock()
	assert.Panics(t, func() { _, _ = f.svc.Orders.Advance(ctx, o.ID, "barista") })

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Orders.Advance(ctx, o.ID, "barista")
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("store lock still held after a panic")
	}
}

func TestGetInStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.place(t, "Taro")

	got, err := f.svc.Orders.GetInStore(ctx, storeID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	_, err = f.svc.Orders.GetInStore(ctx, "kopi-other", o.ID)
	assert.ErrorIs(t, err, services.ErrOrderNotFound)

	_, err = f.svc.Menu.GetInStore(ctx, storeID, "latte")
	require.NoError(t, err)
	_, err = f.svc.Menu.GetInStore(ctx, "kopi-other", "latte")
	assert.ErrorIs(t, err, services.ErrMenuItemNotFound)
}
