package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kopi-store/models"
	"kopi-store/services"
)

var t0 = time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)

func TestOrderRepositoryCountIsInclusive(t *testing.T) {
	ctx := context.Background()
	r := NewOrderRepository()
	for i, at := range []time.Time{t0, t0.Add(5 * time.Minute), t0.Add(15 * time.Minute), t0.Add(16 * time.Minute)} {
		require.NoError(t, r.Upsert(ctx, &models.Order{ID: string(rune('a' + i)), StoreID: "s", CreatedAt: at}))
	}
	require.NoError(t, r.Upsert(ctx, &models.Order{ID: "other", StoreID: "t", CreatedAt: t0}))

	n, err := r.CountCreatedBetween(ctx, "s", t0, t0.Add(15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOrderRepositoryListAndCopies(t *testing.T) {
	ctx := context.Background()
	r := NewOrderRepository()
	o := &models.Order{ID: "a", StoreID: "s", Status: models.OrderStatusReceived, CreatedAt: t0,
		Items: []models.OrderItem{{MenuItemID: "latte", Quantity: 1, Options: []models.ItemOption{{Name: "size", Value: "S"}}}}}
	require.NoError(t, r.Upsert(ctx, o))
	require.NoError(t, r.Upsert(ctx, &models.Order{ID: "b", StoreID: "s", Status: models.OrderStatusReady, CreatedAt: t0.Add(time.Hour)}))

	o.Items[0].Options[0].Value = "L"
	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "S", got.Items[0].Options[0].Value, "stored order must not alias the caller's")

	list, err := r.List(ctx, models.OrderFilter{StoreID: "s"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)

	list, err = r.List(ctx, models.OrderFilter{StoreID: "s", CreatedBefore: t0.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)

	list, err = r.List(ctx, models.OrderFilter{Status: models.OrderStatusReady, Limit: 5})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = r.Get(ctx, "zzz")
	assert.ErrorIs(t, err, services.ErrOrderNotFound)
	assert.Error(t, r.Upsert(ctx, &models.Order{}))
}

func TestSettingsRepositorySpecialDays(t *testing.T) {
	ctx := context.Background()
	r := NewSettingsRepository()
	d := models.Date{Year: 2025, Month: 1, Day: 1}

	assert.ErrorIs(t, r.InsertSpecialDay(ctx, "s", models.SpecialDay{ID: "x", Date: d}), services.ErrSettingsNotFound)
	require.NoError(t, r.Upsert(ctx, &models.StoreSettings{StoreID: "s"}))
	require.NoError(t, r.InsertSpecialDay(ctx, "s", models.SpecialDay{ID: "x", Date: d}))
	assert.ErrorIs(t, r.InsertSpecialDay(ctx, "s", models.SpecialDay{ID: "y", Date: d}), services.ErrDuplicateSpecialDay)

	got, err := r.Get(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got.SpecialDays, 1)
	got.SpecialDays[0].Note = "changed"
	again, _ := r.Get(ctx, "s")
	assert.Empty(t, again.SpecialDays[0].Note)

	assert.ErrorIs(t, r.DeleteSpecialDay(ctx, "s", "y"), services.ErrSpecialDayNotFound)
	require.NoError(t, r.DeleteSpecialDay(ctx, "s", "x"))
}

func TestMenuRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMenuRepository()
	require.NoError(t, r.Upsert(ctx, &models.MenuItem{ID: "2", StoreID: "s", Name: "ベーグル", Category: models.CategoryFood}))
	require.NoError(t, r.Upsert(ctx, &models.MenuItem{ID: "1", StoreID: "s", Name: "カフェラテ", Category: models.CategoryCoffee}))
	require.NoError(t, r.Upsert(ctx, &models.MenuItem{ID: "3", StoreID: "t", Name: "x", Category: models.CategoryCoffee}))

	items, err := r.List(ctx, "s")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)

	err = r.Insert(ctx, &models.MenuItem{ID: "3", StoreID: "s", Name: "y", Category: models.CategoryTea})
	assert.ErrorIs(t, err, services.ErrMenuItemExists)
	kept, err := r.Get(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "t", kept.StoreID)
	require.NoError(t, r.Insert(ctx, &models.MenuItem{ID: "4", StoreID: "s", Name: "スコーン", Category: models.CategoryFood}))

	require.NoError(t, r.Delete(ctx, "1"))
	_, err = r.Get(ctx, "1")
	assert.ErrorIs(t, err, services.ErrMenuItemNotFound)
	assert.ErrorIs(t, r.Delete(ctx, "1"), services.ErrMenuItemNotFound)
}

func TestMessagePointerRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMessagePointerRepository()
	_, ok, err := r.GetMessagePointer(ctx, "a", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.UpsertMessagePointer(ctx, "a", 1, 10))
	id, ok, _ := r.GetMessagePointer(ctx, "a", 1)
	assert.True(t, ok)
	assert.Equal(t, 10, id)
	_, ok, _ = r.GetMessagePointer(ctx, "a", 2)
	assert.False(t, ok)
}
