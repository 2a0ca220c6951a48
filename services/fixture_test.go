package services_test

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"kopi-store/clock"
	"kopi-store/models"
	"kopi-store/services"
	"kopi-store/storage/memory"
)

const storeID = "kopi-test"

type fixture struct {
	svc   *services.Services
	clock *clock.FakeClock
	loc   *time.Location
}

// newFixture opens a Tokyo store 08:00-20:00 every day with a cap of 3
// orders per 15 minutes. The clock starts on Monday 2025-06-02 10:00 JST.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, memory.NewOrderRepository())
}

// newFixtureWith is newFixture over the given order repository.
func newFixtureWith(t *testing.T, orders services.OrderRepository) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	fc := clock.Fake(time.Date(2025, 6, 2, 10, 0, 0, 0, loc))
	svc := services.New(services.Deps{
		Orders:   orders,
		Menu:     memory.NewMenuRepository(),
		Settings: memory.NewSettingsRepository(),
		Clock:    fc,
	})
	ctx := context.Background()
	settings := &models.StoreSettings{
		StoreID:  storeID,
		Info:     models.StoreInfo{Name: "Kopi テスト店"},
		Policy:   models.AdmissionPolicy{MaxOrdersPerWindow: 3, WindowMinutes: 15},
		TimeZone: "Asia/Tokyo",
	}
	for d := range settings.Weekly {
		settings.Weekly[d] = models.DayHours{Open: models.NewTimeOfDay(8, 0), Close: models.NewTimeOfDay(20, 0), IsOpen: true}
	}
	created, err := svc.Settings.Ensure(ctx, settings)
	require.NoError(t, err)
	require.True(t, created)

	for _, it := range []models.MenuItem{
		{ID: "latte", StoreID: storeID, Name: "カフェラテ", Price: 480, Category: models.CategoryCoffee, IsActive: true, IsVisible: true},
		{ID: "croissant", StoreID: storeID, Name: "クロワッサン", Price: 280, Category: models.CategoryFood,
			IsActive: true, IsVisible: true, StockManaged: true, Stock: 3},
		{ID: "matcha", StoreID: storeID, Name: "抹茶ラテ", Price: 500, Category: models.CategoryTea, IsActive: true, IsVisible: true},
	} {
		_, err := svc.Menu.Create(ctx, it)
		require.NoError(t, err)
	}
	return &fixture{svc: svc, clock: fc, loc: loc}
}

func intake(nickname string, items ...models.IntakeItem) models.OrderIntake {
	if len(items) == 0 {
		items = []models.IntakeItem{{MenuItemID: "latte", Quantity: 1}}
	}
	return models.OrderIntake{StoreID: storeID, Nickname: nickname, Items: items}
}

func (f *fixture) place(t *testing.T, nickname string, items ...models.IntakeItem) *models.Order {
	t.Helper()
	o, err := f.svc.Orders.Place(context.Background(), intake(nickname, items...), "test")
	require.NoError(t, err)
	return o
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	it, err := f.svc.Menu.Get(context.Background(), id)
	require.NoError(t, err)
	return it.Stock
}
