package services

import (
	"context"
	"time"

	"kopi-store/models"
)

// OrderRepository stores orders and their status history. Orders are never
// deleted; Get returns ErrOrderNotFound for unknown ids.
type OrderRepository interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	// List returns matching orders newest first, at most filter.Limit when set.
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	Upsert(ctx context.Context, o *models.Order) error
	// CountCreatedBetween counts a store's orders with from <= CreatedAt <= to.
	CountCreatedBetween(ctx context.Context, storeID string, from, to time.Time) (int, error)
	AppendHistory(ctx context.Context, change models.StatusChange) error
	History(ctx context.Context, orderID string) ([]models.StatusChange, error)
}

// MenuRepository returns ErrMenuItemNotFound from Get and Delete for
// unknown ids.
type MenuRepository interface {
	Get(ctx context.Context, id string) (*models.MenuItem, error)
	// List returns a store's items ordered by category, then name.
	List(ctx context.Context, storeID string) ([]models.MenuItem, error)
	// Insert adds a new item and returns ErrMenuItemExists when the id is
	// taken, in any store.
	Insert(ctx context.Context, item *models.MenuItem) error
	Upsert(ctx context.Context, item *models.MenuItem) error
	Delete(ctx context.Context, id string) error
}

// SettingsRepository persists StoreSettings. Special days are written one
// by one so the store can enforce one entry per date; InsertSpecialDay
// returns ErrDuplicateSpecialDay and DeleteSpecialDay ErrSpecialDayNotFound.
type SettingsRepository interface {
	Get(ctx context.Context, storeID string) (*models.StoreSettings, error)
	Upsert(ctx context.Context, s *models.StoreSettings) error
	InsertSpecialDay(ctx context.Context, storeID string, sd models.SpecialDay) error
	DeleteSpecialDay(ctx context.Context, storeID, id string) error
}

// MessagePointerRepository remembers which chat message shows an order's
// card so the card can be edited in place after a restart.
type MessagePointerRepository interface {
	// GetMessagePointer reports ok=false when the order has no card in chatID.
	GetMessagePointer(ctx context.Context, orderID string, chatID int64) (messageID int, ok bool, err error)
	UpsertMessagePointer(ctx context.Context, orderID string, chatID int64, messageID int) error
}
