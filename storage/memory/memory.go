// Package memory keeps orders, menu and store settings in process memory.
// It backs tests and single-process development runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"kopi-store/models"
	"kopi-store/services"
)

type OrderRepository struct {
	mu      sync.RWMutex
	orders  map[string]models.Order
	history map[string][]models.StatusChange
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:  make(map[string]models.Order),
		history: make(map[string][]models.StatusChange),
	}
}

func copyOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	for i, it := range o.Items {
		it.Options = append([]models.ItemOption(nil), it.Options...)
		items[i] = it
	}
	o.Items = items
	return o
}

func (r *OrderRepository) Get(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", services.ErrOrderNotFound, id)
	}
	c := copyOrder(o)
	return &c, nil
}

func (r *OrderRepository) List(_ context.Context, f models.OrderFilter) ([]models.Order, error) {
	r.mu.RLock()
	var out []models.Order
	for _, o := range r.orders {
		if f.StoreID != "" && o.StoreID != f.StoreID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if !f.CreatedFrom.IsZero() && o.CreatedAt.Before(f.CreatedFrom) {
			continue
		}
		if !f.CreatedBefore.IsZero() && !o.CreatedAt.Before(f.CreatedBefore) {
			continue
		}
		out = append(out, copyOrder(o))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *OrderRepository) Upsert(_ context.Context, o *models.Order) error {
	if o.ID == "" {
		return fmt.Errorf("order id is required")
	}
	r.mu.Lock()
	r.orders[o.ID] = copyOrder(*o)
	r.mu.Unlock()
	return nil
}

func (r *OrderRepository) CountCreatedBetween(_ context.Context, storeID string, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, o := range r.orders {
		if o.StoreID != storeID {
			continue
		}
		if o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		n++
	}
	return n, nil
}

func (r *OrderRepository) AppendHistory(_ context.Context, change models.StatusChange) error {
	r.mu.Lock()
	r.history[change.OrderID] = append(r.history[change.OrderID], change)
	r.mu.Unlock()
	return nil
}

func (r *OrderRepository) History(_ context.Context, orderID string) ([]models.StatusChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.StatusChange(nil), r.history[orderID]...), nil
}

type MenuRepository struct {
	mu    sync.RWMutex
	items map[string]models.MenuItem
}

func NewMenuRepository() *MenuRepository {
	return &MenuRepository{items: make(map[string]models.MenuItem)}
}

func (r *MenuRepository) Get(_ context.Context, id string) (*models.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", services.ErrMenuItemNotFound, id)
	}
	return &it, nil
}

func (r *MenuRepository) List(_ context.Context, storeID string) ([]models.MenuItem, error) {
	r.mu.RLock()
	var out []models.MenuItem
	for _, it := range r.items {
		if it.StoreID == storeID {
			out = append(out, it)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *MenuRepository) Upsert(_ context.Context, item *models.MenuItem) error {
	if item.ID == "" {
		return fmt.Errorf("menu item id is required")
	}
	r.mu.Lock()
	r.items[item.ID] = *item
	r.mu.Unlock()
	return nil
}

func (r *MenuRepository) Insert(_ context.Context, item *models.MenuItem) error {
	if item.ID == "" {
		return fmt.Errorf("menu item id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; ok {
		return fmt.Errorf("%w: %s", services.ErrMenuItemExists, item.ID)
	}
	r.items[item.ID] = *item
	return nil
}

func (r *MenuRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("%w: %s", services.ErrMenuItemNotFound, id)
	}
	delete(r.items, id)
	return nil
}

type SettingsRepository struct {
	mu     sync.RWMutex
	stores map[string]models.StoreSettings
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{stores: make(map[string]models.StoreSettings)}
}

func copySettings(s models.StoreSettings) models.StoreSettings {
	s.SpecialDays = append([]models.SpecialDay(nil), s.SpecialDays...)
	return s
}

func (r *SettingsRepository) Get(_ context.Context, storeID string) (*models.StoreSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[storeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", services.ErrSettingsNotFound, storeID)
	}
	c := copySettings(s)
	return &c, nil
}

func (r *SettingsRepository) Upsert(_ context.Context, s *models.StoreSettings) error {
	r.mu.Lock()
	r.stores[s.StoreID] = copySettings(*s)
	r.mu.Unlock()
	return nil
}

func (r *SettingsRepository) InsertSpecialDay(_ context.Context, storeID string, sd models.SpecialDay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[storeID]
	if !ok {
		return fmt.Errorf("%w: %s", services.ErrSettingsNotFound, storeID)
	}
	for _, existing := range s.SpecialDays {
		if existing.Date == sd.Date {
			return fmt.Errorf("%w: %s", services.ErrDuplicateSpecialDay, sd.Date)
		}
	}
	days := append(append([]models.SpecialDay(nil), s.SpecialDays...), sd)
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	s.SpecialDays = days
	r.stores[storeID] = s
	return nil
}

func (r *SettingsRepository) DeleteSpecialDay(_ context.Context, storeID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[storeID]
	if !ok {
		return fmt.Errorf("%w: %s", services.ErrSettingsNotFound, storeID)
	}
	for i, sd := range s.SpecialDays {
		if sd.ID == id {
			days := append([]models.SpecialDay(nil), s.SpecialDays[:i]...)
			s.SpecialDays = append(days, s.SpecialDays[i+1:]...)
			r.stores[storeID] = s
			return nil
		}
	}
	return fmt.Errorf("%w: %s", services.ErrSpecialDayNotFound, id)
}

type pointerKey struct {
	orderID string
	chatID  int64
}

type MessagePointerRepository struct {
	mu       sync.RWMutex
	pointers map[pointerKey]int
}

func NewMessagePointerRepository() *MessagePointerRepository {
	return &MessagePointerRepository{pointers: make(map[pointerKey]int)}
}

func (r *MessagePointerRepository) GetMessagePointer(_ context.Context, orderID string, chatID int64) (int, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.pointers[pointerKey{orderID, chatID}]
	return id, ok, nil
}

func (r *MessagePointerRepository) UpsertMessagePointer(_ context.Context, orderID string, chatID int64, messageID int) error {
	r.mu.Lock()
	r.pointers[pointerKey{orderID, chatID}] = messageID
	r.mu.Unlock()
	return nil
}
