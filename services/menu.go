package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"kopi-store/models"
)

// MenuService is the staff CRUD over a store's menu.
type MenuService struct {
	deps  Deps
	locks *storeLocks
}

// List returns the store's menu, optionally narrowed to one category.
func (s *MenuService) List(ctx context.Context, storeID string, category models.Category) ([]models.MenuItem, error) {
	if category != "" && !category.Valid() {
		return nil, newValidationError("category", fmt.Sprintf("invalid category: %s", category))
	}
	items, err := s.deps.Menu.List(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return items, nil
	}
	var out []models.MenuItem
	for _, it := range items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *MenuService) Get(ctx context.Context, id string) (*models.MenuItem, error) {
	return s.deps.Menu.Get(ctx, id)
}

// GetInStore reports an item of another store as not found.
func (s *MenuService) GetInStore(ctx context.Context, storeID, id string) (*models.MenuItem, error) {
	item, err := s.deps.Menu.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.StoreID != storeID {
		return nil, fmt.Errorf("%w: %s", ErrMenuItemNotFound, id)
	}
	return item, nil
}

// Create stores a new item. ID is assigned when empty; a taken ID fails
// with ErrMenuItemExists and leaves the existing item alone.
func (s *MenuService) Create(ctx context.Context, item models.MenuItem) (*models.MenuItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if err := validateMenuItem(&item); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(item.StoreID)
	defer unlock()

	now := s.deps.Clock.Now()
	if item.ID == "" {
		item.ID = newID("menu")
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	if err := s.deps.Menu.Insert(ctx, &item); err != nil {
		return nil, fmt.Errorf("store menu item: %w", err)
	}
	log.Info().Str("store_id", item.StoreID).Str("menu_item_id", item.ID).Str("name", item.Name).Msg("menu item created")
	return &item, nil
}

// Update replaces the editable fields of an existing item. The store it
// belongs to never changes.
func (s *MenuService) Update(ctx context.Context, item models.MenuItem) (*models.MenuItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	existing, err := s.deps.Menu.Get(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	item.StoreID = existing.StoreID
	if err := validateMenuItem(&item); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(item.StoreID)
	defer unlock()

	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = s.deps.Clock.Now()
	if err := s.deps.Menu.Upsert(ctx, &item); err != nil {
		return nil, fmt.Errorf("store menu item: %w", err)
	}
	log.Info().Str("store_id", item.StoreID).Str("menu_item_id", item.ID).Msg("menu item updated")
	return &item, nil
}

// SetStock sets the stock count of a stock-managed item.
func (s *MenuService) SetStock(ctx context.Context, id string, stock int) (*models.MenuItem, error) {
	if stock < 0 {
		return nil, newValidationError("stock", "stock must be >= 0")
	}
	return s.updateStock(ctx, id, func(int) int { return stock })
}

// AdjustStock moves the stock count by delta, stopping at zero. The read
// and the write happen under the store lock, so units taken by a
// concurrent order are never written back.
func (s *MenuService) AdjustStock(ctx context.Context, id string, delta int) (*models.MenuItem, error) {
	return s.updateStock(ctx, id, func(cur int) int {
		if cur+delta < 0 {
			return 0
		}
		return cur + delta
	})
}

func (s *MenuService) updateStock(ctx context.Context, id string, next func(int) int) (*models.MenuItem, error) {
	item, err := s.deps.Menu.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.locks.inStore(ctx, s.deps.Tx, item.StoreID, func(ctx context.Context, r Repos) error {
		cur, err := r.Menu.Get(ctx, id)
		if err != nil {
			return err
		}
		cur.Stock = next(cur.Stock)
		cur.UpdatedAt = s.deps.Clock.Now()
		if err := r.Menu.Upsert(ctx, cur); err != nil {
			return fmt.Errorf("store menu item: %w", err)
		}
		item = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *MenuService) Delete(ctx context.Context, id string) error {
	item, err := s.deps.Menu.Get(ctx, id)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(item.StoreID)
	defer unlock()

	if err := s.deps.Menu.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("store_id", item.StoreID).Str("menu_item_id", id).Msg("menu item deleted")
	return nil
}

func validateMenuItem(item *models.MenuItem) error {
	if strings.TrimSpace(item.StoreID) == "" {
		return newValidationError("store_id", "store is required")
	}
	if !item.Category.Valid() {
		return newValidationError("category", fmt.Sprintf("invalid category: %s", item.Category))
	}
	if item.Name == "" {
		return newValidationError("name", "name is required")
	}
	if item.Price < 0 {
		return newValidationError("price", "price must be >= 0")
	}
	if item.Stock < 0 {
		return newValidationError("stock", "stock must be >= 0")
	}
	return nil
}
