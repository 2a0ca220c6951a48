package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"kopi-store/models"
)

type EventKind string

const (
	EventPlaced    EventKind = "placed"
	EventAdvanced  EventKind = "advanced"
	EventCancelled EventKind = "cancelled"
)

// OrderEvent is delivered to subscribers after the change is stored.
type OrderEvent struct {
	Kind   EventKind
	Order  models.Order
	Change models.StatusChange
}

type OrderService struct {
	deps  Deps
	locks *storeLocks

	subsMu sync.RWMutex
	subs   []func(OrderEvent)
}

// Subscribe registers f for every order event. f runs on the caller's
// goroutine after the store lock is released and must not block.
func (s *OrderService) Subscribe(f func(OrderEvent)) {
	s.subsMu.Lock()
	s.subs = append(s.subs, f)
	s.subsMu.Unlock()
}

func (s *OrderService) publish(ev OrderEvent) {
	s.subsMu.RLock()
	subs := append([]func(OrderEvent){}, s.subs...)
	s.subsMu.RUnlock()
	for _, f := range subs {
		f(ev)
	}
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.deps.Orders.Get(ctx, id)
}

// GetInStore is Get for callers serving one store: an order of another
// store is reported as not found.
func (s *OrderService) GetInStore(ctx context.Context, storeID, id string) (*models.Order, error) {
	o, err := s.deps.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.StoreID != storeID {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	return o, nil
}

func (s *OrderService) repos() Repos {
	return Repos{Orders: s.deps.Orders, Menu: s.deps.Menu, Settings: s.deps.Settings}
}

func (s *OrderService) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, newValidationError("status", fmt.Sprintf("unknown status %q", filter.Status))
	}
	return s.deps.Orders.List(ctx, filter)
}

// Active returns the store's orders that still need staff attention, oldest
// pickup first.
func (s *OrderService) Active(ctx context.Context, storeID string) ([]models.Order, error) {
	all, err := s.deps.Orders.List(ctx, models.OrderFilter{StoreID: storeID})
	if err != nil {
		return nil, err
	}
	var active []models.Order
	for _, o := range all {
		if !o.Status.Terminal() {
			active = append(active, o)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ScheduledTime.Before(active[j].ScheduledTime) })
	return active, nil
}

func (s *OrderService) History(ctx context.Context, id string) ([]models.StatusChange, error) {
	if _, err := s.deps.Orders.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.deps.Orders.History(ctx, id)
}

// admissionRequest gathers the snapshot Admit decides on. Callers placing an
// order must hold the store lock.
func admissionRequest(ctx context.Context, r Repos, in models.OrderIntake, now time.Time) (AdmissionRequest, error) {
	settings, err := r.Settings.Get(ctx, in.StoreID)
	if err != nil {
		return AdmissionRequest{}, fmt.Errorf("load settings for %s: %w", in.StoreID, err)
	}
	cal, err := NewCalendar(settings)
	if err != nil {
		log.Warn().Err(err).Str("store_id", in.StoreID).Msg("falling back to UTC")
	}
	count, err := r.Orders.CountCreatedBetween(ctx, in.StoreID, WindowStart(now, settings.Policy), now)
	if err != nil {
		return AdmissionRequest{}, fmt.Errorf("count orders in window: %w", err)
	}
	items, err := r.Menu.List(ctx, in.StoreID)
	if err != nil {
		return AdmissionRequest{}, fmt.Errorf("load menu: %w", err)
	}
	menu := make(map[string]models.MenuItem, len(items))
	for _, it := range items {
		menu[it.ID] = it
	}
	return AdmissionRequest{
		Now:      now,
		Intake:   in,
		Calendar: cal,
		Policy:   settings.Policy,
		InWindow: count,
		Menu:     menu,
	}, nil
}

// Check runs admission without recording anything. The error is non-nil
// only for infrastructure failures; rejections are in the verdict.
func (s *OrderService) Check(ctx context.Context, in models.OrderIntake) (Verdict, error) {
	req, err := admissionRequest(ctx, s.repos(), in, s.deps.Clock.Now())
	if err != nil {
		return Verdict{}, err
	}
	return Admit(req), nil
}

// Place admits and records a new order in the received state. Rejections
// come back as the admission error kinds untouched.
func (s *OrderService) Place(ctx context.Context, in models.OrderIntake, actor string) (*models.Order, error) {
	o, change, err := s.place(ctx, in, actor)
	if err != nil {
		return nil, err
	}
	log.Info().Str("order_id", o.ID).Str("store_id", o.StoreID).Int64("total", o.TotalAmount).Msg("order placed")
	s.publish(OrderEvent{Kind: EventPlaced, Order: *o, Change: change})
	return o, nil
}

func (s *OrderService) place(ctx context.Context, in models.OrderIntake, actor string) (*models.Order, models.StatusChange, error) {
	var (
		o      *models.Order
		change models.StatusChange
	)
	err := s.locks.inStore(ctx, s.deps.Tx, in.StoreID, func(ctx context.Context, r Repos) error {
		now := s.deps.Clock.Now()
		req, err := admissionRequest(ctx, r, in, now)
		if err != nil {
			return err
		}
		v := Admit(req)
		if !v.Accepted {
			log.Info().Str("store_id", in.StoreID).Str("nickname", in.Nickname).Err(v.Reason).Msg("order rejected")
			return v.Reason
		}

		o = v.Order
		o.ID = newOrderID()
		// The order row goes first: without a transaction a failed stock
		// write leaves stock high, never counted twice.
		if err := r.Orders.Upsert(ctx, o); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		if err := adjustStock(ctx, r.Menu, o, req.Menu, -1, now); err != nil {
			return err
		}
		change = models.StatusChange{OrderID: o.ID, To: o.Status, Actor: actor, At: now}
		if err := r.Orders.AppendHistory(ctx, change); err != nil {
			return fmt.Errorf("record history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, models.StatusChange{}, err
	}
	return o, change, nil
}

// adjustStock moves stock of managed items by sign×quantity.
func adjustStock(ctx context.Context, menuRepo MenuRepository, o *models.Order, menu map[string]models.MenuItem, sign int, now time.Time) error {
	delta := make(map[string]int)
	for _, line := range o.Items {
		delta[line.MenuItemID] += sign * line.Quantity
	}
	for id, d := range delta {
		item, ok := menu[id]
		if !ok || !item.StockManaged {
			continue
		}
		item.Stock += d
		if item.Stock < 0 {
			item.Stock = 0
		}
		item.UpdatedAt = now
		if err := menuRepo.Upsert(ctx, &item); err != nil {
			return fmt.Errorf("update stock of %s: %w", id, err)
		}
	}
	return nil
}

// Advance moves the order one step along received → preparing → ready →
// collected. Collected and cancelled orders fail with ErrInvalidTransition.
func (s *OrderService) Advance(ctx context.Context, id, actor string) (*models.Order, error) {
	return s.transition(ctx, id, actor, EventAdvanced, func(o *models.Order) (models.OrderStatus, error) {
		return NextStatus(o.Status)
	})
}

// Cancel is the administrative exit from any non-terminal status. Stock
// taken by the order is given back.
func (s *OrderService) Cancel(ctx context.Context, id, actor string) (*models.Order, error) {
	return s.transition(ctx, id, actor, EventCancelled, func(o *models.Order) (models.OrderStatus, error) {
		if !ValidStatusTransition(o.Status, models.OrderStatusCancelled) {
			return "", fmt.Errorf("%w: cannot cancel a %s order", ErrInvalidTransition, o.Status)
		}
		return models.OrderStatusCancelled, nil
	})
}

func (s *OrderService) transition(ctx context.Context, id, actor string, kind EventKind, next func(*models.Order) (models.OrderStatus, error)) (*models.Order, error) {
	o, err := s.deps.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var change models.StatusChange
	err = s.locks.inStore(ctx, s.deps.Tx, o.StoreID, func(ctx context.Context, r Repos) error {
		// Re-read under the lock; a concurrent transition may have won.
		cur, err := r.Orders.Get(ctx, id)
		if err != nil {
			return err
		}
		o = cur
		to, err := next(o)
		if err != nil {
			return err
		}
		now := s.deps.Clock.Now()
		change = models.StatusChange{OrderID: o.ID, From: o.Status, To: to, Actor: actor, At: now}
		o.Status = to
		o.UpdatedAt = now
		// Status first: a cancel that fails here has not given stock back,
		// so a retry cannot return it twice.
		if err := r.Orders.Upsert(ctx, o); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		if to == models.OrderStatusCancelled {
			if err := restoreStock(ctx, r.Menu, o, now); err != nil {
				return err
			}
		}
		if err := r.Orders.AppendHistory(ctx, change); err != nil {
			return fmt.Errorf("record history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("order_id", o.ID).Str("store_id", o.StoreID).
		Str("from", string(change.From)).Str("to", string(change.To)).Str("actor", actor).
		Msg("order status changed")
	s.publish(OrderEvent{Kind: kind, Order: *o, Change: change})
	return o, nil
}

func restoreStock(ctx context.Context, menuRepo MenuRepository, o *models.Order, now time.Time) error {
	menu := make(map[string]models.MenuItem)
	for _, line := range o.Items {
		if _, seen := menu[line.MenuItemID]; seen {
			continue
		}
		item, err := menuRepo.Get(ctx, line.MenuItemID)
		if errors.Is(err, ErrMenuItemNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load menu item %s: %w", line.MenuItemID, err)
		}
		menu[item.ID] = *item
	}
	return adjustStock(ctx, menuRepo, o, menu, 1, now)
}
