package services

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"kopi-store/clock"
)

// Deps are the collaborators injected into every service.
type Deps struct {
	Orders   OrderRepository
	Menu     MenuRepository
	Settings SettingsRepository
	Clock    clock.Clock
	// Tx runs multi-step writes atomically. Nil means the repositories
	// above are used directly, with no rollback on a failed step.
	Tx TxRunner
}

// Repos is the set of repositories one unit of work writes through.
type Repos struct {
	Orders   OrderRepository
	Menu     MenuRepository
	Settings SettingsRepository
}

// TxRunner runs fn with repositories bound to one transaction that holds
// the store's write lock. An error from fn rolls the transaction back.
type TxRunner interface {
	InStoreTx(ctx context.Context, storeID string, fn func(ctx context.Context, r Repos) error) error
}

type directTx struct {
	repos Repos
}

func (d directTx) InStoreTx(ctx context.Context, _ string, fn func(context.Context, Repos) error) error {
	return fn(ctx, d.repos)
}

// Services bundles the staff-facing operations over one set of repositories.
type Services struct {
	Orders   *OrderService
	Menu     *MenuService
	Settings *SettingsService
}

func New(deps Deps) *Services {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Tx == nil {
		deps.Tx = directTx{repos: Repos{Orders: deps.Orders, Menu: deps.Menu, Settings: deps.Settings}}
	}
	locks := &storeLocks{}
	return &Services{
		Orders:   &OrderService{deps: deps, locks: locks},
		Menu:     &MenuService{deps: deps, locks: locks},
		Settings: &SettingsService{deps: deps, locks: locks},
	}
}

// storeLocks serializes every write that touches one store: placements,
// status changes, stock and settings edits. Admission reads the window
// count and records the order inside the same section, so two concurrent
// placements cannot both take the last slot.
type storeLocks struct {
	m sync.Map // map[storeID]*sync.Mutex
}

func (l *storeLocks) lock(storeID string) func() {
	v, _ := l.m.LoadOrStore(storeID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// inStore runs fn under the in-process store lock and inside a store
// transaction, so writers in other processes sharing the database are
// serialized too.
func (l *storeLocks) inStore(ctx context.Context, tx TxRunner, storeID string, fn func(context.Context, Repos) error) error {
	unlock := l.lock(storeID)
	defer unlock()
	return tx.InStoreTx(ctx, storeID, fn)
}

func newOrderID() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
