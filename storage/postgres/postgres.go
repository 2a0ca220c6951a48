// Package postgres implements the service repositories on PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"kopi-store/models"
	"kopi-store/services"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// querier is the part of pgxpool.Pool and pgx.Tx the repositories use, so
// the same code runs on the pool or inside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

type OrderRepository struct {
	db querier
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: pool}
}

const orderColumns = `id, store_id, nickname, status, scheduled_time, created_at, updated_at,
	items, coupon_code, coupon_discount, total_amount`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		o      models.Order
		status string
		items  []byte
	)
	err := row.Scan(&o.ID, &o.StoreID, &o.Nickname, &status, &o.ScheduledTime, &o.CreatedAt, &o.UpdatedAt,
		&items, &o.CouponCode, &o.CouponDiscount, &o.TotalAmount)
	if err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	return &o, nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", services.ErrOrderNotFound, id)
		}
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) List(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.StoreID != "" {
		add("store_id = $%d", f.StoreID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if !f.CreatedFrom.IsZero() {
		add("created_at >= $%d", f.CreatedFrom)
	}
	if !f.CreatedBefore.IsZero() {
		add("created_at < $%d", f.CreatedBefore)
	}

	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *OrderRepository) Upsert(ctx context.Context, o *models.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			scheduled_time = EXCLUDED.scheduled_time,
			updated_at = EXCLUDED.updated_at,
			items = EXCLUDED.items,
			coupon_code = EXCLUDED.coupon_code,
			coupon_discount = EXCLUDED.coupon_discount,
			total_amount = EXCLUDED.total_amount
	`, o.ID, o.StoreID, o.Nickname, string(o.Status), o.ScheduledTime, o.CreatedAt, o.UpdatedAt,
		items, o.CouponCode, o.CouponDiscount, o.TotalAmount)
	return err
}

func (r *OrderRepository) CountCreatedBetween(ctx context.Context, storeID string, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE store_id = $1 AND created_at >= $2 AND created_at <= $3
	`, storeID, from, to).Scan(&n)
	return n, err
}

func (r *OrderRepository) AppendHistory(ctx context.Context, c models.StatusChange) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO order_status_history (order_id, from_status, to_status, actor, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.OrderID, string(c.From), string(c.To), c.Actor, c.At)
	return err
}

func (r *OrderRepository) History(ctx context.Context, orderID string) ([]models.StatusChange, error) {
	rows, err := r.db.Query(ctx, `
		SELECT order_id, from_status, to_status, actor, changed_at
		FROM order_status_history WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.StatusChange
	for rows.Next() {
		var c models.StatusChange
		var from, to string
		if err := rows.Scan(&c.OrderID, &from, &to, &c.Actor, &c.At); err != nil {
			return nil, err
		}
		c.From, c.To = models.OrderStatus(from), models.OrderStatus(to)
		out = append(out, c)
	}
	return out, rows.Err()
}

type MenuRepository struct {
	db querier
}

func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{db: pool}
}

const menuColumns = `id, store_id, name, description, price, category, image_ref,
	is_active, is_visible, stock_managed, stock, created_at, updated_at`

func scanMenuItem(row pgx.Row) (*models.MenuItem, error) {
	var it models.MenuItem
	var category string
	err := row.Scan(&it.ID, &it.StoreID, &it.Name, &it.Description, &it.Price, &category, &it.ImageRef,
		&it.IsActive, &it.IsVisible, &it.StockManaged, &it.Stock, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.Category = models.Category(category)
	return &it, nil
}

func (r *MenuRepository) Get(ctx context.Context, id string) (*models.MenuItem, error) {
	it, err := scanMenuItem(r.db.QueryRow(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", services.ErrMenuItemNotFound, id)
		}
		return nil, err
	}
	return it, nil
}

func (r *MenuRepository) List(ctx context.Context, storeID string) ([]models.MenuItem, error) {
	rows, err := r.db.Query(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE store_id = $1 ORDER BY category, name`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.MenuItem
	for rows.Next() {
		it, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (r *MenuRepository) Upsert(ctx context.Context, it *models.MenuItem) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO menu_items (`+menuColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			image_ref = EXCLUDED.image_ref,
			is_active = EXCLUDED.is_active,
			is_visible = EXCLUDED.is_visible,
			stock_managed = EXCLUDED.stock_managed,
			stock = EXCLUDED.stock,
			updated_at = EXCLUDED.updated_at
	`, it.ID, it.StoreID, it.Name, it.Description, it.Price, string(it.Category), it.ImageRef,
		it.IsActive, it.IsVisible, it.StockManaged, it.Stock, it.CreatedAt, it.UpdatedAt)
	if pgErrorCode(err) == foreignKeyViolation {
		return fmt.Errorf("%w: %s", services.ErrSettingsNotFound, it.StoreID)
	}
	return err
}

func (r *MenuRepository) Insert(ctx context.Context, it *models.MenuItem) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO menu_items (`+menuColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, it.ID, it.StoreID, it.Name, it.Description, it.Price, string(it.Category), it.ImageRef,
		it.IsActive, it.IsVisible, it.StockManaged, it.Stock, it.CreatedAt, it.UpdatedAt)
	switch pgErrorCode(err) {
	case uniqueViolation:
		return fmt.Errorf("%w: %s", services.ErrMenuItemExists, it.ID)
	case foreignKeyViolation:
		return fmt.Errorf("%w: %s", services.ErrSettingsNotFound, it.StoreID)
	}
	return err
}

func (r *MenuRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", services.ErrMenuItemNotFound, id)
	}
	return nil
}

type SettingsRepository struct {
	db querier
}

func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{db: pool}
}

func (r *SettingsRepository) Get(ctx context.Context, storeID string) (*models.StoreSettings, error) {
	s := models.StoreSettings{StoreID: storeID}
	var weekly []byte
	err := r.db.QueryRow(ctx, `
		SELECT name, address, phone, description, image_ref, icon_ref, weekly_hours,
			max_orders_per_window, window_minutes, time_zone, updated_at
		FROM stores WHERE id = $1
	`, storeID).Scan(&s.Info.Name, &s.Info.Address, &s.Info.Phone, &s.Info.Description, &s.Info.ImageRef, &s.Info.IconRef,
		&weekly, &s.Policy.MaxOrdersPerWindow, &s.Policy.WindowMinutes, &s.TimeZone, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", services.ErrSettingsNotFound, storeID)
		}
		return nil, err
	}
	if err := json.Unmarshal(weekly, &s.Weekly); err != nil {
		return nil, fmt.Errorf("decode weekly hours of %s: %w", storeID, err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, day, is_open, open_minute, close_minute, note, max_orders_per_window
		FROM special_days WHERE store_id = $1 ORDER BY day
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			sd       models.SpecialDay
			day      time.Time
			openMin  int
			closeMin int
		)
		if err := rows.Scan(&sd.ID, &day, &sd.IsOpen, &openMin, &closeMin, &sd.Note, &sd.MaxOrdersPerWindow); err != nil {
			return nil, err
		}
		sd.Date = models.DateOf(day)
		sd.Open, sd.Close = models.TimeOfDay(openMin), models.TimeOfDay(closeMin)
		s.SpecialDays = append(s.SpecialDays, sd)
	}
	return &s, rows.Err()
}

// Upsert writes the store row and replaces its special days in one
// transaction.
func (r *SettingsRepository) Upsert(ctx context.Context, s *models.StoreSettings) error {
	weekly, err := json.Marshal(s.Weekly)
	if err != nil {
		return fmt.Errorf("encode weekly hours: %w", err)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO stores (id, name, address, phone, description, image_ref, icon_ref, weekly_hours,
			max_orders_per_window, window_minutes, time_zone, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			description = EXCLUDED.description,
			image_ref = EXCLUDED.image_ref,
			icon_ref = EXCLUDED.icon_ref,
			weekly_hours = EXCLUDED.weekly_hours,
			max_orders_per_window = EXCLUDED.max_orders_per_window,
			window_minutes = EXCLUDED.window_minutes,
			time_zone = EXCLUDED.time_zone,
			updated_at = EXCLUDED.updated_at
	`, s.StoreID, s.Info.Name, s.Info.Address, s.Info.Phone, s.Info.Description, s.Info.ImageRef, s.Info.IconRef,
		weekly, s.Policy.MaxOrdersPerWindow, s.Policy.WindowMinutes, s.TimeZone, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert store: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM special_days WHERE store_id = $1`, s.StoreID); err != nil {
		return fmt.Errorf("clear special days: %w", err)
	}
	for _, sd := range s.SpecialDays {
		if err := insertSpecialDay(ctx, tx, s.StoreID, sd); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func insertSpecialDay(ctx context.Context, tx pgx.Tx, storeID string, sd models.SpecialDay) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO special_days (id, store_id, day, is_open, open_minute, close_minute, note, max_orders_per_window)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, sd.ID, storeID, sd.Date.In(time.UTC), sd.IsOpen, int(sd.Open), int(sd.Close), sd.Note, sd.MaxOrdersPerWindow)
	switch pgErrorCode(err) {
	case "":
		return err
	case uniqueViolation:
		return fmt.Errorf("%w: %s", services.ErrDuplicateSpecialDay, sd.Date)
	case foreignKeyViolation:
		return fmt.Errorf("%w: %s", services.ErrSettingsNotFound, storeID)
	}
	return err
}

// InsertSpecialDay relies on UNIQUE (store_id, day) so two concurrent
// inserts for the same date cannot both succeed.
func (r *SettingsRepository) InsertSpecialDay(ctx context.Context, storeID string, sd models.SpecialDay) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := insertSpecialDay(ctx, tx, storeID, sd); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *SettingsRepository) DeleteSpecialDay(ctx context.Context, storeID, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM special_days WHERE store_id = $1 AND id = $2`, storeID, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", services.ErrSpecialDayNotFound, id)
	}
	return nil
}

// TxRunner runs a unit of work in one transaction that first takes a
// transaction-scoped advisory lock on the store. Processes sharing the
// database therefore place and move orders of a store one at a time.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (t *TxRunner) InStoreTx(ctx context.Context, storeID string, fn func(context.Context, services.Repos) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, storeID); err != nil {
		return fmt.Errorf("lock store %s: %w", storeID, err)
	}
	repos := services.Repos{
		Orders:   &OrderRepository{db: tx},
		Menu:     &MenuRepository{db: tx},
		Settings: &SettingsRepository{db: tx},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
